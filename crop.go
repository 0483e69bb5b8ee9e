package seglabel

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/geodata-dk/seglabel/utils"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// Cropper cuts rasters down to a boundary shapefile's extent plus a margin.
type Cropper struct {
	boundary string
	margin   float64 // ground units added around the boundary extent
	tmpDir   string
	logTag   string
	log      *zap.Logger
}

func NewCropper(boundary string, margin float64, logger *zap.Logger) *Cropper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cropper{
		boundary: boundary,
		margin:   margin,
		logTag:   "Cropper:",
		log:      logger,
	}
}

// Run crops every raster under input to the boundary extent. Folder/folder and
// file/file modes mirror the label batch; input and output may be the same
// path, the write goes through a temp sibling and a rename.
func (c *Cropper) Run(input, output string) (report BatchReport, err error) {
	inInfo, err := os.Stat(input)
	if err != nil {
		return
	}
	outInfo, outErr := os.Stat(output)
	var pairs [][2]string
	if inInfo.IsDir() {
		if outErr == nil && !outInfo.IsDir() {
			err = ErrMixedPathModes
			return
		}
		if err = os.MkdirAll(output, os.ModePerm); err != nil {
			return
		}
		var files []string
		if files, err = listRasters(input); err != nil {
			return
		}
		if len(files) == 0 {
			c.log.Warn(c.logTag+"no tif found under input folder", zap.String("input", input))
		}
		for _, f := range files {
			pairs = append(pairs, [2]string{f, filepath.Join(output, filepath.Base(f))})
		}
	} else {
		if outErr == nil && outInfo.IsDir() {
			err = ErrMixedPathModes
			return
		}
		pairs = [][2]string{{input, output}}
	}
	ext, err := boundaryEnvelope(c.boundary)
	if err != nil {
		return
	}
	for _, p := range pairs {
		if e := c.cropOne(p[0], p[1], ext); e != nil {
			c.log.Error(c.logTag+"crop skipped", zap.String("in", p[0]), zap.Error(e))
			report.Skipped++
			continue
		}
		report.Succeeded++
	}
	c.log.Info(c.logTag+"crop batch done",
		zap.Int("succeeded", report.Succeeded), zap.Int("skipped", report.Skipped))
	return
}

// cropOne cuts in to the boundary extent plus margin, clamped to the raster's
// own bounds and snapped to whole pixels. A window that would be degenerate
// removes any stale output: with aliasing in/out paths, leaving the old file
// in place would pass it off as cropped.
func (c *Cropper) cropOne(in, out string, ext [4]float64) (err error) {
	sds, err := gdal.Open(in, gdal.RasterOnly())
	if err != nil {
		return ErrInvalidTif
	}
	grid, err := ReadGrid(sds)
	if err != nil {
		sds.Close()
		return
	}
	xMin := maxf(ext[0]-c.margin, grid.Bounds[0])
	yMin := maxf(ext[1]-c.margin, grid.Bounds[1])
	xMax := minf(ext[2]+c.margin, grid.Bounds[2])
	yMax := minf(ext[3]+c.margin, grid.Bounds[3])
	xOff := int((xMin - grid.Transform[0]) / grid.Transform[1])
	yOff := int((yMax - grid.Transform[3]) / grid.Transform[5])
	w := int((xMax - xMin) / grid.Transform[1])
	h := int((yMin - yMax) / grid.Transform[5])
	if xOff < 0 || yOff < 0 || w <= 0 || h <= 0 || xOff+w > grid.Width || yOff+h > grid.Height {
		sds.Close()
		os.Remove(out)
		return ErrCropOutOfBounds
	}
	if w < MinCropEdgePx || h < MinCropEdgePx {
		sds.Close()
		os.Remove(out)
		return ErrCropTooSmall
	}
	tmp := utils.TmpSibling(out, c.tmpDir)
	ods, err := sds.Translate(tmp, []string{
		"-srcwin", strconv.Itoa(xOff), strconv.Itoa(yOff), strconv.Itoa(w), strconv.Itoa(h),
		"-co", GTIFF_COMPRESS,
	})
	sds.Close()
	if err != nil {
		c.log.Error(c.logTag+"failed to crop raster", zap.String("in", in), zap.Error(err))
		os.Remove(tmp)
		return
	}
	if err = ods.Close(); err != nil {
		os.Remove(tmp)
		return
	}
	if err = os.Rename(tmp, out); err == nil {
		c.log.Info(c.logTag+"raster cropped", zap.String("out", out),
			zap.Int("width", w), zap.Int("height", h))
	}
	return
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
