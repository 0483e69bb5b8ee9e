package seglabel

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/geodata-dk/seglabel/utils"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// Run labels every raster found under input and writes the results under
// output. Both paths are either folders (recursive batch) or plain files
// (single-item batch). A raster that cannot be read is logged and skipped;
// dataset folders commonly contain a few corrupt tiles.
func (l *Labeler) Run(input, output string) (report BatchReport, err error) {
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
			l.log.Warn(l.logTag+"no tif found under input folder", zap.String("input", input))
		}
		for _, f := range files {
			pairs = append(pairs, [2]string{f, filepath.Join(output, filepath.Base(f))})
		}
	} else {
		if outErr == nil && outInfo.IsDir() {
			err = ErrMixedPathModes
			return
		}
		if err = os.MkdirAll(filepath.Dir(output), os.ModePerm); err != nil {
			return
		}
		pairs = [][2]string{{input, output}}
	}
	for _, p := range pairs {
		if e := l.processOne(p[0], p[1]); e != nil {
			l.log.Error(l.logTag+"raster skipped", zap.String("in", p[0]), zap.Error(e))
			report.Skipped++
			continue
		}
		report.Succeeded++
	}
	l.log.Info(l.logTag+"batch done",
		zap.Int("succeeded", report.Succeeded), zap.Int("skipped", report.Skipped))
	return
}

func listRasters(root string) (files []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case FILE_EXT_TIF, FILE_EXT_TIFF:
			files = append(files, path)
		}
		return nil
	})
	return
}

func (l *Labeler) processOne(in, out string) (err error) {
	l.log.Info(l.logTag+"processing raster", zap.String("in", in))
	sds, err := gdal.Open(in, gdal.RasterOnly())
	if err != nil {
		l.log.Error(l.logTag+"open tif failed", zap.String("in", in), zap.Error(err))
		return ErrInvalidTif
	}
	grid, err := ReadGrid(sds)
	sds.Close()
	if err != nil {
		return
	}
	labels, err := l.BuildLabelArray(grid)
	if err != nil {
		return
	}
	return l.writeLabels(out, grid, labels)
}

// writeLabels persists one label array as a single-band uint8 GTiff sharing
// the source georeferencing, with nodata set to the ignore value. The profile
// is built from scratch, so multi-band-only compression or colorimetry
// entries of the source can never leak into the single-band output. The file
// is written to a temp sibling and renamed into place, so a failed run never
// leaves a partial output and out may alias an existing file.
func (l *Labeler) writeLabels(out string, grid GridDescriptor, labels []uint8) (err error) {
	tmp := utils.TmpSibling(out, l.tmpDir)
	ds, err := gdal.Create(gdal.GTiff, tmp, 1, gdal.Byte, grid.Width, grid.Height,
		gdal.CreationOption(GTIFF_COMPRESS))
	if err != nil {
		l.log.Error(l.logTag+"create label tif failed", zap.String("out", out), zap.Error(err))
		return
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = ds.SetGeoTransform(grid.Transform); err != nil {
		ds.Close()
		return
	}
	if grid.Projection != "" {
		if err = ds.SetProjection(grid.Projection); err != nil {
			ds.Close()
			return
		}
	}
	if err = ds.SetNoData(float64(l.cfg.IgnoreValue)); err != nil {
		ds.Close()
		return
	}
	if err = ds.Bands()[0].Write(0, 0, labels, grid.Width, grid.Height); err != nil {
		ds.Close()
		return
	}
	if err = ds.Close(); err != nil {
		return
	}
	if err = os.Rename(tmp, out); err == nil {
		l.log.Info(l.logTag+"label tif written", zap.String("out", out))
	}
	return
}
