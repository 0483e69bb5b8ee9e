package seglabel

import (
	"os"
	"path/filepath"
	"time"

	"github.com/geodata-dk/seglabel/utils"

	gdal "github.com/airbusgeo/godal"
	ogr "github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// Merger folds per-class probability mosaics of one tile into a single
// predicted-class raster.
type Merger struct {
	tmpDir string
	logTag string
	log    *zap.Logger
}

func NewMerger(logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{logTag: "Merger:", log: logger}
}

func (m *Merger) SetTmpDir(dir string) {
	m.tmpDir = dir
}

// MergeProbabilities sums the equally-shaped multi-band probability rasters
// under inputDir band by band, takes the per-pixel argmax over the summed
// bands as the predicted class, and writes it as a uint8 GTiff anchored to the
// boundary shapefile's upper-left corner at the given ground resolution.
// Output placement depends entirely on the boundary matching the true tile
// extent; input georeferencing is never consulted. Unreadable inputs are
// logged and contribute nothing to the sum.
func (m *Merger) MergeProbabilities(inputDir, boundaryShp, out string, resolution float64) (report MergeReport, err error) {
	if resolution <= 0 {
		resolution = MergeResolution
	}
	ulX, ulY, err := m.boundaryUpperLeft(boundaryShp)
	if err != nil {
		return
	}
	files, err := listRasters(inputDir)
	if err != nil {
		return
	}
	start := time.Now()
	var (
		sums [][]float64
		w, h int
	)
	for _, f := range files {
		bands, bw, bh, e := readProbBands(f)
		if e != nil {
			m.log.Error(m.logTag+"probability raster skipped", zap.String("in", f), zap.Error(e))
			report.Skipped++
			continue
		}
		if sums == nil {
			sums = bands
			w, h = bw, bh
			report.Summed++
			continue
		}
		if bw != w || bh != h || len(bands) != len(sums) {
			m.log.Error(m.logTag+"probability raster skipped", zap.String("in", f), zap.Error(ErrShapeMismatch))
			report.Skipped++
			continue
		}
		for b := range sums {
			accumulate(sums[b], bands[b])
		}
		report.Summed++
	}
	if sums == nil {
		err = ErrEmptyMergeInput
		return
	}
	pred := argmaxLabels(sums)
	m.log.Info(m.logTag+"probability rasters summed",
		zap.Int("summed", report.Summed), zap.Int("skipped", report.Skipped),
		zap.Int("classes", len(sums)), zap.Duration("elapsed", time.Since(start)))
	err = m.savePrediction(out, pred, w, h, ulX, ulY, resolution)
	return
}

// boundaryUpperLeft reads the upper-left corner coordinate of the area the
// merge covers from the first polygon of a boundary shapefile.
func (m *Merger) boundaryUpperLeft(shp string) (x, y float64, err error) {
	ext, err := boundaryEnvelope(shp)
	if err != nil {
		m.log.Error(m.logTag+"read boundary shp failed", zap.String("shp", shp), zap.Error(err))
		return
	}
	x, y = ext[0], ext[3]
	return
}

// boundaryEnvelope reads the extent (minX, minY, maxX, maxY) of the first
// polygon of a boundary shapefile.
func boundaryEnvelope(shp string) (ext [4]float64, err error) {
	driver := ogr.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	feature := layer.NextFeature()
	if feature == nil {
		err = ErrEmptyBoundary
		return
	}
	defer feature.Destroy()
	env := feature.Geometry().Envelope()
	ext = [4]float64{env.MinX(), env.MinY(), env.MaxX(), env.MaxY()}
	return
}

func readProbBands(tif string) (bands [][]float64, w, h int, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	st := sds.Structure()
	w, h = st.SizeX, st.SizeY
	bands = make([][]float64, st.NBands)
	for i, band := range sds.Bands() {
		bands[i] = make([]float64, w*h)
		if err = band.Read(0, 0, bands[i], w, h); err != nil {
			bands = nil
			err = ErrTifReadFailed
			return
		}
	}
	return
}

func accumulate(sum, add []float64) {
	for i, v := range add {
		sum[i] += v
	}
}

// argmaxLabels picks, per pixel, the index of the maximum-summed band. Ties
// resolve to the lowest band index.
func argmaxLabels(sums [][]float64) []uint8 {
	pred := make([]uint8, len(sums[0]))
	for i := range pred {
		best := sums[0][i]
		for b := 1; b < len(sums); b++ {
			if sums[b][i] > best {
				best = sums[b][i]
				pred[i] = uint8(b)
			}
		}
	}
	return pred
}

func (m *Merger) savePrediction(out string, pred []uint8, w, h int, ulX, ulY, resolution float64) (err error) {
	if err = os.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
		return
	}
	tmp := utils.TmpSibling(out, m.tmpDir)
	ds, err := gdal.Create(gdal.GTiff, tmp, 1, gdal.Byte, w, h,
		gdal.CreationOption(GTIFF_COMPRESS))
	if err != nil {
		m.log.Error(m.logTag+"create prediction tif failed", zap.String("out", out), zap.Error(err))
		return
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = ds.SetGeoTransform([6]float64{ulX, resolution, 0, ulY, 0, -resolution}); err != nil {
		ds.Close()
		return
	}
	sr, err := gdal.NewSpatialRefFromEPSG(MERGE_SRID)
	if err != nil {
		ds.Close()
		return
	}
	err = ds.SetSpatialRef(sr)
	sr.Close()
	if err != nil {
		ds.Close()
		return
	}
	if err = ds.Bands()[0].Write(0, 0, pred, w, h); err != nil {
		ds.Close()
		return
	}
	if err = ds.Close(); err != nil {
		return
	}
	if err = os.Rename(tmp, out); err == nil {
		m.log.Info(m.logTag+"prediction tif written", zap.String("out", out))
	}
	return
}
