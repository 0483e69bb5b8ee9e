package seglabel

import (
	"sort"

	gdal "github.com/airbusgeo/godal"
	ogr "github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// BuildLabelArray computes the label image for one raster grid. It touches no
// files: polygons are burned into an in-memory dataset matching the grid, then
// the unknown border is carved out of the returned array.
func (l *Labeler) BuildLabelArray(grid GridDescriptor) (labels []uint8, err error) {
	labels = make([]uint8, grid.Width*grid.Height)
	cands, err := l.intersecting(grid)
	if err != nil {
		labels = nil
		return
	}
	if len(cands) == 0 {
		// a tile with no labeled content is a valid all-background tile
		l.log.Info(l.logTag+"no polygon intersects grid", zap.Float64s("bounds", grid.Bounds[:]))
		fill(labels, l.cfg.BackgroundValue)
		return
	}
	// smaller polygons are burned last so the more specific class wins overlaps
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Area > cands[j].Area
	})
	if err = l.burn(grid, cands, labels); err != nil {
		labels = nil
		return
	}
	carved := CarveUnknownBorder(labels, grid.Width, grid.Height,
		grid.BorderPixels(l.cfg.BorderSize), l.cfg.IgnoreValue)
	l.log.Info(l.logTag+"label array built",
		zap.Int("polygons", len(cands)),
		zap.Int("carved", carved),
		zap.Any("histogram", labelHistogram(labels)))
	return
}

// intersecting selects the store polygons whose geometry intersects the grid's
// bounding box: a cheap envelope reject, then an exact intersection test.
func (l *Labeler) intersecting(grid GridDescriptor) (cands []LabelPolygon, err error) {
	ref, err := l.getSridRef(l.store.Srid)
	if err != nil {
		return
	}
	bbox, err := ogr.CreateFromWKT(grid.BoundsWkt(), ref)
	if err != nil {
		l.log.Error(l.logTag+"parse bounds wkt failed", zap.Error(err))
		return
	}
	defer bbox.Destroy()
	var (
		geo ogr.Geometry
		e   error
	)
	for i := range l.store.Polys {
		p := &l.store.Polys[i]
		if p.Envelope[0] > grid.Bounds[2] || p.Envelope[1] < grid.Bounds[0] ||
			p.Envelope[2] > grid.Bounds[3] || p.Envelope[3] < grid.Bounds[1] {
			continue
		}
		if geo, e = ogr.CreateFromWKB(p.Geom, ref, len(p.Geom)); e != nil {
			l.log.Error(l.logTag+"parse polygon wkb failed", zap.Error(e))
			continue
		}
		if geo.Intersects(bbox) {
			cands = append(cands, *p)
		}
		geo.Destroy()
	}
	return
}

// burn rasterizes the candidates in order into labels over the grid's
// transform. Center-point coverage only: a partially covered pixel keeps the
// background value rather than over-counting boundary pixels as class members.
func (l *Labeler) burn(grid GridDescriptor, cands []LabelPolygon, labels []uint8) (err error) {
	mem, err := gdal.Create(gdal.Memory, "", 1, gdal.Byte, grid.Width, grid.Height)
	if err != nil {
		l.log.Error(l.logTag+"create mem dataset failed", zap.Error(err))
		return
	}
	defer mem.Close()
	if err = mem.SetGeoTransform(grid.Transform); err != nil {
		return
	}
	band := mem.Bands()[0]
	if err = band.Fill(float64(l.cfg.BackgroundValue), 0); err != nil {
		return
	}
	var geom *gdal.Geometry
	for _, p := range cands {
		if geom, err = gdal.NewGeometryFromWKB(p.Geom, nil); err != nil {
			l.log.Error(l.logTag+"geometry from wkb failed", zap.Error(err))
			return
		}
		err = mem.RasterizeGeometry(geom, gdal.Values(float64(p.Class)))
		geom.Close()
		if err != nil {
			l.log.Error(l.logTag+"rasterize geometry failed", zap.Error(err))
			return
		}
	}
	return band.Read(0, 0, labels, grid.Width, grid.Height)
}

func fill(buf []uint8, v uint8) {
	for i := range buf {
		buf[i] = v
	}
}

// labelHistogram counts the pixels per label value, logged for every
// produced tile.
func labelHistogram(labels []uint8) map[uint8]int {
	hist := map[uint8]int{}
	for _, v := range labels {
		hist[v]++
	}
	return hist
}
