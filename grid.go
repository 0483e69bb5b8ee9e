package seglabel

import (
	"fmt"
	"math"

	gdal "github.com/airbusgeo/godal"
)

// GridDescriptor is the georeferencing of one raster: shape, affine pixel
// transform and derived bounds. It carries no pixel data, so the label build
// can run against in-memory descriptors.
type GridDescriptor struct {
	Width      int
	Height     int
	Transform  [6]float64 // GDAL order: originX, xres, rot, originY, rot, -yres
	Bounds     [4]float64 // minX, minY, maxX, maxY
	Projection string     // WKT, copied verbatim to outputs
}

// ReadGrid extracts a descriptor from an opened raster dataset.
// Rotated grids are rejected: the pixel border width below is only an
// isotropic distance on axis-aligned transforms.
func ReadGrid(ds *gdal.Dataset) (grid GridDescriptor, err error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return
	}
	if gt[2] != 0 || gt[4] != 0 {
		err = ErrRotatedGrid
		return
	}
	bounds, err := ds.Bounds()
	if err != nil {
		return
	}
	st := ds.Structure()
	grid = GridDescriptor{
		Width:      st.SizeX,
		Height:     st.SizeY,
		Transform:  gt,
		Bounds:     bounds,
		Projection: ds.Projection(),
	}
	return
}

// MeanResolution is the per-axis mean pixel size in ground units.
func (g GridDescriptor) MeanResolution() float64 {
	return (math.Abs(g.Transform[1]) + math.Abs(g.Transform[5])) / 2
}

// BorderPixels converts a ground-unit border width to a pixel distance.
func (g GridDescriptor) BorderPixels(groundUnits float64) float64 {
	return groundUnits / g.MeanResolution()
}

// BoundsWkt renders the grid's bounding box as a polygon WKT.
func (g GridDescriptor) BoundsWkt() string {
	return SpanToWkt([4]float64{g.Bounds[0], g.Bounds[2], g.Bounds[1], g.Bounds[3]})
}

func PointsToWkt(x1, x2, y1, y2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", x1, x2, y1, y2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}
