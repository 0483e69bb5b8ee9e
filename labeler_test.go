package seglabel

// These tests exercise the GDAL-backed build path and need the GDAL/PROJ
// runtime libraries; the pure-Go carving and merge logic is covered by the
// hermetic tests alongside.

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	gdal "github.com/airbusgeo/godal"
)

func TestMain(m *testing.M) {
	gdal.RegisterAll()
	os.Exit(m.Run())
}

func wkbBox(minX, minY, maxX, maxY float64) GdalGeo {
	buf := new(bytes.Buffer)
	buf.WriteByte(1) // little endian
	binary.Write(buf, binary.LittleEndian, uint32(3))
	binary.Write(buf, binary.LittleEndian, uint32(1))
	pts := [5][2]float64{
		{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(pts)))
	for _, p := range pts {
		binary.Write(buf, binary.LittleEndian, p[0])
		binary.Write(buf, binary.LittleEndian, p[1])
	}
	return buf.Bytes()
}

func boxPoly(minX, minY, maxX, maxY float64, class uint8) LabelPolygon {
	return LabelPolygon{
		Geom:     wkbBox(minX, minY, maxX, maxY),
		Class:    class,
		Area:     (maxX - minX) * (maxY - minY),
		Envelope: [4]float64{minX, maxX, minY, maxY},
	}
}

func testGrid() GridDescriptor {
	return GridDescriptor{
		Width:     10,
		Height:    10,
		Transform: [6]float64{0, 1, 0, 10, 0, -1},
		Bounds:    [4]float64{0, 0, 10, 10},
	}
}

func TestOverlapPriority(t *testing.T) {
	big := boxPoly(0, 0, 10, 10, 1)
	small := boxPoly(3, 3, 7, 7, 2)
	cfg := LabelConfig{Attribute: "class", ConstantClass: UnsetConstant}
	for name, polys := range map[string][]LabelPolygon{
		"big first":   {big, small},
		"small first": {small, big},
	} {
		store := &GeometryStore{Polys: polys, Srid: 25832}
		l, err := NewLabeler(store, cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		labels, err := l.BuildLabelArray(testGrid())
		if err != nil {
			t.Fatal(err)
		}
		// the smaller polygon is burned last and wins everywhere it covers
		if got := labels[5*10+5]; got != 2 {
			t.Fatalf("%s: pixel inside small polygon = %d, want 2", name, got)
		}
		if got := labels[1*10+1]; got != 1 {
			t.Fatalf("%s: pixel outside small polygon = %d, want 1", name, got)
		}
	}
}

func TestEmptyIntersection(t *testing.T) {
	store := &GeometryStore{
		Polys: []LabelPolygon{boxPoly(100, 100, 110, 110, 3)},
		Srid:  25832,
	}
	cfg := LabelConfig{Attribute: "class", ConstantClass: UnsetConstant, BackgroundValue: 1}
	l, err := NewLabeler(store, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	labels, err := l.BuildLabelArray(testGrid())
	if err != nil {
		t.Fatal(err)
	}
	if n := countValue(labels, 1); n != len(labels) {
		t.Fatalf("background pixels = %d, want %d", n, len(labels))
	}
}

func TestBuildWithBorder(t *testing.T) {
	// one polygon covering the left half: expect a carved vertical band on
	// the seam, class on the left, background on the right
	store := &GeometryStore{
		Polys: []LabelPolygon{boxPoly(0, 0, 5, 10, 3)},
		Srid:  25832,
	}
	cfg := LabelConfig{
		Attribute:       "class",
		ConstantClass:   UnsetConstant,
		BackgroundValue: 1,
		IgnoreValue:     0,
		BorderSize:      1, // one pixel at this grid's resolution
	}
	l, err := NewLabeler(store, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	labels, err := l.BuildLabelArray(testGrid())
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 10; y++ {
		if got := labels[y*10+1]; got != 3 {
			t.Fatalf("left half pixel (1,%d) = %d, want 3", y, got)
		}
		if got := labels[y*10+8]; got != 1 {
			t.Fatalf("right half pixel (8,%d) = %d, want 1", y, got)
		}
		if got := labels[y*10+4]; got != 0 {
			t.Fatalf("seam pixel (4,%d) = %d, want 0", y, got)
		}
		if got := labels[y*10+5]; got != 0 {
			t.Fatalf("seam pixel (5,%d) = %d, want 0", y, got)
		}
	}
}
