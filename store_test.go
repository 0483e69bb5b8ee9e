package seglabel

// GDAL-backed like the build tests: a small GeoPackage is written through the
// OGR driver into a temp dir and loaded back.

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	ogr "github.com/lukeroth/gdal"
)

const testAttr = "class"

// writeGpkg creates a one-layer GeoPackage with a class field of the given
// type and one unit-box polygon per setter, at x offset = row index. A nil
// setter leaves the class field unset for that row.
func writeGpkg(t *testing.T, ft ogr.FieldType, setters []func(ogr.Feature, int)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.gpkg")
	driver := ogr.OGRDriverByName(GPKG_DRIVER_NAME)
	ds, ok := driver.Create(path, nil)
	if !ok {
		t.Fatal("create geopackage failed")
	}
	defer ds.Destroy()
	ref := ogr.CreateSpatialReference("")
	if err := ref.FromEPSG(MERGE_SRID); err != nil {
		t.Fatal(err)
	}
	layer := ds.CreateLayer("labels", ref, ogr.GT_Polygon, nil)
	if err := layer.CreateField(ogr.CreateFieldDefinition(testAttr, ft), false); err != nil {
		t.Fatal(err)
	}
	def := layer.Definition()
	idx := def.FieldIndex(testAttr)
	if idx < 0 {
		t.Fatal("class field not created")
	}
	for i, set := range setters {
		feature := def.Create()
		if set != nil {
			set(feature, idx)
		}
		x := float64(i)
		geo, err := ogr.CreateFromWKT(SpanToWkt([4]float64{x, x + 1, 0, 1}), ref)
		if err != nil {
			t.Fatal(err)
		}
		if err = feature.SetGeometryDirectly(geo); err != nil {
			t.Fatal(err)
		}
		if err = layer.Create(feature); err != nil {
			t.Fatal(err)
		}
		feature.Destroy()
	}
	return path
}

func TestLoadStoreByAttribute(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Integer, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldInteger(idx, 3) },
		nil, // null class: dropped and counted, not fatal
		func(f ogr.Feature, idx int) { f.SetFieldInteger(idx, 7) },
	})
	cfg := LabelConfig{Attribute: testAttr, ConstantClass: UnsetConstant}
	store, err := LoadGeometryStore(gpkg, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 2 {
		t.Fatalf("polygons = %d, want 2", store.Len())
	}
	if store.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", store.Dropped)
	}
	if store.Srid != MERGE_SRID {
		t.Fatalf("srid = %d, want %d", store.Srid, MERGE_SRID)
	}
	if store.Polys[0].Class != 3 || store.Polys[1].Class != 7 {
		t.Fatalf("classes = %d, %d, want 3, 7", store.Polys[0].Class, store.Polys[1].Class)
	}
	// second kept polygon is the third feature, the unit box at x=2
	if env := store.Polys[1].Envelope; env != [4]float64{2, 3, 0, 1} {
		t.Fatalf("envelope = %v", env)
	}
	if a := store.Polys[0].Area; a != 1 {
		t.Fatalf("area = %v, want 1", a)
	}
}

func TestLoadStoreConstantMode(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Integer, []func(ogr.Feature, int){nil, nil})
	cfg := LabelConfig{ConstantClass: 5, BackgroundValue: 1}
	store, err := LoadGeometryStore(gpkg, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 2 || store.Dropped != 0 {
		t.Fatalf("polygons = %d, dropped = %d, want 2, 0", store.Len(), store.Dropped)
	}
	for _, p := range store.Polys {
		if p.Class != 5 {
			t.Fatalf("class = %d, want 5", p.Class)
		}
	}
}

func TestLoadStoreMissingColumn(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Integer, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldInteger(idx, 1) },
	})
	cfg := LabelConfig{Attribute: "no_such_column", ConstantClass: UnsetConstant}
	store, err := LoadGeometryStore(gpkg, cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "no_such_column") {
		t.Fatalf("err = %v, want missing column error", err)
	}
	if store != nil {
		t.Fatal("store must be nil on error")
	}
}

func TestLoadStoreClassOutOfRange(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Integer, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldInteger(idx, 300) },
	})
	cfg := LabelConfig{Attribute: testAttr, ConstantClass: UnsetConstant}
	store, err := LoadGeometryStore(gpkg, cfg, nil)
	if !errors.Is(err, ErrInvalidClassValue) {
		t.Fatalf("err = %v, want ErrInvalidClassValue", err)
	}
	if store != nil {
		t.Fatal("store must be nil on error")
	}
}

func TestLoadStoreNonIntegralReal(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Real, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldFloat64(idx, 2.5) },
	})
	cfg := LabelConfig{Attribute: testAttr, ConstantClass: UnsetConstant}
	_, err := LoadGeometryStore(gpkg, cfg, nil)
	if !errors.Is(err, ErrInvalidClassValue) {
		t.Fatalf("err = %v, want ErrInvalidClassValue", err)
	}
}

func TestLoadStoreIntegralReal(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_Real, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldFloat64(idx, 4.0) },
	})
	cfg := LabelConfig{Attribute: testAttr, ConstantClass: UnsetConstant}
	store, err := LoadGeometryStore(gpkg, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 || store.Polys[0].Class != 4 {
		t.Fatalf("polygons = %d, class = %d, want 1, 4", store.Len(), store.Polys[0].Class)
	}
}

func TestLoadStoreNonNumericString(t *testing.T) {
	gpkg := writeGpkg(t, ogr.FT_String, []func(ogr.Feature, int){
		func(f ogr.Feature, idx int) { f.SetFieldString(idx, "roadway") },
	})
	cfg := LabelConfig{Attribute: testAttr, ConstantClass: UnsetConstant}
	_, err := LoadGeometryStore(gpkg, cfg, nil)
	if !errors.Is(err, ErrInvalidClassValue) {
		t.Fatalf("err = %v, want ErrInvalidClassValue", err)
	}
}
