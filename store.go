package seglabel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geodata-dk/seglabel/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// GeometryStore holds the loaded label polygons. It is filled once by
// LoadGeometryStore and read-only afterwards, shared across all rasters.
type GeometryStore struct {
	Polys   []LabelPolygon
	Srid    int
	Dropped int // rows dropped for a missing class attribute
}

func (s *GeometryStore) Len() int {
	return len(s.Polys)
}

// LoadGeometryStore reads the polygon layer of a GeoPackage and normalizes it
// against cfg. In attribute mode, rows with a null class attribute are dropped
// (counted, not fatal), while values outside the uint8 range or non-numeric
// strings abort the load: clipping class ids would silently corrupt labels.
func LoadGeometryStore(gpkg string, cfg LabelConfig, logger *zap.Logger) (store *GeometryStore, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	const logTag = "GeometryStore:"
	driver := gdal.OGRDriverByName(GPKG_DRIVER_NAME)
	ds, ok := driver.Open(gpkg, 0)
	if !ok {
		logger.Error(logTag+"open geopackage failed", zap.String("path", gpkg))
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	srid, err := sridOf(layer.SpatialReference())
	if err != nil {
		return
	}
	def := layer.Definition()
	classIdx := -1
	if !cfg.Constant() {
		if classIdx = findField(def, cfg.Attribute); classIdx < 0 {
			err = fmt.Errorf(ErrColumnMissingTemplate, cfg.Attribute)
			return
		}
	}
	store = &GeometryStore{
		Polys: make([]LabelPolygon, 0, 128),
		Srid:  srid,
	}
	var (
		feature *gdal.Feature
		geo     gdal.Geometry
		wkb     []byte
		class   uint8
		e       error
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if cfg.Constant() {
			class = uint8(cfg.ConstantClass)
		} else {
			if !feature.IsFieldSet(classIdx) {
				store.Dropped++
				continue
			}
			if class, err = classValue(def, *feature, classIdx, cfg.Attribute); err != nil {
				store = nil
				return
			}
		}
		geo = feature.Geometry()
		wkb, e = geo.ToWKB()
		if e != nil {
			logger.Error(logTag+"err in wkb convert", zap.Error(e))
			continue
		}
		env := geo.Envelope()
		store.Polys = append(store.Polys, LabelPolygon{
			Geom:     wkb,
			Class:    class,
			Area:     geo.Area(),
			Envelope: [4]float64{env.MinX(), env.MaxX(), env.MinY(), env.MaxY()},
		})
	}
	if store.Dropped > 0 {
		logger.Info(logTag+"dropped rows with missing class attribute",
			zap.String("attribute", cfg.Attribute), zap.Int("dropped", store.Dropped))
	}
	logger.Info(logTag+"geopackage loaded", zap.String("path", gpkg),
		zap.Int("polygons", store.Len()), zap.Int("srid", srid))
	return
}

// findField resolves a column by name. Field names of legacy ESRI-produced
// layers may be Windows-1252 encoded (danish names like BEFÆSTELSE), so a
// second pass compares after decoding to UTF-8.
func findField(def gdal.FeatureDefinition, name string) int {
	if idx := def.FieldIndex(name); idx >= 0 {
		return idx
	}
	for i, n := 0, def.FieldCount(); i < n; i++ {
		raw := def.FieldDefinition(i).Name()
		if dec, e := utils.Win1252ToUtf8Str(raw); e == nil && dec == name {
			return i
		}
	}
	return -1
}

// classValue coerces one feature's class attribute to uint8.
func classValue(def gdal.FeatureDefinition, feature gdal.Feature, idx int, attr string) (class uint8, err error) {
	fail := func(raw string) error {
		return fmt.Errorf("%w: "+ErrClassValueTemplate, ErrInvalidClassValue, attr, feature.FID(), raw)
	}
	switch def.FieldDefinition(idx).Type() {
	case gdal.FT_Integer, gdal.FT_Integer64:
		v := feature.FieldAsInteger64(idx)
		if v < 0 || v > 255 {
			err = fail(strconv.FormatInt(v, 10))
			return
		}
		class = uint8(v)
	case gdal.FT_Real:
		f := feature.FieldAsFloat64(idx)
		v := int64(f)
		if float64(v) != f || v < 0 || v > 255 {
			err = fail(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		class = uint8(v)
	default:
		raw := strings.TrimSpace(feature.FieldAsString(idx))
		v, e := strconv.ParseUint(raw, 10, 8)
		if e != nil {
			err = fail(raw)
			return
		}
		class = uint8(v)
	}
	return
}
