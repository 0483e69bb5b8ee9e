package seglabel

import (
	"strconv"
	"strings"
	"sync"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// Labeler turns the polygons of a geometry store into per-raster label images.
// It is safe to reuse across rasters; the store is never mutated after load.
type Labeler struct {
	store  *GeometryStore
	cfg    LabelConfig
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
	log    *zap.Logger
}

// memory objects created by the GDAL C side need an explicit Destroy
type destroyable interface {
	Destroy()
}

// NewLabeler validates cfg before anything is opened. The logger may be nil.
func NewLabeler(store *GeometryStore, cfg LabelConfig, logger *zap.Logger) (l *Labeler, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l = &Labeler{
		store:  store,
		cfg:    cfg,
		refMap: map[int]gdal.SpatialReference{},
		logTag: "Labeler:",
		log:    logger,
	}
	// carving only widens class/class seams then; seams against background
	// pixels are indistinguishable from already-carved ones
	if cfg.BackgroundValue == cfg.IgnoreValue && cfg.BorderSize > 0 {
		l.log.Warn(l.logTag+"background equals ignore, seams against background will not be carved",
			zap.Uint8("value", cfg.IgnoreValue))
	}
	return
}

// SetTmpDir overrides the directory for intermediate files (default: alongside output).
func (l *Labeler) SetTmpDir(dir string) {
	l.tmpDir = dir
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (l *Labeler) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	l.rLock.Lock()
	defer l.rLock.Unlock()
	ref, ok := l.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		l.log.Error(l.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	l.refMap[srid] = ref
	return
}

func sridOf(sp gdal.SpatialReference) (srid int, err error) {
	wkt, _ := sp.ToWKT()
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		if strings.Contains(wkt, "ETRS89_UTM_zone_32N") {
			rawId = strconv.Itoa(MERGE_SRID)
		} else {
			err = ErrVoidSrid
			return
		}
	}
	srid, err = strconv.Atoi(rawId)
	return
}
