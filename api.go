package seglabel

// GdalGeo is a geometry serialized as WKB
type GdalGeo = []byte

// 标注多边形 record of the geometry store
type LabelPolygon struct {
	Geom     GdalGeo    // polygon/multipolygon WKB
	Class    uint8      // burn value
	Area     float64    // planar area, used only for priority ordering
	Envelope [4]float64 // minX, maxX, minY, maxY
}

// LabelConfig selects the class-assignment mode and the reserved pixel values.
// Exactly one of Attribute and ConstantClass must be set.
type LabelConfig struct {
	Attribute       string  // class attribute column of the vector layer
	ConstantClass   int     // fixed class for every polygon; <0 means unset
	BackgroundValue uint8   // value of pixels covered by no polygon
	IgnoreValue     uint8   // value of carved border pixels, also output nodata
	BorderSize      float64 // unknown border width, ground units
}

// Constant reports whether constant-class mode is active.
func (c LabelConfig) Constant() bool {
	return c.ConstantClass >= 0
}

// Validate checks the mode XOR rule and the value collision rule.
// It must pass before any raster is opened.
func (c LabelConfig) Validate() error {
	if c.Constant() == (c.Attribute != "") {
		return ErrConfigModeConflict
	}
	if c.Constant() {
		if c.ConstantClass > 255 {
			return ErrInvalidClassValue
		}
		if uint8(c.ConstantClass) == c.BackgroundValue {
			return ErrBackgroundCollision
		}
	}
	if c.BorderSize < 0 {
		return ErrNegativeBorder
	}
	return nil
}

// BatchReport sums up a batch labeling run.
type BatchReport struct {
	Succeeded int
	Skipped   int
}

// MergeReport sums up a probability merge.
type MergeReport struct {
	Summed  int
	Skipped int
}
