package seglabel

import "errors"

var (
	ErrGdalDriverOpen      = errors.New("gdal driver open err")
	ErrVoidSrid            = errors.New("vector layer with void srid")
	ErrInvalidClassValue   = errors.New("class attribute not in uint8 range")
	ErrConfigModeConflict  = errors.New("exactly one of attribute and constant class must be set")
	ErrBackgroundCollision = errors.New("background value equals the constant class value")
	ErrNegativeBorder      = errors.New("unknown border size must not be negative")
	ErrInvalidTif          = errors.New("invalid tif")
	ErrTifReadFailed       = errors.New("tif read failed")
	ErrRotatedGrid         = errors.New("raster grid transform is not axis aligned")
	ErrEmptyMergeInput     = errors.New("no readable probability raster")
	ErrShapeMismatch       = errors.New("probability raster shape mismatch")
	ErrEmptyBoundary       = errors.New("boundary shapefile has no polygon")
	ErrCropOutOfBounds     = errors.New("crop window outside raster bounds")
	ErrCropTooSmall        = errors.New("crop window below minimum size")
	ErrMixedPathModes      = errors.New("input and output must both be folders or both be files")
)
