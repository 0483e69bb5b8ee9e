package seglabel

const (
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_TIFF = ".tiff"
	FILE_EXT_SHP  = ".shp"

	GPKG_DRIVER_NAME = "GPKG"
	SHP_DRIVER_NAME  = "ESRI Shapefile"

	DefaultBorderSize = 0.1
	DefaultBackground = 0
	DefaultIgnore     = 0

	// merge outputs are anchored to the boundary geometry, not to any input
	MERGE_SRID      = 25832
	MergeResolution = 0.1
	MinCropEdgePx   = 16
	UnsetConstant   = -1
	GTIFF_COMPRESS  = "COMPRESS=LZW"

	ErrColumnMissingTemplate = "vector layer has no [%s] column"
	ErrClassValueTemplate    = "class attribute [%s] not a uint8 on feature %d: %q"
)
