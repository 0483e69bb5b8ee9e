package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/geodata-dk/seglabel"

	gdal "github.com/airbusgeo/godal"
	"github.com/go-ini/ini"
	"go.uber.org/zap"
)

const usage = `usage: seglabel <command> [flags]

commands:
  label   rasterize geopackage polygons into per-image label tifs
  merge   sum probability tifs over one tile and write the argmax prediction
  crop    crop tifs to a boundary shapefile extent
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	gdal.RegisterAll()

	switch os.Args[1] {
	case "label":
		err = runLabel(os.Args[2:], logger)
	case "merge":
		err = runMerge(os.Args[2:], logger)
	case "crop":
		err = runCrop(os.Args[2:], logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func runLabel(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	var (
		cfgFile    = fs.String("config", "", "optional dataset config .ini; flags override its keys")
		gpkg       = fs.String("geopackage", "", "input GeoPackage with the label polygons")
		input      = fs.String("input", "", "folder of reference tifs, or one tif")
		output     = fs.String("output", "", "output folder, or one output tif")
		attribute  = fs.String("attribute", "", "polygon attribute column holding the class value")
		constant   = fs.Int("value", seglabel.UnsetConstant, "constant class value used for all polygons")
		background = fs.Uint("background", seglabel.DefaultBackground, "label value of unlabeled pixels")
		ignore     = fs.Uint("ignore", seglabel.DefaultIgnore, "label value of carved border pixels, also output nodata")
		border     = fs.Float64("border", seglabel.DefaultBorderSize, "unknown border width in ground units")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgFile != "" {
		if err := applyIni(*cfgFile, fs); err != nil {
			return err
		}
	}
	if *gpkg == "" || *input == "" || *output == "" {
		fs.Usage()
		return fmt.Errorf("geopackage, input and output are required")
	}
	if *background > 255 || *ignore > 255 {
		return fmt.Errorf("background and ignore values must fit uint8")
	}
	cfg := seglabel.LabelConfig{
		Attribute:       *attribute,
		ConstantClass:   *constant,
		BackgroundValue: uint8(*background),
		IgnoreValue:     uint8(*ignore),
		BorderSize:      *border,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, err := seglabel.LoadGeometryStore(*gpkg, cfg, logger)
	if err != nil {
		return err
	}
	labeler, err := seglabel.NewLabeler(store, cfg, logger)
	if err != nil {
		return err
	}
	report, err := labeler.Run(*input, *output)
	fmt.Printf("labeled %d raster(s), skipped %d\n", report.Succeeded, report.Skipped)
	return err
}

func runMerge(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	var (
		input      = fs.String("input", "", "folder of cropped probability tifs for one tile")
		boundary   = fs.String("boundary", "", "shapefile defining the tile extent")
		output     = fs.String("output", "", "output prediction tif")
		resolution = fs.Float64("resolution", seglabel.MergeResolution, "output ground resolution, units per pixel")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *boundary == "" || *output == "" {
		fs.Usage()
		return fmt.Errorf("input, boundary and output are required")
	}
	report, err := seglabel.NewMerger(logger).MergeProbabilities(*input, *boundary, *output, *resolution)
	fmt.Printf("summed %d raster(s), skipped %d\n", report.Summed, report.Skipped)
	return err
}

func runCrop(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	var (
		input    = fs.String("input", "", "folder of tifs, or one tif")
		boundary = fs.String("boundary", "", "shapefile defining the crop extent")
		output   = fs.String("output", "", "output folder, or one output tif (may equal input)")
		margin   = fs.Float64("margin", 50, "extra ground units kept around the boundary extent")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *boundary == "" || *output == "" {
		fs.Usage()
		return fmt.Errorf("input, boundary and output are required")
	}
	report, err := seglabel.NewCropper(*boundary, *margin, logger).Run(*input, *output)
	fmt.Printf("cropped %d raster(s), skipped %d\n", report.Succeeded, report.Skipped)
	return err
}

// applyIni folds a dataset config .ini into fs. Section names carry no
// meaning, all sections are flattened. Flags given on the command line keep
// priority; a key appearing in more than one section is an error.
func applyIni(path string, fs *flag.FlagSet) error {
	file, err := ini.Load(path)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	seen := map[string]bool{}
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			name, ok := iniFlag[key.Name()]
			if !ok {
				continue
			}
			if seen[name] {
				return fmt.Errorf("duplicate key %q found in multiple sections", key.Name())
			}
			seen[name] = true
			if set[name] {
				continue
			}
			if err = fs.Set(name, key.Value()); err != nil {
				return fmt.Errorf("config key %q: %w", key.Name(), err)
			}
		}
	}
	return nil
}

// iniFlag maps the legacy dataset-config keys onto label flags.
var iniFlag = map[string]string{
	"images_that_define_areas_to_create_labels_for": "input",

	"geopackage":                  "geopackage",
	"mask_folder":                 "output",
	"attribute":                   "attribute",
	"value_used_for_all_polygons": "value",
	"background_value":            "background",
	"ignore_id":                   "ignore",
	"unknown_border_size":         "border",
}
