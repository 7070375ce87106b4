// Package config defines the plain Go configuration structs each stage
// takes (spec.md's ambient-stack design note: no TOML/YAML/env loader, no
// CLI framework — cmd/ entry points populate these directly from
// flag-parsed values).
package config

import (
	"log"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/fusion"
	"github.com/cartograph/geoseg/internal/tiling"
)

// Tiling configures a geoseg-tile run.
type Tiling struct {
	Logger        *log.Logger
	InputPaths    []string
	OutputDir     string
	Scheme        tiling.TilingScheme
	LayoutOptions tiling.LayoutOptions
	Workers       int
	NoDataThreshold float64
	WriteSidecars   bool
	WebPQuality     int
	LabelMode       bool
	Categories      categories.DatasetCategories
	WriteCoverCSV   bool
}

// Fusion configures a geoseg-fuse run.
type Fusion struct {
	Logger          *log.Logger
	ManifestPath    string
	PredictionsDir  string
	OutputDir       string
	Classify        fusion.ClassifyOptions
	RequireConsistent bool
	Workers         int
	Categories      categories.DatasetCategories
}

// Aggregate configures a geoseg-aggregate run.
type Aggregate struct {
	Logger            *log.Logger
	ManifestPath      string
	FusedTilesDir     string
	SourceRasterPath  string
	OutputDir         string
	Categories        categories.DatasetCategories
	StrategyPolygon   bool
	GridOverlay       bool
	GridSpacingPixels int
}

// Compare configures a geoseg-compare run.
type Compare struct {
	Logger             *log.Logger
	ReferenceTilesDir  string
	FusedTilesDir      string
	OutputDir          string
	Categories         categories.DatasetCategories
	DifferenceCategory string
}
