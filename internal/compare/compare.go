// Package compare implements per-category confusion-mask comparison between
// a reference label tile tree and a fused prediction tile tree sharing tile
// identities (spec.md §4.4).
package compare

import (
	"errors"
	"fmt"
	"log"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

// ErrFusedSetNotSubset is returned when a fused tile has no matching
// reference tile by identity: spec.md's invariant is that the fused set is
// always a subset of the reference set, and silently skipping mismatches
// here would defeat the purpose of a comparison tool.
var ErrFusedSetNotSubset = errors.New("compare: fused tile identity has no matching reference tile")

// Confusion is one of the four fixed comparison classes.
type Confusion uint8

const (
	ConfusionTN Confusion = iota
	ConfusionTP
	ConfusionFP
	ConfusionFN
)

// Palette maps each Confusion value to a fixed display color, per spec.md
// §4.4's "fixed 4-color comparison palette".
var Palette = map[Confusion][4]uint8{
	ConfusionTN: {0, 0, 0, 0},
	ConfusionTP: {0, 200, 0, 255},
	ConfusionFP: {220, 0, 0, 255},
	ConfusionFN: {220, 160, 0, 255},
}

// Config configures a comparison run.
type Config struct {
	Logger             *log.Logger
	Categories         categories.DatasetCategories
	DifferenceCategory string // used when inputs are RGB (non-paletted)
}

// TilePair is one matched (reference, fused) tile by identity.
type TilePair struct {
	Tile      tiling.Tile
	Reference *raster.Pixels
	Fused     *raster.Pixels
}

// Result is one category's confusion mask for one tile.
type Result struct {
	Tile     tiling.Tile
	Category string
	Mask     *raster.Pixels // 1 band, values are Confusion
}

// CheckSubset verifies every fused tile identity appears among reference
// identities, returning ErrFusedSetNotSubset (wrapped with the offending
// tile) on the first mismatch.
func CheckSubset(reference, fused []tiling.Tile) error {
	refSet := make(map[any]bool, len(reference))
	for _, t := range reference {
		refSet[t.Identity()] = true
	}
	for _, t := range fused {
		if !refSet[t.Identity()] {
			return fmt.Errorf("%w: %v", ErrFusedSetNotSubset, t.Identity())
		}
	}
	return nil
}

// ComparePaletted computes per-active-category confusion masks for one tile
// pair, assuming Reference/Fused are single-band palette-index rasters
// matching cfg.Categories.
func ComparePaletted(pair TilePair, cfg Config) ([]Result, error) {
	if pair.Reference.Width != pair.Fused.Width || pair.Reference.Height != pair.Fused.Height {
		return nil, fmt.Errorf("compare: tile %v: reference/fused size mismatch", pair.Tile.Identity())
	}

	w, h := pair.Reference.Width, pair.Reference.Height
	var out []Result
	for _, cat := range cfg.Categories.Active() {
		mask := raster.NewPixels(w, h, 1, raster.DTypeUint8)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				refIs := uint8(pair.Reference.At(x, y, 0)) == cat.PaletteIndex
				fusedIs := uint8(pair.Fused.At(x, y, 0)) == cat.PaletteIndex
				mask.Set(x, y, 0, float64(classify(refIs, fusedIs)))
			}
		}
		out = append(out, Result{Tile: pair.Tile, Category: cat.Name, Mask: mask})
	}

	if cfg.Logger != nil {
		cfg.Logger.Printf("compare: tile %v: %d category masks computed", pair.Tile.Identity(), len(out))
	}
	return out, nil
}

// CompareRGB collapses an RGB (non-paletted) pair into a single difference
// mask colored by cfg.DifferenceCategory: any pixel whose reference/fused
// colors differ is marked FP (there is no category-specific TP/FN
// distinction without a palette to classify against).
func CompareRGB(pair TilePair, cfg Config) (Result, error) {
	if pair.Reference.Width != pair.Fused.Width || pair.Reference.Height != pair.Fused.Height {
		return Result{}, fmt.Errorf("compare: tile %v: reference/fused size mismatch", pair.Tile.Identity())
	}
	w, h := pair.Reference.Width, pair.Reference.Height
	mask := raster.NewPixels(w, h, 1, raster.DTypeUint8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			differs := false
			for b := 0; b < pair.Reference.Bands && b < pair.Fused.Bands; b++ {
				if pair.Reference.At(x, y, b) != pair.Fused.At(x, y, b) {
					differs = true
					break
				}
			}
			if differs {
				mask.Set(x, y, 0, float64(ConfusionFP))
			}
		}
	}
	return Result{Tile: pair.Tile, Category: cfg.DifferenceCategory, Mask: mask}, nil
}

func classify(refIs, fusedIs bool) Confusion {
	switch {
	case refIs && fusedIs:
		return ConfusionTP
	case !refIs && fusedIs:
		return ConfusionFP
	case refIs && !fusedIs:
		return ConfusionFN
	default:
		return ConfusionTN
	}
}
