// Package categories defines the dataset category vocabulary used by
// labeling, fusion, aggregation and comparison: the set of semantic classes
// a label raster's pixel values are mapped to, plus the palette used to
// render them.
package categories

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrInvalidCategorySet is returned by Validate when the invariants from
// spec.md §3 are violated.
var ErrInvalidCategorySet = errors.New("categories: invalid category set")

// DatasetCategory is one semantic class: a name, its palette index/color,
// the label-value tuples that identify it in a source label raster, and
// whether it participates in aggregation (IsActive) or marks nodata
// (IsIgnore).
type DatasetCategory struct {
	Name         string
	PaletteIndex uint8
	PaletteColor color.RGBA
	LabelValues  [][]int
	IsActive     bool
	IsIgnore     bool
}

// MatchesLabel reports whether pixel (a tuple of source label-raster band
// values) matches one of this category's registered label-value tuples.
func (c DatasetCategory) MatchesLabel(pixel []int) bool {
	for _, lv := range c.LabelValues {
		if intsEqual(lv, pixel) {
			return true
		}
	}
	return false
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DatasetCategories is an ordered collection of categories. Order matters:
// during aggregation, later categories in the list overwrite earlier ones
// at overlapping pixels (spec.md §4.3).
type DatasetCategories []DatasetCategory

// Validate enforces spec.md §3's invariants: at least two categories, at
// most one ignore category, contiguous active palette indices starting at
// 0 (the ignore category, if present, reserved at 255), and no duplicate
// label-value tuples across active categories.
func (cs DatasetCategories) Validate() error {
	if len(cs) < 2 {
		return fmt.Errorf("%w: need at least 2 categories, got %d", ErrInvalidCategorySet, len(cs))
	}

	ignoreCount := 0
	activeIndices := make([]int, 0, len(cs))
	for _, c := range cs {
		if c.IsIgnore {
			ignoreCount++
			if c.PaletteIndex != 255 {
				return fmt.Errorf("%w: ignore category %q must use palette index 255, got %d", ErrInvalidCategorySet, c.Name, c.PaletteIndex)
			}
		} else if c.IsActive {
			activeIndices = append(activeIndices, int(c.PaletteIndex))
		}
	}
	if ignoreCount > 1 {
		return fmt.Errorf("%w: at most one ignore category allowed, got %d", ErrInvalidCategorySet, ignoreCount)
	}

	sorted := append([]int(nil), activeIndices...)
	sortInts(sorted)
	for i, idx := range sorted {
		if idx != i {
			return fmt.Errorf("%w: active palette indices must be contiguous from 0, got %v", ErrInvalidCategorySet, sorted)
		}
	}

	seen := map[string][]int{}
	for _, c := range cs {
		if !c.IsActive {
			continue
		}
		for _, lv := range c.LabelValues {
			key := fmt.Sprint(lv)
			if owner, ok := seen[key]; ok {
				_ = owner
				return fmt.Errorf("%w: label value %v duplicated across active categories", ErrInvalidCategorySet, lv)
			}
			seen[key] = lv
		}
	}

	return nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// MatchCategory finds the first category whose label values match pixel,
// supplementing the source's eot/categories/dataset_category.py tuple
// matching (dropped from spec.md's one-line mention).
func (cs DatasetCategories) MatchCategory(pixel []int) (*DatasetCategory, bool) {
	for i := range cs {
		if cs[i].MatchesLabel(pixel) {
			return &cs[i], true
		}
	}
	return nil, false
}

// ByPaletteIndex returns the category with the given palette index, if any.
func (cs DatasetCategories) ByPaletteIndex(idx uint8) (*DatasetCategory, bool) {
	for i := range cs {
		if cs[i].PaletteIndex == idx {
			return &cs[i], true
		}
	}
	return nil, false
}

// Active returns only the active (non-ignore) categories, in order.
func (cs DatasetCategories) Active() DatasetCategories {
	out := make(DatasetCategories, 0, len(cs))
	for _, c := range cs {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// Palette builds a color.Palette covering every referenced index up to the
// maximum, with unreferenced indices defaulting to (0,0,0) per spec.md §6.
func (cs DatasetCategories) Palette() color.Palette {
	maxIdx := 0
	for _, c := range cs {
		if int(c.PaletteIndex) > maxIdx {
			maxIdx = int(c.PaletteIndex)
		}
	}
	pal := make(color.Palette, maxIdx+1)
	for i := range pal {
		pal[i] = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	}
	for _, c := range cs {
		pal[c.PaletteIndex] = c.PaletteColor
	}
	return pal
}
