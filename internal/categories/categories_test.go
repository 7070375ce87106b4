package categories

import (
	"image/color"
	"testing"
)

func validSet() DatasetCategories {
	return DatasetCategories{
		{Name: "background", PaletteIndex: 0, PaletteColor: color.RGBA{0, 0, 0, 255}, LabelValues: [][]int{{0}}, IsActive: true},
		{Name: "building", PaletteIndex: 1, PaletteColor: color.RGBA{255, 0, 0, 255}, LabelValues: [][]int{{1}}, IsActive: true},
		{Name: "road", PaletteIndex: 2, PaletteColor: color.RGBA{128, 128, 128, 255}, LabelValues: [][]int{{2}}, IsActive: true},
		{Name: "nodata", PaletteIndex: 255, IsIgnore: true},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validSet().Validate(); err != nil {
		t.Fatalf("expected valid set, got %v", err)
	}
}

func TestValidate_TooFewCategories(t *testing.T) {
	cs := DatasetCategories{{Name: "only", PaletteIndex: 0, IsActive: true}}
	if err := cs.Validate(); err == nil {
		t.Error("expected error for <2 categories")
	}
}

func TestValidate_MultipleIgnore(t *testing.T) {
	cs := validSet()
	cs = append(cs, DatasetCategory{Name: "nodata2", PaletteIndex: 255, IsIgnore: true})
	if err := cs.Validate(); err == nil {
		t.Error("expected error for >1 ignore category")
	}
}

func TestValidate_NonContiguousIndices(t *testing.T) {
	cs := DatasetCategories{
		{Name: "a", PaletteIndex: 0, IsActive: true, LabelValues: [][]int{{0}}},
		{Name: "b", PaletteIndex: 2, IsActive: true, LabelValues: [][]int{{1}}},
	}
	if err := cs.Validate(); err == nil {
		t.Error("expected error for non-contiguous palette indices")
	}
}

func TestValidate_DuplicateLabelValues(t *testing.T) {
	cs := DatasetCategories{
		{Name: "a", PaletteIndex: 0, IsActive: true, LabelValues: [][]int{{1}}},
		{Name: "b", PaletteIndex: 1, IsActive: true, LabelValues: [][]int{{1}}},
	}
	if err := cs.Validate(); err == nil {
		t.Error("expected error for duplicate label values across active categories")
	}
}

func TestMatchCategory(t *testing.T) {
	cs := validSet()
	cat, ok := cs.MatchCategory([]int{1})
	if !ok || cat.Name != "building" {
		t.Fatalf("MatchCategory([1]) = %v, %v, want building", cat, ok)
	}
	if _, ok := cs.MatchCategory([]int{99}); ok {
		t.Error("expected no match for unregistered label value")
	}
}

func TestPalette_DefaultsUnreferencedToBlack(t *testing.T) {
	cs := validSet()
	pal := cs.Palette()
	if len(pal) != 256 {
		t.Fatalf("palette length = %d, want 256 (ignore reserved at 255)", len(pal))
	}
	if c := pal[200]; c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("unreferenced index 200 = %v, want black", c)
	}
	if c := pal[1]; c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("index 1 = %v, want red", c)
	}
}
