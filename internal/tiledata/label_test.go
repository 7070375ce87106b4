package tiledata

import (
	"image"
	"image/color"
	"testing"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/raster"
)

func testCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, PaletteColor: color.RGBA{0, 0, 0, 255}, LabelValues: [][]int{{0}}, IsActive: true},
		{Name: "building", PaletteIndex: 1, PaletteColor: color.RGBA{40, 40, 40, 255}, LabelValues: [][]int{{1}}, IsActive: true},
		{Name: "road", PaletteIndex: 2, PaletteColor: color.RGBA{200, 0, 0, 255}, LabelValues: [][]int{{2}}, IsActive: true},
	}
}

func TestClassifyLabelPixels(t *testing.T) {
	src := raster.NewPixels(2, 1, 1, raster.DTypeUint8)
	src.Set(0, 0, 0, 1) // building
	src.Set(1, 0, 0, 9) // unmatched -> background

	out := ClassifyLabelPixels(src, testCategories())
	if got := out.At(0, 0, 0); got != 1 {
		t.Errorf("pixel 0: got index %v, want 1", got)
	}
	if got := out.At(1, 0, 0); got != 0 {
		t.Errorf("pixel 1: got index %v, want 0 (unmatched falls back to background)", got)
	}
}

func TestLabelImage_PaletteColorIsNotIndex(t *testing.T) {
	// The "road" category's palette color (200,0,0) has a red channel that
	// does not equal its own palette index (2). A reader that mistakes the
	// color for the index would misclassify this pixel.
	cats := testCategories()
	p := raster.NewPixels(1, 1, 1, raster.DTypeUint8)
	p.Set(0, 0, 0, 2)

	img := LabelImage(p, cats)
	if idx := img.ColorIndexAt(0, 0); idx != 2 {
		t.Fatalf("ColorIndexAt: got %d, want 2", idx)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	if uint8(r>>8) == 2 {
		t.Fatal("test is meaningless: palette color's red channel coincidentally equals the index")
	}
}

func TestLabelImage_BackgroundForUnreferencedIndices(t *testing.T) {
	cats := categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, PaletteColor: color.RGBA{0, 0, 0, 255}, IsActive: true},
		{Name: "far", PaletteIndex: 3, PaletteColor: color.RGBA{10, 20, 30, 255}, IsActive: true},
	}
	p := raster.NewPixels(1, 1, 1, raster.DTypeUint8)
	img := LabelImage(p, cats)
	if len(img.Palette) != 4 {
		t.Fatalf("palette length: got %d, want 4 (indices 0..3)", len(img.Palette))
	}
	for _, idx := range []int{1, 2} {
		c, ok := img.Palette[idx].(color.RGBA)
		if !ok || c != (color.RGBA{0, 0, 0, 255}) {
			t.Errorf("palette[%d]: got %v, want opaque black", idx, img.Palette[idx])
		}
	}
}

func TestDecodeLabelPixels_RoundTrip(t *testing.T) {
	cats := testCategories()
	p := raster.NewPixels(2, 2, 1, raster.DTypeUint8)
	p.Set(0, 0, 0, 0)
	p.Set(1, 0, 0, 1)
	p.Set(0, 1, 0, 2)
	p.Set(1, 1, 0, 1)

	img := LabelImage(p, cats)
	decoded, err := DecodeLabelPixels(img)
	if err != nil {
		t.Fatalf("DecodeLabelPixels: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got, want := decoded.At(x, y, 0), p.At(x, y, 0); got != want {
				t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDecodeLabelPixels_RejectsNonPaletted(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.SetRGBA(0, 0, color.RGBA{R: 2})
	if _, err := DecodeLabelPixels(rgba); err == nil {
		t.Error("expected an error decoding a non-paletted image as a label tile")
	}
}
