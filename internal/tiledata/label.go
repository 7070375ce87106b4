package tiledata

import (
	"fmt"
	"image"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/raster"
)

// ErrNotPaletted is returned by DecodeLabelPixels when a decoded image is not
// a palette (P-mode) image, per spec.md §6's label tile format.
var ErrNotPaletted = fmt.Errorf("tiledata: not a palette (P-mode) image")

// ClassifyLabelPixels maps a decoded source raster's raw band values onto a
// single-band palette-index raster, matching each pixel against cats via
// DatasetCategories.MatchCategory. Pixels matching no category fall back to
// index 0, mirroring the background category's conventional placement.
// Grounded on eot/tiles/read_write_tile.py's per-pixel category lookup.
func ClassifyLabelPixels(p *raster.Pixels, cats categories.DatasetCategories) *raster.Pixels {
	out := raster.NewPixels(p.Width, p.Height, 1, raster.DTypeUint8)
	pixel := make([]int, p.Bands)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			for b := 0; b < p.Bands; b++ {
				pixel[b] = int(p.At(x, y, b))
			}
			idx := uint8(0)
			if cat, ok := cats.MatchCategory(pixel); ok {
				idx = cat.PaletteIndex
			}
			out.Set(x, y, 0, float64(idx))
		}
	}
	return out
}

// LabelImage wraps a single-band palette-index raster (band 0 holding the
// index, as ClassifyLabelPixels produces) as a P-mode image.Paletted, palette
// built from cats per spec.md §6: category RGB at each registered index,
// (0,0,0) for any index up to the maximum referenced one that no category
// claims. Go's stdlib image/png encoder serializes *image.Paletted as a true
// P-mode PNG natively, so no custom encoder is required downstream.
func LabelImage(p *raster.Pixels, cats categories.DatasetCategories) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, p.Width, p.Height), cats.Palette())
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetColorIndex(x, y, uint8(p.At(x, y, 0)))
		}
	}
	return img
}

// DecodeLabelPixels reads a decoded label tile back into a single-band
// palette-index raster. img must be *image.Paletted — the pixel value IS the
// category index there, whereas At(...).RGBA() would return the palette
// color the index maps to, silently corrupting any category whose palette
// color's red channel doesn't equal its own index.
func DecodeLabelPixels(img image.Image) (*raster.Pixels, error) {
	pal, ok := img.(*image.Paletted)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotPaletted, img)
	}
	b := pal.Bounds()
	w, h := b.Dx(), b.Dy()
	px := raster.NewPixels(w, h, 1, raster.DTypeUint8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px.Set(x, y, 0, float64(pal.ColorIndexAt(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return px, nil
}
