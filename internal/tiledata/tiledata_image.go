package tiledata

import (
	"image"
	"image/color"
	"image/draw"
)

// TileData represents a tile stored in the pyramid. For tiles where every pixel
// shares the same color (ocean, transparent gaps, uniform terrain), it stores
// only the single color value — saving ~262 KB per 256×256 tile compared to a
// full image.RGBA.
//
// TileData implements image.Image so it can be passed directly to encoders
// without expansion.
type TileData struct {
	img      *image.RGBA // non-nil for normal (multi-color) tiles
	gray     *image.Gray // non-nil for single-channel category-index tiles
	color    color.RGBA  // the uniform color; meaningful when img == nil && gray == nil
	tileSize int         // tile dimensions (square); used for Bounds() on uniform tiles
}

// Compile-time check that *TileData implements image.Image.
var _ image.Image = (*TileData)(nil)

// newTileData wraps a rendered image, automatically detecting uniform tiles.
// If all pixels share the same color, only the color is stored.
func newTileData(img *image.RGBA, tileSize int) *TileData {
	if c, ok := detectUniform(img); ok {
		return &TileData{color: c, tileSize: tileSize}
	}
	return &TileData{img: img, tileSize: tileSize}
}

// FromImage wraps a decoded image as a TileData, converting to RGBA first
// when necessary (e.g. NRGBA from PNG, YCbCr from JPEG, Gray from a
// single-band label decode). Used when reconstructing a tile from
// previously-encoded bytes, as the fusion auxiliary-tile cache does.
func FromImage(img image.Image, tileSize int) *TileData {
	if rgba, ok := img.(*image.RGBA); ok {
		return newTileData(rgba, tileSize)
	}
	bounds := img.Bounds()
	rgba := GetRGBA(bounds.Dx(), bounds.Dy())
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return newTileData(rgba, tileSize)
}

// newTileDataUniform creates a uniform (single-color) tile.
func newTileDataUniform(c color.RGBA, tileSize int) *TileData {
	return &TileData{color: c, tileSize: tileSize}
}

// IsUniform returns true if all pixels share the same color.
func (t *TileData) IsUniform() bool {
	return t.img == nil && t.gray == nil
}

// IsGray reports whether this tile stores single-channel data directly.
func (t *TileData) IsGray() bool {
	return t.gray != nil
}

// isUniformGray reports whether a uniform tile's color is gray-compatible
// (R == G == B, fully opaque), so a gray fast path can treat it as such.
func (t *TileData) isUniformGray() bool {
	return t.IsUniform() && t.color.R == t.color.G && t.color.G == t.color.B && t.color.A == 255
}

// Color returns the uniform color. Only meaningful when IsUniform() is true.
func (t *TileData) Color() color.RGBA {
	return t.color
}

// RGBAAt returns the pixel at (x, y).
func (t *TileData) RGBAAt(x, y int) color.RGBA {
	if t.img != nil {
		return t.img.RGBAAt(x, y)
	}
	if t.gray != nil {
		v := t.gray.GrayAt(x, y).Y
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return t.color
}

// ToRGBA returns the full RGBA image. For uniform tiles, this allocates and
// fills a new image. Prefer AsImage() when passing to encoders.
func (t *TileData) ToRGBA() *image.RGBA {
	if t.img != nil {
		return t.img
	}
	img := image.NewRGBA(image.Rect(0, 0, t.tileSize, t.tileSize))
	if t.gray != nil {
		for y := 0; y < t.tileSize; y++ {
			for x := 0; x < t.tileSize; x++ {
				v := t.gray.GrayAt(x, y).Y
				img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			}
		}
		return img
	}
	c := t.color
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return img
}

// AsImage returns an image.Image suitable for encoders. For full tiles it
// returns the underlying *image.RGBA or *image.Gray (so encoders can
// type-switch to the fast path). For uniform tiles it returns *TileData
// itself (which implements image.Image via generic At()).
func (t *TileData) AsImage() image.Image {
	if t.img != nil {
		return t.img
	}
	if t.gray != nil {
		return t.gray
	}
	return t
}

// --- image.Image interface ---

func (t *TileData) ColorModel() color.Model {
	if t.gray != nil {
		return color.GrayModel
	}
	return color.RGBAModel
}

func (t *TileData) Bounds() image.Rectangle {
	if t.img != nil {
		return t.img.Bounds()
	}
	if t.gray != nil {
		return t.gray.Bounds()
	}
	return image.Rect(0, 0, t.tileSize, t.tileSize)
}

func (t *TileData) At(x, y int) color.Color {
	if t.img != nil {
		return t.img.At(x, y)
	}
	if t.gray != nil {
		return t.gray.At(x, y)
	}
	return t.color
}

// --- Uniform detection ---

// detectUniform checks whether every pixel in img shares the same RGBA value.
// Returns the color and true if uniform, or zero-value and false otherwise.
// The scan is sequential over the Pix slice (cache-friendly) and short-circuits
// on the first mismatch, so non-uniform tiles bail out almost immediately.
func detectUniform(img *image.RGBA) (color.RGBA, bool) {
	pix := img.Pix
	if len(pix) < 4 {
		return color.RGBA{}, false
	}
	r, g, b, a := pix[0], pix[1], pix[2], pix[3]
	for i := 4; i < len(pix); i += 4 {
		if pix[i] != r || pix[i+1] != g || pix[i+2] != b || pix[i+3] != a {
			return color.RGBA{}, false
		}
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, true
}

// tileDataToRGBA converts a *TileData to *image.RGBA, returning nil for nil input.
func tileDataToRGBA(td *TileData) *image.RGBA {
	if td == nil {
		return nil
	}
	return td.ToRGBA()
}
