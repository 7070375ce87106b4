package raster

import (
	"math"

	"github.com/cartograph/geoseg/internal/geo"
)

// Resampling selects the pixel sampling kernel used when a source raster's
// pixel grid does not line up with a destination grid (different CRS, a
// different pixel size, or a non-axis-aligned transform).
type Resampling int

const (
	ResamplingNearest Resampling = iota
	ResamplingBilinear
)

// Reproject resamples src into a width x height window on dstTransform/dstCRS.
// Each destination pixel center is converted to world coordinates in dstCRS,
// transformed into srcCRS, and back-projected through the inverse of
// srcTransform to locate the source sample. Destination pixels that fall
// outside the source raster are left at zero (spec.md §7's zero-fill policy
// for out-of-bounds reads).
func Reproject(src *Pixels, srcTransform geo.Affine, srcCRS geo.CRS, dstTransform geo.Affine, dstCRS geo.CRS, width, height int, mode Resampling) (*Pixels, error) {
	invSrc, ok := srcTransform.Invert()
	if !ok {
		return nil, ErrOutOfBounds
	}

	dst := NewPixels(width, height, src.Bands, src.DType)
	sameCRS := srcCRS.Equal(dstCRS)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			wx, wy := dstTransform.Apply(float64(x)+0.5, float64(y)+0.5)
			if !sameCRS {
				var err error
				wx, wy, err = geo.Transform(dstCRS, srcCRS, wx, wy)
				if err != nil {
					continue
				}
			}
			sx, sy := invSrc.Apply(wx, wy)
			// invSrc.Apply maps world -> pixel using the forward convention of
			// Affine.Apply (col, row) -> (x, y); Invert() already swaps the
			// roles so sx/sy here are source pixel column/row.
			sampleInto(dst, src, x, y, sx-0.5, sy-0.5, mode)
		}
	}
	return dst, nil
}

// sampleInto writes the resampled value(s) for destination pixel (dx, dy)
// from fractional source pixel coordinates (fx, fy) into dst.
func sampleInto(dst, src *Pixels, dx, dy int, fx, fy float64, mode Resampling) {
	switch mode {
	case ResamplingNearest:
		sx := int(math.Floor(fx + 0.5))
		sy := int(math.Floor(fy + 0.5))
		if sx < 0 || sy < 0 || sx >= src.Width || sy >= src.Height {
			return
		}
		for b := 0; b < src.Bands; b++ {
			dst.Set(dx, dy, b, src.At(sx, sy, b))
		}
	default:
		x0 := int(math.Floor(fx))
		y0 := int(math.Floor(fy))
		x1, y1 := x0+1, y0+1
		if x1 < 0 || y1 < 0 || x0 >= src.Width || y0 >= src.Height {
			return
		}
		tx := fx - float64(x0)
		ty := fy - float64(y0)
		x0c, y0c := clampInt(x0, 0, src.Width-1), clampInt(y0, 0, src.Height-1)
		x1c, y1c := clampInt(x1, 0, src.Width-1), clampInt(y1, 0, src.Height-1)
		for b := 0; b < src.Bands; b++ {
			v00 := src.At(x0c, y0c, b)
			v10 := src.At(x1c, y0c, b)
			v01 := src.At(x0c, y1c, b)
			v11 := src.At(x1c, y1c, b)
			top := v00*(1-tx) + v10*tx
			bot := v01*(1-tx) + v11*tx
			dst.Set(dx, dy, b, top*(1-ty)+bot*ty)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
