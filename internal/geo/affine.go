package geo

import "math"

// Affine is a full 6-parameter affine pixel→world transform:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// This generalizes the axis-aligned (no rotation/shear) transform the
// teacher's GeoTIFF reader derives from ModelPixelScale/ModelTiepoint tags;
// rotated or sheared rasters need the full form.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// IdentityAffine returns the affine that maps pixel coordinates to themselves.
func IdentityAffine() Affine {
	return Affine{A: 1, E: 1}
}

// FromOriginAndScale builds an axis-aligned affine from an upper-left origin
// and per-axis pixel size, matching the teacher's GeoInfo convention
// (PixelSizeY is stored positive; north-up rasters have a negative row scale).
func FromOriginAndScale(originX, originY, pixelSizeX, pixelSizeY float64) Affine {
	return Affine{A: pixelSizeX, B: 0, C: originX, D: 0, E: -pixelSizeY, F: originY}
}

// Apply maps a pixel coordinate (col, row) to world coordinates (x, y).
func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a.A*col + a.B*row + a.C
	y = a.D*col + a.E*row + a.F
	return
}

// Invert returns the inverse affine (world→pixel) and false if the affine is
// singular (determinant ~0).
func (a Affine) Invert() (Affine, bool) {
	det := a.A*a.E - a.B*a.D
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}
	invDet := 1.0 / det
	ia := a.E * invDet
	ib := -a.B * invDet
	id := -a.D * invDet
	ie := a.A * invDet
	ic := -(ia*a.C + ib*a.F)
	ifv := -(id*a.C + ie*a.F)
	return Affine{A: ia, B: ib, C: ic, D: id, E: ie, F: ifv}, true
}

// Mul composes two affines so that (a.Mul(b)).Apply(p) == a.Apply(b.Apply(p)),
// i.e. b is applied first. Used to chain tile-pixel→source-pixel→world.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		A: a.A*b.A + a.B*b.D,
		B: a.A*b.B + a.B*b.E,
		C: a.A*b.C + a.B*b.F + a.C,
		D: a.D*b.A + a.E*b.D,
		E: a.D*b.B + a.E*b.E,
		F: a.D*b.C + a.E*b.F + a.F,
	}
}

// Resolution returns the absolute ground-sampling distance along each pixel
// axis, i.e. |A| and |E| for an axis-aligned affine. For a sheared/rotated
// affine this is the magnitude of each column/row basis vector.
func (a Affine) Resolution() (gx, gy float64) {
	gx = math.Hypot(a.A, a.D)
	gy = math.Hypot(a.B, a.E)
	return
}

// IsAxisAligned reports whether the affine has no rotation or shear terms.
func (a Affine) IsAxisAligned() bool {
	return a.B == 0 && a.D == 0
}
