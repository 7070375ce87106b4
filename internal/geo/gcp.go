package geo

import "fmt"

// GCP is a ground-control point: a pixel coordinate paired with its known
// world coordinate. Rasters that lack an embedded transform+CRS (spec.md §3
// geo-validity invariant: "exactly one of (transform,crs) or gcps must be
// valid") carry a set of these instead.
type GCP struct {
	PixelX, PixelY float64
	X, Y, Z        float64
}

// GCPSet is a non-empty collection of ground-control points for one raster.
type GCPSet []GCP

// FitAffine solves for the best-fit pixel→world affine through the GCPs via
// linear least squares (normal equations), independently for the x and y
// world coordinates. Requires at least 3 non-collinear points; returns an
// error otherwise or if the system is singular.
//
// No linear-algebra library appears anywhere in the retrieved corpus, so this
// is a small hand-rolled 3x3 normal-equations solve rather than a dependency
// pulled in for one call site.
func (g GCPSet) FitAffine() (Affine, error) {
	n := len(g)
	if n < 3 {
		return Affine{}, fmt.Errorf("geo: need at least 3 GCPs to fit an affine, got %d", n)
	}

	// Solve [A B C] = argmin sum((A*px+B*py+C - x)^2), likewise for [D E F] vs y.
	// Normal equations: M^T M beta = M^T target, where each row of M is [px, py, 1].
	var sxx, sxy, sx, syy, sy, s1 float64
	var sxX, syX, sX float64
	var sxY, syY, sY float64
	for _, p := range g {
		px, py := p.PixelX, p.PixelY
		sxx += px * px
		sxy += px * py
		sx += px
		syy += py * py
		sy += py
		s1++
		sxX += px * p.X
		syX += py * p.X
		sX += p.X
		sxY += px * p.Y
		syY += py * p.Y
		sY += p.Y
	}

	m := [3][3]float64{
		{sxx, sxy, sx},
		{sxy, syy, sy},
		{sx, sy, s1},
	}

	abc, ok := solve3x3(m, [3]float64{sxX, syX, sX})
	if !ok {
		return Affine{}, fmt.Errorf("geo: GCP set is singular (points likely collinear)")
	}
	deff, ok := solve3x3(m, [3]float64{sxY, syY, sY})
	if !ok {
		return Affine{}, fmt.Errorf("geo: GCP set is singular (points likely collinear)")
	}

	return Affine{A: abc[0], B: abc[1], C: abc[2], D: deff[0], E: deff[1], F: deff[2]}, nil
}

// solve3x3 solves m*x = rhs via Cramer's rule, returning ok=false for a
// near-singular matrix.
func solve3x3(m [3][3]float64, rhs [3]float64) ([3]float64, bool) {
	det := det3(m)
	if det < 1e-9 && det > -1e-9 {
		return [3]float64{}, false
	}
	var x [3]float64
	for col := 0; col < 3; col++ {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = rhs[row]
		}
		x[col] = det3(mc) / det
	}
	return x, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
