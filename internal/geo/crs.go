package geo

import "fmt"

// CRS identifies a coordinate reference system by EPSG code and resolves a
// Projection for converting to/from WGS84 lazily (Projection implementations
// are stateless, so this is cheap).
type CRS struct {
	EPSG int
}

// NewCRS wraps an EPSG code.
func NewCRS(epsg int) CRS { return CRS{EPSG: epsg} }

// Projection resolves the Projection for this CRS, or nil if unsupported.
func (c CRS) Projection() Projection { return ForEPSG(c.EPSG) }

func (c CRS) String() string { return fmt.Sprintf("EPSG:%d", c.EPSG) }

// Equal reports whether two CRS values name the same EPSG code.
func (c CRS) Equal(o CRS) bool { return c.EPSG == o.EPSG }

// Transform converts (x, y) from CRS `from` to CRS `to`, routing through
// WGS84 as the common intermediate (matching the teacher's Projection
// interface, which only defines ToWGS84/FromWGS84 pairs).
func Transform(from, to CRS, x, y float64) (float64, float64, error) {
	if from.Equal(to) {
		return x, y, nil
	}
	fp := from.Projection()
	if fp == nil {
		return 0, 0, fmt.Errorf("geo: unsupported source CRS %s", from)
	}
	tp := to.Projection()
	if tp == nil {
		return 0, 0, fmt.Errorf("geo: unsupported target CRS %s", to)
	}
	lon, lat := fp.ToWGS84(x, y)
	tx, ty := tp.FromWGS84(lon, lat)
	return tx, ty, nil
}
