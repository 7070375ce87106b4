package tiledata

import "fmt"

// Resampling selects the interpolation method used when combining or
// scaling category-mask tiles (e.g. downsampleTile's pyramid construction).
type Resampling int

const (
	ResamplingBilinear Resampling = iota
	ResamplingNearest
)

// ParseResampling converts a string to a Resampling constant.
func ParseResampling(s string) (Resampling, error) {
	switch s {
	case "bilinear":
		return ResamplingBilinear, nil
	case "nearest":
		return ResamplingNearest, nil
	default:
		return 0, fmt.Errorf("unknown resampling method %q (supported: bilinear, nearest)", s)
	}
}
