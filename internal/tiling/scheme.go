package tiling

// Alignment selects where the tiling origin is placed along an axis.
type Alignment int

const (
	// CenteredToImage places the origin at floor(R/2).
	CenteredToImage Alignment = iota
	// AlignedToImageBorder places the origin at 0.
	AlignedToImageBorder
	// Optimized centers the full tiled span within the raster extent.
	Optimized
)

func (a Alignment) String() string {
	switch a {
	case CenteredToImage:
		return "centered_to_image"
	case AlignedToImageBorder:
		return "aligned_to_image_border"
	case Optimized:
		return "optimized"
	default:
		return "unknown"
	}
}

// SchemeKind discriminates the TilingScheme tagged union.
type SchemeKind int

const (
	SchemeMercator SchemeKind = iota
	SchemeLocalPixel
	SchemeLocalMeter
)

// AxisParams holds the per-axis tile size/stride and shared flags for the
// local (pixel or meter) tiling path.
type AxisParams struct {
	TileSize   float64
	TileStride float64
}

// TilingScheme is the tagged union from spec.md §3: Mercator, LocalPixel, or
// LocalMeter, the last resolved to LocalPixel via a raster's GSD before
// ComputeLayout's local path runs.
type TilingScheme struct {
	Kind SchemeKind

	// Mercator fields.
	Zoom           uint32
	UseBorderTiles bool

	// LocalPixel / LocalMeter fields. For LocalMeter, X/Y are in meters and
	// must be resolved to pixels (ResolveLocalMeter) before use.
	X, Y          AxisParams
	Alignment     Alignment
	UseOverhang   bool
	UseBorder     bool
	AlignedToBase bool
}

// ResolveLocalMeter converts a LocalMeter scheme to LocalPixel using the
// raster's ground sampling distance, independently per axis (preserving the
// source's per-axis round() behavior — see spec.md §9 Open Question: this
// can yield non-square pixel tiles from square meter inputs, which is
// intentional, not a bug).
func (s TilingScheme) ResolveLocalMeter(gsdX, gsdY float64) TilingScheme {
	if s.Kind != SchemeLocalMeter {
		return s
	}
	out := s
	out.Kind = SchemeLocalPixel
	out.X = AxisParams{
		TileSize:   roundHalfAwayFromZero(s.X.TileSize / gsdX),
		TileStride: roundHalfAwayFromZero(s.X.TileStride / gsdX),
	}
	out.Y = AxisParams{
		TileSize:   roundHalfAwayFromZero(s.Y.TileSize / gsdY),
		TileStride: roundHalfAwayFromZero(s.Y.TileStride / gsdY),
	}
	return out
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
