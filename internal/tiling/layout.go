package tiling

import (
	"errors"
	"fmt"
	"math"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
)

// ErrSchemeUnsupported is returned for a scheme/feature combination the
// engine does not implement (e.g. Optimized alignment requested alongside
// fusion-consistency, rejected at fusion time — see internal/fusion).
var ErrSchemeUnsupported = errors.New("tiling: scheme/feature combination unsupported")

// AxisLayout is the per-axis result of the Tiling Layout Engine's hard
// algorithm (spec.md §4.1): the chosen origin, every tile's integer pixel
// offset (sorted ascending), the axis's quantized base stride, and the
// stride actually used to emit offsets (equal to BaseStride when
// AlignedToBase, otherwise the raw float stride).
type AxisLayout struct {
	Origin      int
	Offsets     []int
	BaseStride  float64
	UsedStride  float64
	TileSizeInt int
}

// numTiles rounds the fractional tile count (area+stride-size)/stride with
// ceil if useOverhang, else floor, clipped to >= 0. Mirrors spec.md §4.1
// verbatim.
func numTiles(area, size, stride float64, useOverhang bool) int {
	frac := (area + stride - size) / stride
	var n float64
	if useOverhang {
		n = math.Ceil(frac)
	} else {
		n = math.Floor(frac)
	}
	if n < 0 {
		n = 0
	}
	return int(n)
}

// computeAxisLayout runs spec.md §4.1 Steps 1-3 for one axis. R is the
// raster extent along this axis in pixels.
func computeAxisLayout(r int, tileSizeF, strideF float64, alignment Alignment, useOverhang, alignedToBase bool) AxisLayout {
	tileSizeInt := int(math.Floor(tileSizeF))

	// Base-stride quantization (spec.md §4.1 Step 1): always computed, since
	// fusion's base/aux classification (§4.2) consults it regardless of
	// whether this particular tiling run used it to choose the origin.
	baseStride := strideF * roundHalfAwayFromZero(float64(tileSizeInt)/strideF)

	useStride := strideF
	if alignedToBase {
		useStride = baseStride
	}

	var origin int
	switch alignment {
	case AlignedToImageBorder:
		origin = 0
	case CenteredToImage:
		origin = int(math.Floor(float64(r) / 2))
	case Optimized:
		n := numTiles(float64(r), float64(tileSizeInt), useStride, useOverhang)
		tiledSpan := float64(n)*useStride + float64(tileSizeInt) - useStride
		origin = int(math.Floor((float64(r) - tiledSpan) / 2))
	}

	nPos := numTiles(float64(r-origin), float64(tileSizeInt), useStride, useOverhang)
	if nPos < 1 {
		nPos = 1
	}
	redundant := math.Min(float64(tileSizeInt)-useStride, float64(r-origin))
	nNeg := numTiles(float64(origin)+redundant, float64(tileSizeInt), useStride, useOverhang)

	offsets := make([]int, 0, nPos+nNeg)
	for i := nNeg; i >= 1; i-- {
		offsets = append(offsets, origin-int(math.Floor(float64(i)*useStride)))
	}
	for i := 0; i < nPos; i++ {
		offsets = append(offsets, origin+int(math.Floor(float64(i)*useStride)))
	}

	return AxisLayout{
		Origin:      origin,
		Offsets:     offsets,
		BaseStride:  baseStride,
		UsedStride:  useStride,
		TileSizeInt: tileSizeInt,
	}
}

// TilingInfo describes the grid produced for one raster: the chosen origins,
// strides, and source tile size per axis, serialized verbatim into the
// RasterTilingResult manifest (spec.md §6).
type TilingInfo struct {
	TilingSourceOffsetX int
	TilingSourceOffsetY int
	TilingSourceStrideX float64
	TilingSourceStrideY float64
	TilingSourceSizeX   int
	TilingSourceSizeY   int
	BaseStrideX         float64
	BaseStrideY         float64

	// OptimizedBaseAlignmentUnsound flags a tiling run that combined
	// Optimized alignment with AlignedToBase: accepted here (matching the
	// source's asymmetry, per spec.md §9 Open Question), but fusion checks
	// this flag and rejects fusion-consistency requests against such a
	// tiling run with ErrOptimizedAlignmentUnsupported rather than silently
	// producing inconsistent output.
	OptimizedBaseAlignmentUnsound bool
}

// LayoutOptions holds the base/auxiliary stride-quantization tolerance and
// bug-detection threshold (spec.md §9 Open Question: the source hardcodes
// these as 1 and 16). ComputeLayout does not take it and TilingInfo does not
// carry it; fusion classification reads its own fusion.ClassifyOptions.
type LayoutOptions struct {
	StrideQuantizationTolerance   float64
	StrideQuantizationBugThreshold float64
}

// DefaultLayoutOptions returns the source's hardcoded tolerance/threshold.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{StrideQuantizationTolerance: 1, StrideQuantizationBugThreshold: 16}
}

// ComputeLayout runs the Tiling Layout Engine (spec.md §4.1) for one raster
// under the given scheme, returning the grid description and the ordered
// tile list (Cartesian product of x- and y-axis offsets, scan order y then
// x per spec.md §5).
func ComputeLayout(r raster.Raster, scheme TilingScheme, name string) (TilingInfo, []Tile, error) {
	switch scheme.Kind {
	case SchemeMercator:
		return computeMercatorLayout(r, scheme)
	case SchemeLocalPixel:
		return computeLocalLayout(r, scheme, name)
	case SchemeLocalMeter:
		gsd, ok := r.GSD()
		if !ok {
			return TilingInfo{}, nil, fmt.Errorf("%w: LocalMeter scheme requires a raster GSD", ErrSchemeUnsupported)
		}
		resolved := scheme.ResolveLocalMeter(gsd, gsd)
		return computeLocalLayout(r, resolved, name)
	default:
		return TilingInfo{}, nil, fmt.Errorf("%w: unknown scheme kind %d", ErrSchemeUnsupported, scheme.Kind)
	}
}

func computeLocalLayout(r raster.Raster, scheme TilingScheme, name string) (TilingInfo, []Tile, error) {
	ax := computeAxisLayout(r.Width(), scheme.X.TileSize, scheme.X.TileStride, scheme.Alignment, scheme.UseOverhang, scheme.AlignedToBase)
	ay := computeAxisLayout(r.Height(), scheme.Y.TileSize, scheme.Y.TileStride, scheme.Alignment, scheme.UseOverhang, scheme.AlignedToBase)

	info := TilingInfo{
		TilingSourceOffsetX: ax.Origin,
		TilingSourceOffsetY: ay.Origin,
		TilingSourceStrideX: scheme.X.TileStride,
		TilingSourceStrideY: scheme.Y.TileStride,
		TilingSourceSizeX:   ax.TileSizeInt,
		TilingSourceSizeY:   ay.TileSizeInt,
		BaseStrideX:         ax.BaseStride,
		BaseStrideY:         ay.BaseStride,
		OptimizedBaseAlignmentUnsound: scheme.Alignment == Optimized && scheme.AlignedToBase,
	}

	var transform *geo.Affine
	var crsPtr *geo.CRS
	if t, ok := r.Transform(); ok {
		transform = &t
	}
	if c, ok := r.CRS(); ok {
		crsPtr = &c
	}

	tiles := make([]Tile, 0, len(ay.Offsets)*len(ax.Offsets))
	for _, oy := range ay.Offsets {
		for _, ox := range ax.Offsets {
			tile := NewImagePixelTile(name, int64(ox), int64(oy), uint64(ax.TileSizeInt), uint64(ay.TileSizeInt), uint32(ax.TileSizeInt), uint32(ay.TileSizeInt))
			if transform != nil {
				placed := placeTileTransform(*transform, ox, oy)
				tile.TileTransform = &placed
			}
			tile.CRS = crsPtr
			tiles = append(tiles, tile)
		}
	}

	return info, tiles, nil
}

// placeTileTransform composes the raster's pixel->world affine with a pure
// pixel-offset translation, yielding the tile's own pixel->world affine
// (Step 4, spec.md §4.1: "each tile carries ... a reference to the raster's
// transform ... for later placement").
func placeTileTransform(rasterTransform geo.Affine, ox, oy int) geo.Affine {
	offset := geo.Affine{A: 1, B: 0, C: float64(ox), D: 0, E: 1, F: float64(oy)}
	return rasterTransform.Mul(offset)
}

func computeMercatorLayout(r raster.Raster, scheme TilingScheme) (TilingInfo, []Tile, error) {
	transform, okT := r.Transform()
	crs, okC := r.CRS()
	if !okT || !okC {
		return TilingInfo{}, nil, fmt.Errorf("%w: mercator scheme requires a valid transform+crs", raster.ErrInvalidGeoReference)
	}

	bounds := geo.BoundsFromPixelRect(transform, float64(r.Width()), float64(r.Height()))
	minLon, minLat, err1 := projectToWGS84(crs, bounds.MinX, bounds.MinY)
	maxLon, maxLat, err2 := projectToWGS84(crs, bounds.MaxX, bounds.MaxY)
	if err1 != nil || err2 != nil {
		return TilingInfo{}, nil, fmt.Errorf("%w: unsupported raster CRS for mercator tiling", ErrSchemeUnsupported)
	}
	if minLon > maxLon {
		minLon, maxLon = maxLon, minLon
	}
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}

	zxys := geo.TilesInBounds(int(scheme.Zoom), minLon, minLat, maxLon, maxLat)
	tiles := make([]Tile, 0, len(zxys))
	for _, zxy := range zxys {
		tiles = append(tiles, NewMercatorTile(uint32(zxy[1]), uint32(zxy[2]), uint32(zxy[0]), geo.DefaultTileSize, geo.DefaultTileSize))
	}

	return TilingInfo{}, tiles, nil
}

func projectToWGS84(crs geo.CRS, x, y float64) (lon, lat float64, err error) {
	wgs84 := geo.NewCRS(4326)
	return geo.Transform(crs, wgs84, x, y)
}
