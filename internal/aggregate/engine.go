// Package aggregate implements the tile-to-raster aggregation engine
// (spec.md §4.3): projecting a tree of per-category tile masks back onto a
// raster's native pixel grid, either by back-projecting pixels directly or
// by vectorizing each tile mask into polygons and rasterizing the merged
// polygon set.
package aggregate

import (
	"errors"
	"fmt"
	"log"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/segmentation"
	"github.com/cartograph/geoseg/internal/tiling"
)

// ErrNoTiles is returned when an aggregation run is given an empty tile set.
var ErrNoTiles = errors.New("aggregate: no tiles to project")

// Strategy selects one of spec.md §4.3's two projection paths.
type Strategy int

const (
	StrategyPixel Strategy = iota
	StrategyPolygon
)

// Resampling selects how an overlay accumulator resamples source pixels
// that don't land exactly on a destination cell.
type Resampling int

const (
	ResamplingNearest Resampling = iota
	ResamplingBilinear
)

// Config configures one aggregation run over a single destination raster.
type Config struct {
	Logger     *log.Logger
	Strategy   Strategy
	Categories categories.DatasetCategories
	// OverlayResampling is passed to blendOverlay, which does not use it:
	// the source and color accumulators share one grid, so no pixel is
	// resampled. Label accumulators are always sampled nearest-neighbor.
	OverlayResampling Resampling
	GridOverlay       bool
	GridSpacingPixels int
	GridColor         [4]uint8
}

// TileInput is one source tile to project: its identity/placement and the
// decoded label pixels (single-band category index per pixel, matching
// categories.DatasetCategory.PaletteIndex).
type TileInput struct {
	Tile   tiling.Tile
	Labels *raster.Pixels
}

// Result bundles the four accumulator outputs spec.md §4.3 names plus the
// per-category vector features when StrategyPolygon was used.
type Result struct {
	CategoryIndex *raster.Pixels // grayscale, 1 band, category palette index
	ColorRGBA     *raster.Pixels // 4 bands, category palette color
	OverlayRGBA   *raster.Pixels // 4 bands, color raster alpha-blended onto source
	GridRGBA      *raster.Pixels // 4 bands, grid lines only, always drawn last
	Vectors       map[string]segmentation.GeoSegmentation
}

// Aggregate runs the configured projection strategy for one destination
// raster, producing accumulators at (width, height) in the raster's pixel
// grid. dstTransform is the destination raster's pixel→world affine;
// dstCRS its CRS. sourceRGBA, if non-nil, is alpha-blended under the color
// accumulator to produce OverlayRGBA.
func Aggregate(inputs []TileInput, width, height int, dstTransform geo.Affine, dstCRS geo.CRS, sourceRGBA *raster.Pixels, cfg Config) (*Result, error) {
	if len(inputs) == 0 {
		return nil, ErrNoTiles
	}

	res := &Result{
		CategoryIndex: raster.NewPixels(width, height, 1, raster.DTypeUint8),
		ColorRGBA:     raster.NewPixels(width, height, 4, raster.DTypeUint8),
	}

	switch cfg.Strategy {
	case StrategyPixel:
		if err := projectPixels(inputs, res, dstTransform, cfg); err != nil {
			return nil, err
		}
	case StrategyPolygon:
		vectors, err := projectPolygons(inputs, res, dstTransform, dstCRS, cfg)
		if err != nil {
			return nil, err
		}
		res.Vectors = vectors
	default:
		return nil, fmt.Errorf("aggregate: unknown strategy %d", cfg.Strategy)
	}

	res.OverlayRGBA = blendOverlay(sourceRGBA, res.ColorRGBA, width, height, cfg.OverlayResampling)

	res.GridRGBA = raster.NewPixels(width, height, 4, raster.DTypeUint8)
	if cfg.GridOverlay {
		drawGrid(res.GridRGBA, cfg)
		drawGrid(res.OverlayRGBA, cfg)
	}

	if cfg.Logger != nil {
		cfg.Logger.Printf("aggregate: projected %d tiles into %dx%d raster (strategy=%d)", len(inputs), width, height, cfg.Strategy)
	}
	return res, nil
}

// projectPixels implements spec.md §4.3's pixel-projection path: for every
// destination pixel covered by a tile, back-project through
// tile.TileTransform.Invert() ∘ dstTransform to find the source tile pixel,
// and overwrite the category accumulator (later tiles in input order win,
// matching DatasetCategories overwrite order applied upstream by the
// caller's tile ordering).
func projectPixels(inputs []TileInput, res *Result, dstTransform geo.Affine, cfg Config) error {
	invDst, ok := dstTransform.Invert()
	if !ok {
		return fmt.Errorf("aggregate: destination transform not invertible")
	}

	for _, in := range inputs {
		if in.Tile.TileTransform == nil {
			continue
		}
		tileToDst := invDst.Mul(*in.Tile.TileTransform)
		invTileToDst, ok := tileToDst.Invert()
		if !ok {
			continue
		}

		w, h := res.CategoryIndex.Width, res.CategoryIndex.Height
		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < w; dx++ {
				sx, sy := invTileToDst.Apply(float64(dx)+0.5, float64(dy)+0.5)
				sxi, syi := int(sx), int(sy)
				if sxi < 0 || syi < 0 || sxi >= in.Labels.Width || syi >= in.Labels.Height {
					continue
				}
				idx := in.Labels.At(sxi, syi, 0)
				cat, ok := cfg.Categories.ByPaletteIndex(uint8(idx))
				if !ok {
					continue
				}
				res.CategoryIndex.Set(dx, dy, 0, idx)
				res.ColorRGBA.Set(dx, dy, 0, float64(cat.PaletteColor.R))
				res.ColorRGBA.Set(dx, dy, 1, float64(cat.PaletteColor.G))
				res.ColorRGBA.Set(dx, dy, 2, float64(cat.PaletteColor.B))
				res.ColorRGBA.Set(dx, dy, 3, float64(cat.PaletteColor.A))
			}
		}
	}
	return nil
}

// projectPolygons implements spec.md §4.3's polygon-projection path: each
// tile's per-category mask is vectorized into EPSG:4326 polygons, merged
// per category across all tiles, then rasterized into the destination grid.
func projectPolygons(inputs []TileInput, res *Result, dstTransform geo.Affine, dstCRS geo.CRS, cfg Config) (map[string]segmentation.GeoSegmentation, error) {
	merged := make(map[string]segmentation.GeoSegmentation)

	for _, in := range inputs {
		if in.Tile.TileTransform == nil {
			continue
		}
		for _, cat := range cfg.Categories.Active() {
			mask := categoryMask(in.Labels, cat.PaletteIndex)
			if mask == nil {
				continue
			}
			tileCRS := geo.NewCRS(4326)
			if in.Tile.CRS != nil {
				tileCRS = *in.Tile.CRS
			}
			seg, err := segmentation.Vectorize(mask, *in.Tile.TileTransform, tileCRS, cat.Name, cat.PaletteColor)
			if err != nil {
				return nil, fmt.Errorf("aggregate: vectorize tile for category %s: %w", cat.Name, err)
			}
			wgs84, err := seg.TransformTo(geo.NewCRS(4326))
			if err != nil {
				return nil, err
			}
			existing, found := merged[cat.Name]
			if !found {
				merged[cat.Name] = wgs84
				continue
			}
			existing.Polygons = append(existing.Polygons, wgs84.Polygons...)
			merged[cat.Name] = existing
		}
	}

	for _, cat := range cfg.Categories {
		seg, ok := merged[cat.Name]
		if !ok {
			continue
		}
		dst, err := seg.TransformTo(dstCRS)
		if err != nil {
			return nil, err
		}
		rasterized, err := dst.Rasterize(dstTransform, res.CategoryIndex.Width, res.CategoryIndex.Height)
		if err != nil {
			return nil, err
		}
		overwriteFromMask(res, rasterized, cat)
	}

	return merged, nil
}

// categoryMask returns a single-band 0/1 mask over labels for the given
// palette index, or nil if the category doesn't appear anywhere in labels.
func categoryMask(labels *raster.Pixels, paletteIndex uint8) *raster.Pixels {
	mask := raster.NewPixels(labels.Width, labels.Height, 1, raster.DTypeUint8)
	found := false
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			if uint8(labels.At(x, y, 0)) == paletteIndex {
				mask.Set(x, y, 0, 1)
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return mask
}

// overwriteFromMask paints res's accumulators wherever rasterized's alpha
// band is nonzero, implementing the "later category in DatasetCategories
// order wins" overwrite rule (projectPolygons calls it for each category in
// declared order).
func overwriteFromMask(res *Result, rasterized *raster.Pixels, cat categories.DatasetCategory) {
	w, h := res.CategoryIndex.Width, res.CategoryIndex.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rasterized.At(x, y, 3) == 0 {
				continue
			}
			res.CategoryIndex.Set(x, y, 0, float64(cat.PaletteIndex))
			res.ColorRGBA.Set(x, y, 0, float64(cat.PaletteColor.R))
			res.ColorRGBA.Set(x, y, 1, float64(cat.PaletteColor.G))
			res.ColorRGBA.Set(x, y, 2, float64(cat.PaletteColor.B))
			res.ColorRGBA.Set(x, y, 3, float64(cat.PaletteColor.A))
		}
	}
}

// blendOverlay alpha-blends color over source pixel by pixel. Both rasters
// are read on the same (w, h) grid, so the Resampling argument is ignored.
func blendOverlay(source, color *raster.Pixels, w, h int, _ Resampling) *raster.Pixels {
	out := raster.NewPixels(w, h, 4, raster.DTypeUint8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := color.At(x, y, 3) / 255
			for b := 0; b < 3; b++ {
				srcV := 0.0
				if source != nil && b < source.Bands {
					srcV = source.At(x, y, b)
				}
				out.Set(x, y, b, srcV*(1-a)+color.At(x, y, b)*a)
			}
			out.Set(x, y, 3, 255)
		}
	}
	return out
}

// drawGrid paints grid lines spaced cfg.GridSpacingPixels apart. Aggregate
// calls it after blendOverlay, on GridRGBA and on OverlayRGBA, so grid
// pixels overwrite the category overlay.
func drawGrid(dst *raster.Pixels, cfg Config) {
	spacing := cfg.GridSpacingPixels
	if spacing <= 0 {
		spacing = 256
	}
	w, h := dst.Width, dst.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%spacing == 0 || y%spacing == 0 {
				dst.Set(x, y, 0, float64(cfg.GridColor[0]))
				dst.Set(x, y, 1, float64(cfg.GridColor[1]))
				dst.Set(x, y, 2, float64(cfg.GridColor[2]))
				dst.Set(x, y, 3, float64(cfg.GridColor[3]))
			}
		}
	}
}
