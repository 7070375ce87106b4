package fusion

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

// Config configures a fusion run. Logger is an explicit handle (spec.md §9
// design note: "global logging singleton → a logger handle passed
// explicitly into each stage"), never a package-level default.
type Config struct {
	Logger          *log.Logger
	Classify        ClassifyOptions
	RequireConsistent bool // when true, CheckConsistency is enforced per raster
	Workers         int    // 0 = runtime.NumCPU()
}

// RasterFusionInput bundles everything Fuse needs for one raster: the
// complete tile set (base+aux) with associated pixel data, and the raster's
// TilingInfo as recorded in its RasterTilingResult.
type RasterFusionInput struct {
	RasterName string
	Info       tiling.TilingInfo
	RasterW    int
	RasterH    int
	StrideX    float64
	StrideY    float64
	AlignedToBase bool
	UseOverhang   bool
	Tiles      []tiling.Tile
	Pixels     []*raster.Pixels // parallel to Tiles
}

// FusedTile is one output of the fusion pass: a base tile with its pixel
// data after every overlapping auxiliary's reliable center has been
// substituted in.
type FusedTile struct {
	Tile   tiling.Tile
	Pixels *raster.Pixels
}

// FuseRaster runs spec.md §4.2's algorithm for a single raster: classify
// tiles, build an R-tree over auxiliaries, and substitute each base tile's
// overlapping auxiliaries' reliable centers.
func FuseRaster(in RasterFusionInput, cfg Config) ([]FusedTile, error) {
	if cfg.RequireConsistent {
		if err := CheckConsistency(in.Info, in.AlignedToBase, in.UseOverhang); err != nil {
			return nil, fmt.Errorf("fusion: raster %s: %w", in.RasterName, err)
		}
	}

	var baseTiles, auxTiles []tiling.Tile
	baseIdx := map[int]*raster.Pixels{}
	var auxPixels []*raster.Pixels

	for i, t := range in.Tiles {
		class, err := Classify(t, in.Info, in.RasterW, in.RasterH, cfg.Classify)
		if err != nil {
			return nil, fmt.Errorf("fusion: raster %s: tile %v: %w", in.RasterName, t.ImagePixel, err)
		}
		switch class {
		case ClassBase:
			baseTiles = append(baseTiles, t)
			baseIdx[len(baseTiles)-1] = in.Pixels[i]
		case ClassAuxiliary:
			auxTiles = append(auxTiles, t)
			auxPixels = append(auxPixels, in.Pixels[i])
		}
	}

	if len(baseTiles) == 0 {
		return nil, fmt.Errorf("fusion: raster %s: %w", in.RasterName, ErrNoBaseTiles)
	}

	index := NewAuxIndex(auxTiles)
	auxPixelByTile := make(map[tiling.ImagePixelTile]*raster.Pixels, len(auxTiles))
	for i, t := range auxTiles {
		auxPixelByTile[t.ImagePixel] = auxPixels[i]
	}

	out := make([]FusedTile, len(baseTiles))
	for i, bt := range baseTiles {
		basePixels := cloneOrPanic(baseIdx[i])
		for _, auxTile := range index.Query(bt) {
			auxPx := auxPixelByTile[auxTile.ImagePixel]
			if auxPx == nil {
				continue
			}
			Substitute(basePixels, bt, auxPx, auxTile, in.StrideX, in.StrideY)
		}
		out[i] = FusedTile{Tile: bt, Pixels: basePixels}
	}
	return out, nil
}

func cloneOrPanic(p *raster.Pixels) *raster.Pixels {
	clone := raster.NewPixels(p.Width, p.Height, p.Bands, p.DType)
	copy(clone.Data, p.Data)
	return clone
}

// FuseAll runs FuseRaster across rasters in parallel using errgroup, whose
// first-error-cancels semantics map directly onto "fusion aborts per §7":
// one malformed raster should not let the others silently continue against
// a caller that believes the whole run succeeded.
func FuseAll(ctx context.Context, inputs []RasterFusionInput, cfg Config) ([][]FusedTile, error) {
	results := make([][]FusedTile, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			fused, err := FuseRaster(in, cfg)
			if err != nil {
				return err
			}
			results[i] = fused
			if cfg.Logger != nil {
				cfg.Logger.Printf("fusion: raster %s: %d base tiles fused", in.RasterName, len(fused))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
