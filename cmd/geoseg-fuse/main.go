// Command geoseg-fuse reads a RasterTilingResults manifest and a directory
// of predicted tiles, classifies base vs. auxiliary tiles per raster, and
// writes fused tiles substituting each base tile's overlapping auxiliaries'
// reliable centers.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cartograph/geoseg/internal/blobstore"
	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/config"
	"github.com/cartograph/geoseg/internal/encode"
	"github.com/cartograph/geoseg/internal/fusion"
	"github.com/cartograph/geoseg/internal/metrics"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/summary"
	"github.com/cartograph/geoseg/internal/tiledata"
	"github.com/cartograph/geoseg/internal/tiling"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		manifestPath      string
		predictionsDir    string
		outputDir         string
		tolerance         float64
		bugThreshold      float64
		requireConsistent bool
		concurrency       int
	)

	flag.StringVar(&manifestPath, "manifest", "", "Path to the RasterTilingResults JSON manifest")
	flag.StringVar(&predictionsDir, "predictions", "", "Directory of predicted tiles (same tree layout as the manifest)")
	flag.StringVar(&outputDir, "output", "", "Output directory for fused tiles")
	flag.Float64Var(&tolerance, "tolerance", 1, "Base/auxiliary classification tolerance in pixels")
	flag.Float64Var(&bugThreshold, "bug-threshold", 16, "Deviation above which a stride mismatch is treated as a bug")
	flag.BoolVar(&requireConsistent, "require-consistent", true, "Reject rasters whose tiling scheme is inconsistent for fusion")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of rasters fused in parallel")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geoseg-fuse -manifest <manifest.json> -predictions <dir> -output <dir>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if manifestPath == "" || predictionsDir == "" || outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "geoseg-fuse: ", log.LstdFlags)
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	cfg := config.Fusion{
		Logger:            logger,
		ManifestPath:      manifestPath,
		PredictionsDir:    predictionsDir,
		OutputDir:         outputDir,
		Classify:          fusion.ClassifyOptions{Tolerance: tolerance, BugThreshold: bugThreshold},
		RequireConsistent: requireConsistent,
		Workers:           concurrency,
		Categories:        defaultCategories(),
	}

	f, err := os.Open(cfg.ManifestPath)
	if err != nil {
		cfg.Logger.Fatal(err)
	}
	results, err := summary.ReadJSON(f)
	f.Close()
	if err != nil {
		logger.Fatal(err)
	}

	sink, err := blobstore.NewLocalSink(cfg.OutputDir)
	if err != nil {
		logger.Fatal(err)
	}
	defer sink.Close()

	enc, err := encode.NewEncoder("png", 0)
	if err != nil {
		logger.Fatal(err)
	}

	ctx := context.Background()
	fuseCfg := fusion.Config{
		Logger:            cfg.Logger,
		Classify:          cfg.Classify,
		RequireConsistent: cfg.RequireConsistent,
		Workers:           cfg.Workers,
	}

	var inputs []fusion.RasterFusionInput
	for _, r := range results.RasterTilingResultList {
		walker, err := tiling.NewDirWalker(filepath.Join(cfg.PredictionsDir, r.RasterFn))
		if err != nil {
			logger.Printf("raster %s: %v", r.RasterFn, err)
			continue
		}
		in := fusion.RasterFusionInput{
			RasterName: r.RasterFn,
			RasterW:    r.RasterWidth,
			RasterH:    r.RasterHeight,
			StrideX:    r.TilingInfo.TilingSourceStrideFloat[0],
			StrideY:    r.TilingInfo.TilingSourceStrideFloat[1],
			AlignedToBase: results.TilingScheme.AlignedToBase,
			UseOverhang:   results.TilingScheme.UseOverhang,
			Info: tiling.TilingInfo{
				BaseStrideX: results.TilingScheme.TileStrideX * math.Round(math.Floor(results.TilingScheme.TileSizeX)/results.TilingScheme.TileStrideX),
				BaseStrideY: results.TilingScheme.TileStrideY * math.Round(math.Floor(results.TilingScheme.TileSizeY)/results.TilingScheme.TileStrideY),
				OptimizedBaseAlignmentUnsound: results.TilingScheme.Alignment == tiling.Optimized.String() && results.TilingScheme.AlignedToBase,
				TilingSourceOffsetX: r.TilingInfo.TilingSourceOffsetInt[0],
				TilingSourceOffsetY: r.TilingInfo.TilingSourceOffsetInt[1],
				TilingSourceStrideX: r.TilingInfo.TilingSourceStrideFloat[0],
				TilingSourceStrideY: r.TilingInfo.TilingSourceStrideFloat[1],
				TilingSourceSizeX:   r.TilingInfo.TilingSourceSizeInt[0],
				TilingSourceSizeY:   r.TilingInfo.TilingSourceSizeInt[1],
			},
		}
		for {
			tile, ok, err := walker.Next()
			if err != nil {
				logger.Printf("raster %s: %v", r.RasterFn, err)
				break
			}
			if !ok {
				break
			}
			px, err := readImage(walker.LastPath())
			if err != nil {
				logger.Printf("%s: %v", walker.LastPath(), err)
				continue
			}
			in.Tiles = append(in.Tiles, tile)
			in.Pixels = append(in.Pixels, px)
		}
		inputs = append(inputs, in)
	}

	fused, err := fusion.FuseAll(ctx, inputs, fuseCfg)
	if err != nil {
		logger.Fatal(err)
	}

	for _, rasterFused := range fused {
		for _, ft := range rasterFused {
			relPath := ft.Tile.RelativePath("." + enc.FileExtension())
			data, err := enc.Encode(tiledata.LabelImage(ft.Pixels, cfg.Categories))
			if err != nil {
				logger.Printf("%s: encode: %v", relPath, err)
				continue
			}
			if err := sink.Put(ctx, relPath, data); err != nil {
				logger.Printf("%s: write: %v", relPath, err)
				continue
			}
			reg.FusionSubstitutions.Inc()
		}
	}
}

func readImage(path string) (*raster.Pixels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return tiledata.DecodeLabelPixels(img)
}

// defaultCategories returns the background/foreground category set used
// when no dataset-specific category file is configured. Names and palette
// indices match the geoseg-tile, geoseg-aggregate and geoseg-compare
// defaults; palette colors are left zero, unlike geoseg-tile's.
func defaultCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, IsActive: true},
		{Name: "foreground", PaletteIndex: 1, IsActive: true},
	}
}
