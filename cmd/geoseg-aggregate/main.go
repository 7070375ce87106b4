// Command geoseg-aggregate projects a tree of fused label tiles back onto a
// source raster's native pixel grid, producing a category-index raster, an
// RGBA color raster, a source overlay, a grid overlay, and (for the polygon
// strategy) per-category GeoJSON feature collections.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/cartograph/geoseg/internal/aggregate"
	"github.com/cartograph/geoseg/internal/blobstore"
	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/config"
	"github.com/cartograph/geoseg/internal/encode"
	"github.com/cartograph/geoseg/internal/metrics"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/rastertiff"
	"github.com/cartograph/geoseg/internal/tiledata"
	"github.com/cartograph/geoseg/internal/tiling"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		fusedTilesDir string
		sourceRaster  string
		outputDir     string
		usePolygon    bool
		gridOverlay   bool
		gridSpacing   int
	)

	flag.StringVar(&fusedTilesDir, "fused-tiles", "", "Directory of fused label tiles for one raster")
	flag.StringVar(&sourceRaster, "source", "", "Path to the source raster")
	flag.StringVar(&outputDir, "output", "", "Output directory for aggregated rasters")
	flag.BoolVar(&usePolygon, "polygon", false, "Use polygon projection instead of pixel projection")
	flag.BoolVar(&gridOverlay, "grid-overlay", false, "Draw a pixel grid overlay on top of the output")
	flag.IntVar(&gridSpacing, "grid-spacing", 256, "Grid overlay spacing in pixels")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geoseg-aggregate -fused-tiles <dir> -source <raster> -output <dir>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if fusedTilesDir == "" || sourceRaster == "" || outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "geoseg-aggregate: ", log.LstdFlags)
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	ctx := context.Background()

	cfg := config.Aggregate{
		Logger:            logger,
		FusedTilesDir:     fusedTilesDir,
		SourceRasterPath:  sourceRaster,
		OutputDir:         outputDir,
		Categories:        defaultCategories(),
		StrategyPolygon:   usePolygon,
		GridOverlay:       gridOverlay,
		GridSpacingPixels: gridSpacing,
	}

	r, err := rastertiff.NewRasterAdapter(cfg.SourceRasterPath, filepath.Base(cfg.SourceRasterPath))
	if err != nil {
		cfg.Logger.Fatal(err)
	}
	defer r.Close()

	dstTransform, _ := r.Transform()
	dstCRS, _ := r.CRS()

	walker, err := tiling.NewDirWalker(cfg.FusedTilesDir)
	if err != nil {
		logger.Fatal(err)
	}
	var inputs []aggregate.TileInput
	for {
		t, ok, err := walker.Next()
		if err != nil {
			logger.Fatal(err)
		}
		if !ok {
			break
		}
		labels, err := readLabels(walker.LastPath())
		if err != nil {
			logger.Printf("%s: %v", walker.LastPath(), err)
			continue
		}
		inputs = append(inputs, aggregate.TileInput{Tile: t, Labels: labels})
	}

	strategy := aggregate.StrategyPixel
	if cfg.StrategyPolygon {
		strategy = aggregate.StrategyPolygon
	}

	res, err := aggregate.Aggregate(inputs, r.Width(), r.Height(), dstTransform, dstCRS, nil, aggregate.Config{
		Logger:            cfg.Logger,
		Strategy:          strategy,
		Categories:        cfg.Categories,
		GridOverlay:       cfg.GridOverlay,
		GridSpacingPixels: cfg.GridSpacingPixels,
		GridColor:         [4]uint8{255, 255, 255, 255},
	})
	if err != nil {
		logger.Fatal(err)
	}
	reg.AggregatePixels.Add(float64AsCount(r.Width() * r.Height()))

	sink, err := blobstore.NewLocalSink(cfg.OutputDir)
	if err != nil {
		logger.Fatal(err)
	}
	defer sink.Close()

	writeGray(ctx, sink, "category_index.png", res.CategoryIndex)
	writeRGBA(ctx, sink, "color.png", res.ColorRGBA)
	writeRGBA(ctx, sink, "overlay.png", res.OverlayRGBA)
	writeRGBA(ctx, sink, "grid.png", res.GridRGBA)

	for name, seg := range res.Vectors {
		fc, err := seg.ToFeatureCollection()
		if err != nil {
			logger.Printf("category %s: %v", name, err)
			continue
		}
		data, err := json.MarshalIndent(fc, "", "  ")
		if err != nil {
			logger.Printf("category %s: %v", name, err)
			continue
		}
		_ = sink.Put(ctx, name+".geojson", data)
	}
}

func defaultCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, IsActive: true},
		{Name: "foreground", PaletteIndex: 1, IsActive: true},
	}
}

func readLabels(path string) (*raster.Pixels, error) {
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

func writeGray(ctx context.Context, sink *blobstore.LocalSink, name string, p *raster.Pixels) {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetGray(x, y, grayAt(p, x, y))
		}
	}
	data := encodePNG(img)
	_ = sink.Put(ctx, name, data)
}

func writeRGBA(ctx context.Context, sink *blobstore.LocalSink, name string, p *raster.Pixels) {
	if p == nil {
		return
	}
	data := encodePNG(rgbaImage(p))
	_ = sink.Put(ctx, name, data)
}

func float64AsCount(v int) float64 { return float64(v) }

func grayAt(p *raster.Pixels, x, y int) color.Gray {
	return color.Gray{Y: uint8(p.At(x, y, 0))}
}

func rgbaImage(p *raster.Pixels) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(p.At(x, y, 0)),
				G: uint8(p.At(x, y, 1)),
				B: uint8(p.At(x, y, 2)),
				A: uint8(p.At(x, y, 3)),
			})
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	enc, err := encode.NewEncoder("png", 0)
	if err != nil {
		return nil
	}
	data, err := enc.Encode(img)
	if err != nil {
		return nil
	}
	return data
}
