// Command geoseg-compare computes per-category TP/FP/FN/TN confusion masks
// between a reference label tile tree and a fused prediction tile tree
// sharing tile identities.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/cartograph/geoseg/internal/blobstore"
	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/compare"
	"github.com/cartograph/geoseg/internal/config"
	"github.com/cartograph/geoseg/internal/encode"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiledata"
	"github.com/cartograph/geoseg/internal/tiling"
)

func main() {
	var (
		referenceDir string
		fusedDir     string
		outputDir    string
		diffCategory string
	)

	flag.StringVar(&referenceDir, "reference", "", "Directory of reference label tiles")
	flag.StringVar(&fusedDir, "fused", "", "Directory of fused prediction tiles")
	flag.StringVar(&outputDir, "output", "", "Output directory for confusion-mask tiles")
	flag.StringVar(&diffCategory, "difference-category", "difference", "Category name for RGB difference masks")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geoseg-compare -reference <dir> -fused <dir> -output <dir>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if referenceDir == "" || fusedDir == "" || outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "geoseg-compare: ", log.LstdFlags)
	ctx := context.Background()

	cfg := config.Compare{
		Logger:             logger,
		ReferenceTilesDir:  referenceDir,
		FusedTilesDir:      fusedDir,
		OutputDir:          outputDir,
		Categories:         defaultCategories(),
		DifferenceCategory: diffCategory,
	}

	refTiles, refPaths, err := walkTiles(cfg.ReferenceTilesDir)
	if err != nil {
		cfg.Logger.Fatal(err)
	}
	fusedTiles, fusedPaths, err := walkTiles(cfg.FusedTilesDir)
	if err != nil {
		logger.Fatal(err)
	}

	if err := compare.CheckSubset(refTiles, fusedTiles); err != nil {
		logger.Fatal(err)
	}

	refByIdentity := make(map[any]string, len(refTiles))
	for i, t := range refTiles {
		refByIdentity[t.Identity()] = refPaths[i]
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

	compareCfg := compare.Config{Logger: cfg.Logger, Categories: cfg.Categories, DifferenceCategory: cfg.DifferenceCategory}

	for i, ft := range fusedTiles {
		refPath, ok := refByIdentity[ft.Identity()]
		if !ok {
			continue
		}
		refPixels, err := readTile(refPath)
		if err != nil {
			logger.Printf("%s: %v", refPath, err)
			continue
		}
		fusedPixels, err := readTile(fusedPaths[i])
		if err != nil {
			logger.Printf("%s: %v", fusedPaths[i], err)
			continue
		}

		pair := compare.TilePair{Tile: ft, Reference: refPixels, Fused: fusedPixels}
		results, err := compare.ComparePaletted(pair, compareCfg)
		if err != nil {
			logger.Printf("tile %v: %v", ft.Identity(), err)
			continue
		}
		for _, r := range results {
			data, err := enc.Encode(confusionImage(r.Mask))
			if err != nil {
				continue
			}
			relPath := r.Category + "/" + ft.RelativePath("."+enc.FileExtension())
			_ = sink.Put(ctx, relPath, data)
		}
	}
}

func defaultCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, IsActive: true},
		{Name: "foreground", PaletteIndex: 1, IsActive: true},
	}
}

func walkTiles(root string) ([]tiling.Tile, []string, error) {
	walker, err := tiling.NewDirWalker(root)
	if err != nil {
		return nil, nil, err
	}
	var tiles []tiling.Tile
	var paths []string
	for {
		t, ok, err := walker.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		tiles = append(tiles, t)
		paths = append(paths, walker.LastPath())
	}
	return tiles, paths, nil
}

func readTile(path string) (*raster.Pixels, error) {
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

func confusionImage(mask *raster.Pixels) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			c := compare.Palette[compare.Confusion(mask.At(x, y, 0))]
			img.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], c[3]})
		}
	}
	return img
}
