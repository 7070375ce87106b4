// Command geoseg-tile splits a georeferenced raster into a tile tree on
// disk, according to a tiling scheme, and persists the RasterTilingResults
// manifest alongside it.
package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cartograph/geoseg/internal/blobstore"
	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/config"
	"github.com/cartograph/geoseg/internal/encode"
	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/metrics"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/rastertiff"
	"github.com/cartograph/geoseg/internal/summary"
	"github.com/cartograph/geoseg/internal/tiledata"
	"github.com/cartograph/geoseg/internal/tiling"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		scheme          string
		zoom            int
		tileSize        int
		stride          int
		alignment       string
		useOverhang     bool
		alignedBase     bool
		outputDir       string
		concurrency     int
		verbose         bool
		buildOverviews  bool
		overviewMinZoom int
		webpQuality     int
		writeSidecars   bool
		labelMode       bool
		writeCover      bool
	)

	flag.StringVar(&scheme, "scheme", "local_pixel", "Tiling scheme: mercator, local_pixel, local_meter")
	flag.IntVar(&zoom, "zoom", 14, "Zoom level (mercator scheme only)")
	flag.IntVar(&tileSize, "tile-size", 256, "Tile size in pixels (or meters for local_meter)")
	flag.IntVar(&stride, "tile-stride", 256, "Tile stride in pixels (or meters for local_meter)")
	flag.StringVar(&alignment, "alignment", "centered_to_image", "Origin alignment: centered_to_image, aligned_to_image_border, optimized")
	flag.BoolVar(&useOverhang, "use-overhang", true, "Round tile counts up (ceil) instead of down (floor)")
	flag.BoolVar(&alignedBase, "aligned-to-base", false, "Quantize stride to a base-stride divisor of tile size")
	flag.StringVar(&outputDir, "output", "", "Output directory for the tile tree")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel workers")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&buildOverviews, "build-overviews", false, "Build a lower-zoom preview pyramid (mercator scheme only)")
	flag.IntVar(&overviewMinZoom, "overview-min-zoom", 0, "Lowest zoom level to generate when -build-overviews is set")
	flag.IntVar(&webpQuality, "webp-quality", 0, "Encode tiles as WebP at this quality (1-100) instead of PNG; 0 uses PNG")
	flag.BoolVar(&writeSidecars, "write-sidecars", false, "Write a .aux.xml sidecar with each tile's transform and CRS")
	flag.BoolVar(&labelMode, "label", false, "Write single-band palette (P-mode) label tiles instead of RGBA imagery tiles, classifying pixels against the built-in category set")
	flag.BoolVar(&writeCover, "write-cover", false, "Write a cover.csv listing every emitted tile's identity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geoseg-tile [flags] <input-raster...>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if outputDir == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "geoseg-tile: ", log.LstdFlags)

	alignVal, err := parseAlignment(alignment)
	if err != nil {
		logger.Fatal(err)
	}

	ts := tiling.TilingScheme{
		Alignment:     alignVal,
		UseOverhang:   useOverhang,
		AlignedToBase: alignedBase,
		X:             tiling.AxisParams{TileSize: float64(tileSize), TileStride: float64(stride)},
		Y:             tiling.AxisParams{TileSize: float64(tileSize), TileStride: float64(stride)},
	}
	switch scheme {
	case "mercator":
		ts.Kind = tiling.SchemeMercator
		ts.Zoom = uint32(zoom)
	case "local_pixel":
		ts.Kind = tiling.SchemeLocalPixel
	case "local_meter":
		ts.Kind = tiling.SchemeLocalMeter
	default:
		logger.Fatalf("unknown scheme %q", scheme)
	}

	cfg := config.Tiling{
		Logger:        logger,
		InputPaths:    flag.Args(),
		OutputDir:     outputDir,
		Scheme:        ts,
		LayoutOptions: tiling.DefaultLayoutOptions(),
		Workers:       concurrency,
		WriteSidecars: writeSidecars,
		WebPQuality:   webpQuality,
		LabelMode:     labelMode,
		Categories:    defaultCategories(),
		WriteCoverCSV: writeCover,
	}

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	sink, err := blobstore.NewLocalSink(cfg.OutputDir)
	if err != nil {
		cfg.Logger.Fatal(err)
	}
	defer sink.Close()

	if verbose {
		tiledata.ComputeMemoryLimit(tiledata.DefaultMemoryPressurePercent, true)
	}

	ctx := context.Background()
	results := summary.RasterTilingResults{TilingScheme: summary.FromScheme(cfg.Scheme)}
	var stat summary.StatisticSummary

	format := "png"
	if cfg.WebPQuality > 0 && !cfg.LabelMode {
		format = "webp"
	}

	var allTiles []tiling.Tile

	for _, inputPath := range cfg.InputPaths {
		name := filepath.Base(inputPath)
		r, err := rastertiff.NewRasterAdapter(inputPath, name)
		if err != nil {
			logger.Printf("skipping %s: %v", inputPath, err)
			continue
		}

		info, tiles, err := tiling.ComputeLayout(r, cfg.Scheme, name)
		if err != nil {
			r.Close()
			logger.Printf("layout failed for %s: %v", inputPath, err)
			continue
		}

		enc, err := encode.NewEncoder(format, cfg.WebPQuality)
		if err != nil {
			logger.Fatal(err)
		}
		baseTiles := make(map[[2]int]*tiledata.TileData)
		var baseZoom uint32
		for _, t := range tiles {
			relPath := t.RelativePath("." + enc.FileExtension())
			px, err := readTilePixels(ctx, r, t)
			if err != nil {
				logger.Printf("%s: %v", relPath, err)
				continue
			}
			var img image.Image
			if cfg.LabelMode {
				img = tiledata.LabelImage(tiledata.ClassifyLabelPixels(px, cfg.Categories), cfg.Categories)
			} else {
				img = pixelsToImage(px)
			}
			data, err := enc.Encode(img)
			if err != nil {
				logger.Printf("%s: encode: %v", relPath, err)
				continue
			}
			if err := sink.Put(ctx, relPath, data); err != nil {
				logger.Printf("%s: write: %v", relPath, err)
				continue
			}
			reg.TilesWritten.Inc()
			allTiles = append(allTiles, t)
			if cfg.WriteSidecars {
				if err := writeSidecar(ctx, sink, t, relPath); err != nil {
					logger.Printf("%s: sidecar: %v", relPath, err)
				}
			}
			// Overview pyramids composite by resampling RGBA color; a label
			// tile's pixel values are category indices, not colors, so building
			// one here would blend unrelated categories together. Skipped for
			// -label until the pyramid builder gets an index-preserving
			// (nearest-neighbor) path.
			if buildOverviews && !cfg.LabelMode && t.Kind == tiling.KindMercator {
				baseZoom = t.Mercator.Z
				baseTiles[[2]int{int(t.Mercator.X), int(t.Mercator.Y)}] = tiledata.FromImage(img, tileSize)
			}
		}

		if buildOverviews && len(baseTiles) > 0 {
			overviewSink := &mercatorOverviewSink{sink: sink, ext: "." + enc.FileExtension()}
			err := tiledata.BuildOverviewPyramid(ctx, baseTiles, int(baseZoom), overviewMinZoom, tileSize, tiledata.ResamplingBilinear, verbose, overviewSink, func(td *tiledata.TileData) ([]byte, error) {
				return enc.Encode(td.AsImage())
			})
			if err != nil {
				logger.Printf("%s: overview pyramid: %v", name, err)
			}
		}

		transform, _ := r.Transform()
		results.RasterTilingResultList = append(results.RasterTilingResultList, summary.RasterTilingResult{
			RasterFn:        name,
			RasterFp:        inputPath,
			RasterTransform: summary.TransformToArray(transform),
			RasterWidth:     r.Width(),
			RasterHeight:    r.Height(),
			DiskTileSizeInt: [2]int{tileSize, tileSize},
			TilingInfo:      summary.FromTilingInfo(info),
		})
		stat.Add(nil, len(tiles))
		r.Close()
	}
	results.StatisticSummary = &stat

	if cfg.WriteCoverCSV {
		coverPath := filepath.Join(outputDir, "cover.csv")
		cf, err := os.Create(coverPath)
		if err != nil {
			logger.Fatal(err)
		}
		if err := tiledata.WriteCoverCSV(cf, allTiles); err != nil {
			logger.Printf("cover.csv: %v", err)
		}
		cf.Close()
	}

	manifestPath := filepath.Join(outputDir, manifestFileName(ts.Kind))
	f, err := os.Create(manifestPath)
	if err != nil {
		logger.Fatal(err)
	}
	defer f.Close()
	if err := summary.WriteJSON(f, results); err != nil {
		logger.Fatal(err)
	}

	txtPath := filepath.Join(outputDir, manifestTXTName(ts.Kind))
	txtFile, err := os.Create(txtPath)
	if err != nil {
		logger.Fatal(err)
	}
	defer txtFile.Close()
	_ = summary.WriteTXT(txtFile, results, reg.Snapshot())
}

// defaultCategories returns the background/foreground category set used
// when no dataset-specific category file is configured. Names and palette
// indices match the geoseg-fuse, geoseg-aggregate and geoseg-compare
// defaults; only this set also assigns palette colors (black, red).
func defaultCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, IsActive: true, PaletteColor: color.RGBA{A: 255}},
		{Name: "foreground", PaletteIndex: 1, IsActive: true, PaletteColor: color.RGBA{R: 255, A: 255}},
	}
}

func parseAlignment(s string) (tiling.Alignment, error) {
	switch s {
	case "centered_to_image":
		return tiling.CenteredToImage, nil
	case "aligned_to_image_border":
		return tiling.AlignedToImageBorder, nil
	case "optimized":
		return tiling.Optimized, nil
	default:
		return 0, fmt.Errorf("unknown alignment %q", s)
	}
}

func manifestFileName(k tiling.SchemeKind) string {
	if k == tiling.SchemeMercator {
		return "spherical_mercator_tiles.json"
	}
	return "image_pixel_tiles.json"
}

func manifestTXTName(k tiling.SchemeKind) string {
	if k == tiling.SchemeMercator {
		return "spherical_mercator_tiles.txt"
	}
	return "image_pixel_tiles.txt"
}

func readTilePixels(ctx context.Context, r raster.Raster, t tiling.Tile) (*raster.Pixels, error) {
	switch t.Kind {
	case tiling.KindImagePixel:
		p := t.ImagePixel
		return r.ReadWindow(ctx, int(p.SrcX), int(p.SrcY), int(p.SrcW), int(p.SrcH))
	case tiling.KindMercator:
		return reprojectMercatorTile(ctx, r, t.Mercator, int(t.DiskW))
	default:
		return nil, fmt.Errorf("unsupported tile kind %d", t.Kind)
	}
}

// reprojectMercatorTile back-projects a source raster's pixels into a single
// XYZ web-map tile's EPSG:3857 grid, reading the full source window once per
// raster and reusing internal/raster's reprojection kernel rather than the
// per-pixel COG sampler the teacher used for this step.
func reprojectMercatorTile(ctx context.Context, r raster.Raster, m tiling.MercatorTile, tileSize int) (*raster.Pixels, error) {
	srcTransform, okT := r.Transform()
	srcCRS, okC := r.CRS()
	if !okT || !okC {
		return nil, raster.ErrInvalidGeoReference
	}
	src, err := r.ReadWindow(ctx, 0, 0, r.Width(), r.Height())
	if err != nil {
		return nil, err
	}

	dstTransform, dstCRS := mercatorTileTransform(m, tileSize)

	return raster.Reproject(src, srcTransform, srcCRS, dstTransform, dstCRS, tileSize, tileSize, raster.ResamplingBilinear)
}

// mercatorTileTransform derives an XYZ tile's pixel->EPSG:3857 affine from its
// identity alone, mirroring the formula geo.TileBounds already uses for the
// tile's lon/lat extent.
func mercatorTileTransform(m tiling.MercatorTile, tileSize int) (geo.Affine, geo.CRS) {
	minLon, minLat, maxLon, maxLat := geo.TileBounds(int(m.Z), int(m.X), int(m.Y))
	merc := &geo.WebMercatorProj{}
	minX, minY := merc.FromWGS84(minLon, minLat)
	maxX, maxY := merc.FromWGS84(maxLon, maxLat)
	pixelSizeX := (maxX - minX) / float64(tileSize)
	pixelSizeY := (maxY - minY) / float64(tileSize)
	return geo.FromOriginAndScale(minX, maxY, pixelSizeX, pixelSizeY), geo.NewCRS(3857)
}

// pamSidecar mirrors the layout of a GDAL .aux.xml PAM sidecar: just enough
// structure to round-trip a tile's geotransform and EPSG code without
// depending on the tile tree's encoder to preserve geo-metadata in-band.
type pamSidecar struct {
	XMLName      xml.Name `xml:"PAMDataset"`
	SRS          string   `xml:"SRS"`
	GeoTransform string   `xml:"GeoTransform"`
}

// writeSidecar emits a .aux.xml file next to relPath carrying the tile's
// placed geotransform and CRS, so downstream tools can georeference a tile
// without re-deriving it from the tile tree's naming convention.
func writeSidecar(ctx context.Context, sink *blobstore.LocalSink, t tiling.Tile, relPath string) error {
	var transform geo.Affine
	var crs geo.CRS
	switch {
	case t.TileTransform != nil && t.CRS != nil:
		transform, crs = *t.TileTransform, *t.CRS
	case t.Kind == tiling.KindMercator:
		transform, crs = mercatorTileTransform(t.Mercator, int(t.DiskW))
	default:
		return nil // no geo-reference to describe
	}

	doc := pamSidecar{
		SRS: fmt.Sprintf("EPSG:%d", crs.EPSG),
		GeoTransform: fmt.Sprintf("%.10f, %.10f, %.10f, %.10f, %.10f, %.10f",
			transform.C, transform.A, transform.B, transform.F, transform.D, transform.E,
		),
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return sink.Put(ctx, relPath+".aux.xml", data)
}

// mercatorOverviewSink adapts a blobstore.Sink to tiledata.PyramidSink,
// writing overview tiles under the same spherical_mercator_tiles/ layout
// as the base zoom level.
type mercatorOverviewSink struct {
	sink *blobstore.LocalSink
	ext  string
}

func (s *mercatorOverviewSink) PutOverviewTile(ctx context.Context, zoom, x, y int, data []byte) error {
	t := tiling.NewMercatorTile(uint32(x), uint32(y), uint32(zoom), 0, 0)
	return s.sink.Put(ctx, t.RelativePath(s.ext), data)
}

func pixelsToImage(p *raster.Pixels) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			r, g, b, a := uint8(0), uint8(0), uint8(0), uint8(255)
			if p.Bands > 0 {
				r = uint8(p.At(x, y, 0))
			}
			if p.Bands > 1 {
				g = uint8(p.At(x, y, 1))
			}
			if p.Bands > 2 {
				b = uint8(p.At(x, y, 2))
			}
			if p.Bands > 3 {
				a = uint8(p.At(x, y, 3))
			}
			img.SetRGBA(x, y, color.RGBA{r, g, b, a})
		}
	}
	return img
}
