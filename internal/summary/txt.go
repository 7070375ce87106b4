package summary

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// MetricsSnapshot is the minimal view of internal/metrics's counters this
// package needs, kept here (rather than importing internal/metrics
// directly) to avoid a summary→metrics→prometheus import for callers that
// only want manifest JSON.
type MetricsSnapshot struct {
	TilesWritten        int64
	TilesDroppedNoData  int64
	FusionSubstitutions int64
	AggregatePixels     int64
}

// WriteTXT renders the human-readable companion to the JSON manifest,
// per spec.md §6: per-raster real-world extent, source width/height, and
// disk-to-source ratio, formatted with go-humanize for byte/area readability.
func WriteTXT(w io.Writer, results RasterTilingResults, metrics *MetricsSnapshot) error {
	fmt.Fprintf(w, "Tiling scheme: %s\n", results.TilingScheme.Name)
	fmt.Fprintf(w, "Rasters tiled: %s\n\n", humanize.Comma(int64(len(results.RasterTilingResultList))))

	for _, r := range results.RasterTilingResultList {
		extentX := float64(r.RasterWidth) * r.RasterTransform[0]
		extentY := float64(r.RasterHeight) * r.RasterTransform[4]
		diskRatioX := 1.0
		if r.TilingInfo.TilingSourceSizeInt[0] > 0 {
			diskRatioX = float64(r.DiskTileSizeInt[0]) / float64(r.TilingInfo.TilingSourceSizeInt[0])
		}
		fmt.Fprintf(w, "raster %s\n", r.RasterFn)
		fmt.Fprintf(w, "  size: %s x %s px\n", humanize.Comma(int64(r.RasterWidth)), humanize.Comma(int64(r.RasterHeight)))
		fmt.Fprintf(w, "  extent: %.2f x %.2f world units\n", extentX, extentY)
		fmt.Fprintf(w, "  disk/source tile ratio: %.3f\n", diskRatioX)
	}

	if results.StatisticSummary != nil {
		s := results.StatisticSummary
		fmt.Fprintf(w, "\nstatistic summary (%s rasters, %s tiles)\n", humanize.Comma(int64(s.RasterCount)), humanize.Comma(int64(s.TileCount)))
		for cat, count := range s.PixelCountByCategory {
			fmt.Fprintf(w, "  %s: %s px\n", cat, humanize.Comma(count))
		}
	}

	if metrics != nil {
		fmt.Fprintf(w, "\nmetrics\n")
		fmt.Fprintf(w, "  tiles written: %s\n", humanize.Comma(metrics.TilesWritten))
		fmt.Fprintf(w, "  tiles dropped (nodata): %s\n", humanize.Comma(metrics.TilesDroppedNoData))
		fmt.Fprintf(w, "  fusion substitutions: %s\n", humanize.Comma(metrics.FusionSubstitutions))
		fmt.Fprintf(w, "  aggregate pixels written: %s\n", humanize.Comma(metrics.AggregatePixels))
	}
	return nil
}
