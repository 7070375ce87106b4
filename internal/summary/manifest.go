// Package summary persists the RasterTilingResults manifest (spec.md §3/§6)
// and renders the human-readable TXT companion.
package summary

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/tiling"
)

// TilingInfoJSON mirrors tiling.TilingInfo's field names onto the documented
// manifest schema (spec.md §6): tiling_source_offset_int,
// tiling_source_stride_float, tiling_source_size_int.
type TilingInfoJSON struct {
	TilingSourceOffsetInt  [2]int       `json:"tiling_source_offset_int"`
	TilingSourceStrideFloat [2]float64  `json:"tiling_source_stride_float"`
	TilingSourceSizeInt    [2]int       `json:"tiling_source_size_int"`
}

// StatisticSummary aggregates per-category pixel counts across every raster
// in a run, supplementing the original's per-raster-only logging
// (eot/fusion/tiling_analysis.py) with a real cross-raster total.
type StatisticSummary struct {
	PixelCountByCategory map[string]int64 `json:"pixel_count_by_category,omitempty"`
	RasterCount          int              `json:"raster_count"`
	TileCount            int              `json:"tile_count"`
}

// Add folds one raster's per-category pixel counts into the summary.
func (s *StatisticSummary) Add(perCategory map[string]int64, tileCount int) {
	if s.PixelCountByCategory == nil {
		s.PixelCountByCategory = make(map[string]int64)
	}
	for k, v := range perCategory {
		s.PixelCountByCategory[k] += v
	}
	s.RasterCount++
	s.TileCount += tileCount
}

// RasterTilingResult is one raster's tiling outcome, per spec.md §3/§6.
type RasterTilingResult struct {
	RasterFn         string           `json:"raster_fn"`
	RasterFp         string           `json:"raster_fp"`
	RasterCRS        int              `json:"raster_crs"`
	RasterTransform  [6]float64       `json:"raster_transform"`
	RasterWidth      int              `json:"raster_width"`
	RasterHeight     int              `json:"raster_height"`
	DiskTileSizeInt  [2]int           `json:"disk_tile_size_int"`
	TilingInfo       TilingInfoJSON   `json:"tiling_info"`
	TilingStatistic  map[string]int64 `json:"tiling_statistic,omitempty"`
}

// RasterTilingResults is the full manifest: scheme, per-raster results, and
// an optional aggregate statistic summary.
type RasterTilingResults struct {
	TilingScheme           SchemeJSON            `json:"tiling_scheme"`
	RasterTilingResultList []RasterTilingResult  `json:"raster_tiling_result_list"`
	StatisticSummary       *StatisticSummary     `json:"statistic_summary,omitempty"`
}

// SchemeJSON is the documented {name, ...scheme params...} shape for
// tiling.TilingScheme.
type SchemeJSON struct {
	Name           string  `json:"name"`
	Zoom           int     `json:"zoom,omitempty"`
	TileSizeX      float64 `json:"tile_size_x"`
	TileSizeY      float64 `json:"tile_size_y"`
	TileStrideX    float64 `json:"tile_stride_x"`
	TileStrideY    float64 `json:"tile_stride_y"`
	Alignment      string  `json:"alignment"`
	UseOverhang    bool    `json:"use_overhang"`
	AlignedToBase  bool    `json:"aligned_to_base"`
}

// FromScheme converts a tiling.TilingScheme into its JSON projection.
func FromScheme(s tiling.TilingScheme) SchemeJSON {
	name := "local_pixel"
	if s.Kind == tiling.SchemeMercator {
		name = "mercator"
	}
	return SchemeJSON{
		Name:          name,
		Zoom:          int(s.Zoom),
		TileSizeX:     s.X.TileSize,
		TileSizeY:     s.Y.TileSize,
		TileStrideX:   s.X.TileStride,
		TileStrideY:   s.Y.TileStride,
		Alignment:     s.Alignment.String(),
		UseOverhang:   s.UseOverhang,
		AlignedToBase: s.AlignedToBase,
	}
}

// FromTilingInfo converts a tiling.TilingInfo into its JSON projection.
func FromTilingInfo(info tiling.TilingInfo) TilingInfoJSON {
	return TilingInfoJSON{
		TilingSourceOffsetInt:   [2]int{info.TilingSourceOffsetX, info.TilingSourceOffsetY},
		TilingSourceStrideFloat: [2]float64{info.TilingSourceStrideX, info.TilingSourceStrideY},
		TilingSourceSizeInt:     [2]int{info.TilingSourceSizeX, info.TilingSourceSizeY},
	}
}

// TransformToArray flattens an affine into the documented [a,b,c,d,e,f] order.
func TransformToArray(a geo.Affine) [6]float64 {
	return [6]float64{a.A, a.B, a.C, a.D, a.E, a.F}
}

// WriteJSON serializes results to w as indented JSON matching spec.md §6's schema.
func WriteJSON(w io.Writer, results RasterTilingResults) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("summary: write manifest: %w", err)
	}
	return nil
}

// ReadJSON deserializes a manifest previously written by WriteJSON.
func ReadJSON(r io.Reader) (RasterTilingResults, error) {
	var results RasterTilingResults
	dec := json.NewDecoder(r)
	if err := dec.Decode(&results); err != nil {
		return RasterTilingResults{}, fmt.Errorf("summary: read manifest: %w", err)
	}
	return results, nil
}
