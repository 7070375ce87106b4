package summary

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cartograph/geoseg/internal/tiling"
)

func sampleResults() RasterTilingResults {
	return RasterTilingResults{
		TilingScheme: FromScheme(tiling.TilingScheme{
			Kind:      tiling.SchemeLocalPixel,
			X:         tiling.AxisParams{TileSize: 256, TileStride: 256},
			Y:         tiling.AxisParams{TileSize: 256, TileStride: 256},
			Alignment: tiling.CenteredToImage,
		}),
		RasterTilingResultList: []RasterTilingResult{
			{
				RasterFn:        "ortho.tif",
				RasterWidth:     1024,
				RasterHeight:    1024,
				RasterTransform: [6]float64{0.5, 0, 0, 0, -0.5, 0},
				DiskTileSizeInt: [2]int{256, 256},
				TilingInfo: TilingInfoJSON{
					TilingSourceSizeInt: [2]int{256, 256},
				},
			},
		},
		StatisticSummary: &StatisticSummary{
			PixelCountByCategory: map[string]int64{"building": 42},
			RasterCount:          1,
			TileCount:            16,
		},
	}
}

func TestWriteJSON_ReadJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	orig := sampleResults()
	if err := WriteJSON(&buf, orig); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.RasterTilingResultList[0].RasterFn != "ortho.tif" {
		t.Errorf("RasterFn = %q, want ortho.tif", got.RasterTilingResultList[0].RasterFn)
	}
	if got.StatisticSummary.PixelCountByCategory["building"] != 42 {
		t.Errorf("pixel count not round-tripped")
	}
}

func TestWriteTXT_IncludesRasterAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTXT(&buf, sampleResults(), &MetricsSnapshot{TilesWritten: 16})
	if err != nil {
		t.Fatalf("WriteTXT: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ortho.tif") {
		t.Error("TXT output missing raster filename")
	}
	if !strings.Contains(out, "tiles written: 16") {
		t.Error("TXT output missing metrics snapshot")
	}
}

func TestStatisticSummary_Add(t *testing.T) {
	var s StatisticSummary
	s.Add(map[string]int64{"building": 10}, 4)
	s.Add(map[string]int64{"building": 5, "road": 3}, 2)
	if s.PixelCountByCategory["building"] != 15 {
		t.Errorf("building = %d, want 15", s.PixelCountByCategory["building"])
	}
	if s.RasterCount != 2 || s.TileCount != 6 {
		t.Errorf("RasterCount/TileCount = %d/%d, want 2/6", s.RasterCount, s.TileCount)
	}
}
