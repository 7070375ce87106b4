package compare

import (
	"image/color"
	"testing"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

func testCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, PaletteColor: color.RGBA{0, 0, 0, 255}, IsActive: true},
		{Name: "building", PaletteIndex: 1, PaletteColor: color.RGBA{255, 0, 0, 255}, IsActive: true},
	}
}

func TestCheckSubset_Passes(t *testing.T) {
	ref := []tiling.Tile{tiling.NewMercatorTile(1, 2, 3, 256, 256)}
	fused := []tiling.Tile{tiling.NewMercatorTile(1, 2, 3, 256, 256)}
	if err := CheckSubset(ref, fused); err != nil {
		t.Errorf("CheckSubset: %v", err)
	}
}

func TestCheckSubset_Fails(t *testing.T) {
	ref := []tiling.Tile{tiling.NewMercatorTile(1, 2, 3, 256, 256)}
	fused := []tiling.Tile{tiling.NewMercatorTile(9, 9, 9, 256, 256)}
	if err := CheckSubset(ref, fused); err == nil {
		t.Error("expected ErrFusedSetNotSubset")
	}
}

func TestComparePaletted_Classifications(t *testing.T) {
	ref := raster.NewPixels(2, 1, 1, raster.DTypeUint8)
	ref.Set(0, 0, 0, 1) // building
	ref.Set(1, 0, 0, 0) // background

	fused := raster.NewPixels(2, 1, 1, raster.DTypeUint8)
	fused.Set(0, 0, 0, 1) // matches -> TP
	fused.Set(1, 0, 0, 1) // false positive building

	pair := TilePair{Tile: tiling.NewMercatorTile(0, 0, 0, 256, 256), Reference: ref, Fused: fused}
	results, err := ComparePaletted(pair, Config{Categories: testCategories()})
	if err != nil {
		t.Fatalf("ComparePaletted: %v", err)
	}

	var building Result
	for _, r := range results {
		if r.Category == "building" {
			building = r
		}
	}
	if Confusion(building.Mask.At(0, 0, 0)) != ConfusionTP {
		t.Errorf("pixel 0 = %v, want TP", building.Mask.At(0, 0, 0))
	}
	if Confusion(building.Mask.At(1, 0, 0)) != ConfusionFP {
		t.Errorf("pixel 1 = %v, want FP", building.Mask.At(1, 0, 0))
	}
}

func TestCompareRGB_MarksDifference(t *testing.T) {
	ref := raster.NewPixels(2, 1, 3, raster.DTypeUint8)
	ref.Set(0, 0, 0, 100)
	fused := raster.NewPixels(2, 1, 3, raster.DTypeUint8)
	fused.Set(0, 0, 0, 200)

	pair := TilePair{Tile: tiling.NewMercatorTile(0, 0, 0, 256, 256), Reference: ref, Fused: fused}
	result, err := CompareRGB(pair, Config{DifferenceCategory: "difference"})
	if err != nil {
		t.Fatalf("CompareRGB: %v", err)
	}
	if Confusion(result.Mask.At(0, 0, 0)) != ConfusionFP {
		t.Errorf("differing pixel not marked")
	}
	if Confusion(result.Mask.At(1, 0, 0)) != ConfusionTN {
		t.Errorf("matching pixel incorrectly marked")
	}
}
