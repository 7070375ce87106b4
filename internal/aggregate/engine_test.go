package aggregate

import (
	"image/color"
	"testing"

	"github.com/cartograph/geoseg/internal/categories"
	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

func testCategories() categories.DatasetCategories {
	return categories.DatasetCategories{
		{Name: "background", PaletteIndex: 0, PaletteColor: color.RGBA{0, 0, 0, 255}, IsActive: true},
		{Name: "building", PaletteIndex: 1, PaletteColor: color.RGBA{255, 0, 0, 255}, IsActive: true},
	}
}

func identityPlacedTile() tiling.Tile {
	tile := tiling.NewImagePixelTile("r", 0, 0, 4, 4, 4, 4)
	identity := geo.Affine{A: 1, B: 0, C: 0, D: 0, E: 1, F: 0}
	tile.TileTransform = &identity
	crs := geo.NewCRS(4326)
	tile.CRS = &crs
	return tile
}

func TestAggregate_PixelProjection_NoTilesErrors(t *testing.T) {
	_, err := Aggregate(nil, 4, 4, geo.Affine{A: 1, E: 1}, geo.NewCRS(4326), nil, Config{Categories: testCategories()})
	if err != ErrNoTiles {
		t.Fatalf("err = %v, want ErrNoTiles", err)
	}
}

func TestAggregate_PixelProjection_PaintsCategoryIndex(t *testing.T) {
	labels := raster.NewPixels(4, 4, 1, raster.DTypeUint8)
	labels.Set(1, 1, 0, 1)

	inputs := []TileInput{{Tile: identityPlacedTile(), Labels: labels}}
	dstTransform := geo.Affine{A: 1, E: 1}

	res, err := Aggregate(inputs, 4, 4, dstTransform, geo.NewCRS(4326), nil, Config{
		Strategy:   StrategyPixel,
		Categories: testCategories(),
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if v := res.CategoryIndex.At(1, 1, 0); v != 1 {
		t.Errorf("CategoryIndex(1,1) = %v, want 1", v)
	}
	if v := res.ColorRGBA.At(1, 1, 0); v != 255 {
		t.Errorf("ColorRGBA.R(1,1) = %v, want 255", v)
	}
}

func TestAggregate_GridOverlay_DrawsLines(t *testing.T) {
	labels := raster.NewPixels(4, 4, 1, raster.DTypeUint8)
	inputs := []TileInput{{Tile: identityPlacedTile(), Labels: labels}}
	dstTransform := geo.Affine{A: 1, E: 1}

	res, err := Aggregate(inputs, 4, 4, dstTransform, geo.NewCRS(4326), nil, Config{
		Strategy:          StrategyPixel,
		Categories:        testCategories(),
		GridOverlay:       true,
		GridSpacingPixels: 2,
		GridColor:         [4]uint8{255, 255, 255, 255},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if v := res.GridRGBA.At(0, 0, 3); v != 255 {
		t.Errorf("grid line not drawn at origin")
	}
	if v := res.GridRGBA.At(1, 1, 3); v != 0 {
		t.Errorf("grid drawn off the configured spacing")
	}
}
