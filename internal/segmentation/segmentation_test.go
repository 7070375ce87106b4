package segmentation

import (
	"image/color"
	"testing"

	"github.com/paulmach/orb"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
)

func squareSeg() GeoSegmentation {
	return GeoSegmentation{
		Polygons: []orb.Polygon{{
			orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		}},
		CRS:       geo.NewCRS(4326),
		MaskColor: color.RGBA{255, 0, 0, 255},
		Category:  "test",
	}
}

func TestTransformTo_IdentityCRS_NoOp(t *testing.T) {
	seg := squareSeg()
	out, err := seg.TransformTo(geo.NewCRS(4326))
	if err != nil {
		t.Fatalf("TransformTo: %v", err)
	}
	if len(out.Polygons) != 1 || len(out.Polygons[0][0]) != 5 {
		t.Fatalf("unexpected polygon shape after no-op transform")
	}
}

func TestRasterize_FillsInterior(t *testing.T) {
	seg := squareSeg()
	transform := geo.Affine{A: 1, E: 1}
	px, err := seg.Rasterize(transform, 10, 10)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if v := px.At(5, 5, 3); v == 0 {
		t.Errorf("expected interior pixel to be filled, got alpha=0")
	}
}

func TestVectorize_TracesSquareMask(t *testing.T) {
	mask := raster.NewPixels(6, 6, 1, raster.DTypeUint8)
	for y := 1; y < 5; y++ {
		for x := 1; x < 5; x++ {
			mask.Set(x, y, 0, 1)
		}
	}
	transform := geo.Affine{A: 1, E: 1}
	seg, err := Vectorize(mask, transform, geo.NewCRS(4326), "test", color.RGBA{0, 255, 0, 255})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if len(seg.Polygons) == 0 {
		t.Fatal("expected at least one traced ring")
	}
}

func TestToFeatureCollection_SetsCategoryProperty(t *testing.T) {
	seg := squareSeg()
	fc, err := seg.ToFeatureCollection()
	if err != nil {
		t.Fatalf("ToFeatureCollection: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["category"] != "test" {
		t.Errorf("category property not set")
	}
}
