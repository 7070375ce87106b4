package fusion

import (
	"testing"

	"github.com/cartograph/geoseg/internal/tiling"
)

func TestClassify_BaseTileExactMultiple(t *testing.T) {
	info := tiling.TilingInfo{TilingSourceOffsetX: 1000, TilingSourceOffsetY: 1000, BaseStrideX: 2048, BaseStrideY: 2048}
	tile := tiling.NewImagePixelTile("r", 1000+2048, 1000, 2048, 2048, 2048, 2048)

	class, err := Classify(tile, info, 10000, 10000, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != ClassBase {
		t.Errorf("class = %v, want ClassBase", class)
	}
}

func TestClassify_AuxiliaryTile(t *testing.T) {
	info := tiling.TilingInfo{TilingSourceOffsetX: 1000, TilingSourceOffsetY: 1000, BaseStrideX: 2048, BaseStrideY: 2048}
	tile := tiling.NewImagePixelTile("r", 1000+1024, 1000, 2048, 2048, 2048, 2048)

	class, err := Classify(tile, info, 10000, 10000, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != ClassAuxiliary {
		t.Errorf("class = %v, want ClassAuxiliary", class)
	}
}

func TestClassify_WithinTolerance(t *testing.T) {
	info := tiling.TilingInfo{TilingSourceOffsetX: 1000, TilingSourceOffsetY: 1000, BaseStrideX: 2048, BaseStrideY: 2048}
	tile := tiling.NewImagePixelTile("r", 1000+2048+1, 1000, 2048, 2048, 2048, 2048)

	class, err := Classify(tile, info, 10000, 10000, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != ClassBase {
		t.Errorf("class = %v, want ClassBase (within tolerance)", class)
	}
}

func TestClassify_BugThresholdDetection(t *testing.T) {
	info := tiling.TilingInfo{TilingSourceOffsetX: 1000, TilingSourceOffsetY: 1000, BaseStrideX: 2048, BaseStrideY: 2048}
	tile := tiling.NewImagePixelTile("r", 1000+2048+5, 1000, 2048, 2048, 2048, 2048)

	_, err := Classify(tile, info, 10000, 10000, DefaultClassifyOptions())
	if err == nil {
		t.Error("expected stride quantization error for deviation in (1,16)")
	}
}

func TestClassify_OutsideRasterIsAuxiliary(t *testing.T) {
	info := tiling.TilingInfo{TilingSourceOffsetX: 0, TilingSourceOffsetY: 0, BaseStrideX: 2048, BaseStrideY: 2048}
	tile := tiling.NewImagePixelTile("r", -100, 0, 2048, 2048, 2048, 2048)

	class, err := Classify(tile, info, 10000, 10000, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if class != ClassAuxiliary {
		t.Errorf("class = %v, want ClassAuxiliary (hangs off raster edge)", class)
	}
}

func TestCheckConsistency(t *testing.T) {
	ok := tiling.TilingInfo{OptimizedBaseAlignmentUnsound: false}
	if err := CheckConsistency(ok, true, true); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	unsound := tiling.TilingInfo{OptimizedBaseAlignmentUnsound: true}
	if err := CheckConsistency(unsound, true, true); err == nil {
		t.Error("expected ErrOptimizedAlignmentUnsupported")
	}

	if err := CheckConsistency(ok, true, false); err == nil {
		t.Error("expected ErrOverhangRequired when use_overhang=false")
	}
}
