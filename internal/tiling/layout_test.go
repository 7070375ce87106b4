package tiling

import (
	"math"
	"testing"
)

// assertFloorMultiple checks spec.md §8 invariant 1: every offset equals
// origin ± floor(k*stride) for some non-negative integer k.
func assertFloorMultiple(t *testing.T, axis AxisLayout, stride float64) {
	t.Helper()
	for _, off := range axis.Offsets {
		delta := off - axis.Origin
		matched := false
		for k := 0; k <= len(axis.Offsets); k++ {
			if delta == int(math.Floor(float64(k)*stride)) || delta == -int(math.Floor(float64(k)*stride)) {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("offset %d (origin %d, delta %d) is not origin ± floor(k*%v)", off, axis.Origin, delta, stride)
		}
	}
}

func TestComputeAxisLayout_Scenario1(t *testing.T) {
	// Raster 6000x6000, T=2048, S=2048, CenteredToImage, no overhang.
	axis := computeAxisLayout(6000, 2048, 2048, CenteredToImage, false, false)
	if len(axis.Offsets) != 2 {
		t.Fatalf("got %d offsets, want 2: %v", len(axis.Offsets), axis.Offsets)
	}
	assertFloorMultiple(t, axis, axis.UsedStride)
}

func TestComputeAxisLayout_AlignedToBase_ContainsBaseSubset(t *testing.T) {
	// Scenario 2: same raster, T=2048, S=1024, CenteredToImage, no overhang,
	// aligned_to_base=true. The base tiling (S=2048) offsets must be a
	// subset of the aligned-to-base strided tiling's offsets.
	base := computeAxisLayout(6000, 2048, 2048, CenteredToImage, false, false)
	strided := computeAxisLayout(6000, 2048, 1024, CenteredToImage, false, true)

	if strided.BaseStride != base.BaseStride {
		t.Fatalf("base stride mismatch: strided=%v base=%v", strided.BaseStride, base.BaseStride)
	}

	stridedSet := make(map[int]bool, len(strided.Offsets))
	for _, o := range strided.Offsets {
		stridedSet[o] = true
	}
	for _, o := range base.Offsets {
		if !stridedSet[o] {
			t.Errorf("base offset %d not present in aligned-to-base strided offsets %v", o, strided.Offsets)
		}
	}
}

func TestComputeAxisLayout_DistinctOffsetsPerAxis(t *testing.T) {
	axis := computeAxisLayout(6000, 2048, 1024, CenteredToImage, true, false)
	seen := map[int]bool{}
	for _, o := range axis.Offsets {
		if seen[o] {
			t.Fatalf("duplicate offset %d in %v", o, axis.Offsets)
		}
		seen[o] = true
	}
}

func TestComputeAxisLayout_AlignedToImageBorder_OriginZero(t *testing.T) {
	axis := computeAxisLayout(6000, 2048, 2048, AlignedToImageBorder, false, false)
	if axis.Origin != 0 {
		t.Errorf("origin = %d, want 0", axis.Origin)
	}
	if axis.Offsets[0] != 0 {
		t.Errorf("first offset = %d, want 0", axis.Offsets[0])
	}
}

func TestComputeAxisLayout_Optimized_SpansCenteredInRaster(t *testing.T) {
	axis := computeAxisLayout(6000, 2048, 2048, Optimized, false, false)
	first := axis.Offsets[0]
	last := axis.Offsets[len(axis.Offsets)-1]
	span := last + axis.TileSizeInt - first
	leftMargin := first
	rightMargin := 6000 - (last + axis.TileSizeInt)
	if diff := leftMargin - rightMargin; diff < -2 || diff > 2 {
		t.Errorf("optimized alignment not centered: left=%d right=%d span=%d", leftMargin, rightMargin, span)
	}
}

func TestNumTiles_OverhangVsFloor(t *testing.T) {
	// Overhang rounds up coverage; without it, coverage floors.
	withOverhang := numTiles(6000, 2048, 2048, true)
	withoutOverhang := numTiles(6000, 2048, 2048, false)
	if withOverhang < withoutOverhang {
		t.Errorf("overhang count %d should be >= non-overhang count %d", withOverhang, withoutOverhang)
	}
}

func TestNumTiles_NeverNegative(t *testing.T) {
	if n := numTiles(10, 2048, 2048, false); n < 0 {
		t.Errorf("numTiles returned negative: %d", n)
	}
}
