package fusion

import (
	"testing"

	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

func fillPixels(p *raster.Pixels, v float64) {
	for i := range p.Data {
		p.Data[i] = v
	}
}

// TestSubstitute_Idempotence covers spec.md §8 invariant 5: substituting a
// tile that is identical to the base tile at the same position leaves the
// base unchanged.
func TestSubstitute_Idempotence(t *testing.T) {
	base := raster.NewPixels(256, 256, 1, raster.DTypeUint8)
	fillPixels(base, 7)
	aux := raster.NewPixels(256, 256, 1, raster.DTypeUint8)
	fillPixels(aux, 7)

	baseTile := tiling.NewImagePixelTile("r", 0, 0, 256, 256, 256, 256)
	auxTile := tiling.NewImagePixelTile("r", 0, 0, 256, 256, 256, 256)

	Substitute(base, baseTile, aux, auxTile, 256, 256)

	for i, v := range base.Data {
		if v != 7 {
			t.Fatalf("pixel %d changed to %v, want unchanged 7", i, v)
		}
	}
}

// TestSubstitute_CenterReplaced covers spec.md §8 scenario 4: a base tile
// filled with B, substituted by an aux tile filled with C and shifted half a
// stride (a quarter tile) right and down, ends up with C where the aux's
// reliable center lands
// (base disk pixels 128..255 on both axes, which includes the base center).
func TestSubstitute_CenterReplaced(t *testing.T) {
	base := raster.NewPixels(256, 256, 1, raster.DTypeUint8)
	fillPixels(base, 1) // value B
	aux := raster.NewPixels(256, 256, 1, raster.DTypeUint8)
	fillPixels(aux, 2) // value C

	baseTile := tiling.NewImagePixelTile("r", 1024, 1024, 2048, 2048, 256, 256)
	auxTile := tiling.NewImagePixelTile("r", 1024+512, 1024+512, 2048, 2048, 256, 256)

	Substitute(base, baseTile, aux, auxTile, 1024, 1024)

	centerVal := base.At(128, 128, 0)
	if centerVal != 2 {
		t.Fatalf("center value = %v, want substituted C=2", centerVal)
	}
	// At minimum, substitution must not corrupt the whole tile to C — the
	// far corners (outside any reasonable reliable-center radius) must stay B.
	if v := base.At(0, 0, 0); v != 1 {
		t.Errorf("corner pixel = %v, want unchanged B=1", v)
	}
}

func TestReliableCenterRadius_PositiveForOverlappingStride(t *testing.T) {
	rx, ry := ReliableCenterRadius(1024, 1024, 256, 256, 2048, 2048)
	if rx <= 0 || ry <= 0 {
		t.Errorf("expected positive radius, got (%d,%d)", rx, ry)
	}
}
