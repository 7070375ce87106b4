package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry_SnapshotReflectsIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.TilesWritten.Add(3)
	r.TilesDroppedNoData.Inc()
	r.FusionSubstitutions.Add(5)
	r.AggregatePixels.Add(1000)

	snap := r.Snapshot()
	if snap.TilesWritten != 3 {
		t.Errorf("TilesWritten = %d, want 3", snap.TilesWritten)
	}
	if snap.TilesDroppedNoData != 1 {
		t.Errorf("TilesDroppedNoData = %d, want 1", snap.TilesDroppedNoData)
	}
	if snap.FusionSubstitutions != 5 {
		t.Errorf("FusionSubstitutions = %d, want 5", snap.FusionSubstitutions)
	}
	if snap.AggregatePixels != 1000 {
		t.Errorf("AggregatePixels = %d, want 1000", snap.AggregatePixels)
	}
}
