// Package metrics exposes the Prometheus counters/gauges each pipeline
// stage increments (ambient instrumentation, spec.md names no Non-goal
// excluding observability).
package metrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cartograph/geoseg/internal/summary"
)

// Registry bundles the counters every stage's Config can take a reference to.
type Registry struct {
	TilesWritten        prometheus.Counter
	TilesDroppedNoData  prometheus.Counter
	FusionSubstitutions prometheus.Counter
	AggregatePixels     prometheus.Counter
}

// NewRegistry constructs and registers the counters against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		TilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoseg_tiles_written_total",
			Help: "Total number of tiles written to disk.",
		}),
		TilesDroppedNoData: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoseg_tiles_dropped_nodata_total",
			Help: "Total number of tiles dropped for exceeding the nodata threshold.",
		}),
		FusionSubstitutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoseg_fusion_substitutions_total",
			Help: "Total number of auxiliary-tile reliable-center substitutions performed.",
		}),
		AggregatePixels: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoseg_aggregate_pixels_written_total",
			Help: "Total number of destination pixels written by the aggregation engine.",
		}),
	}
	reg.MustRegister(r.TilesWritten, r.TilesDroppedNoData, r.FusionSubstitutions, r.AggregatePixels)
	return r
}

// Snapshot reads the registry's current counter values into a
// summary.MetricsSnapshot for inclusion in the TXT report.
func (r *Registry) Snapshot() *summary.MetricsSnapshot {
	return &summary.MetricsSnapshot{
		TilesWritten:        counterValue(r.TilesWritten),
		TilesDroppedNoData:  counterValue(r.TilesDroppedNoData),
		FusionSubstitutions: counterValue(r.FusionSubstitutions),
		AggregatePixels:     counterValue(r.AggregatePixels),
	}
}

// counterValue reads a counter's current value in-process via Prometheus's
// own Write(*dto.Metric) collector API, without a push/scrape round-trip.
func counterValue(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}
