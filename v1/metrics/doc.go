// Package metrics exposes statsagg's own health as Prometheus metrics.
//
// The aggregation engine never fails a recording call and never retries a
// failed flush; instead it counts what it had to discard. This package turns
// those counters into Prometheus metrics in an isolated registry:
//
//	statsagg_dropped_observations_total
//	statsagg_rejected_series_total
//	statsagg_kind_conflicts_total
//	statsagg_series
//	statsagg_flushes_total
//	statsagg_sent_batches_total
//	statsagg_sent_records_total
//	statsagg_send_failures_total
//	statsagg_dropped_batches_total
//	statsagg_last_flush_duration_seconds
//
// Every metric carries a constant service label. The package does not serve
// HTTP; a host that already exposes Prometheus can add Metrics.Registry to
// its own gatherer.
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "billing"})
//	if _, err := m.RegisterSources(registry, scheduler); err != nil {
//		return err
//	}
package metrics
