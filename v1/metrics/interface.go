package metrics

import (
	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RegistryStatsSource is implemented by *aggregator.Registry.
type RegistryStatsSource interface {
	Stats() aggregator.StatsSnapshot
}

// SchedulerStatsSource is implemented by *flush.Scheduler.
type SchedulerStatsSource interface {
	Stats() flush.Stats
}

// MetricsCollector is the self-telemetry registry contract.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	// Register adds a collector under the constant service label.
	Register(c prometheus.Collector) error

	// Gather returns the current state of every registered metric.
	Gather() ([]*dto.MetricFamily, error)
}

var _ MetricsCollector = (*Metrics)(nil)
