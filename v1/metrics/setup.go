package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds an isolated Prometheus registry for the engine's own health:
// dropped observations, rejected series, failed and dropped flushes.
//
// No HTTP endpoint is started. Hosts that already expose Prometheus can
// merge Registry into their own gatherer.
type Metrics struct {
	// Registry is the Prometheus registry all collectors are registered in.
	Registry *prometheus.Registry

	namespace  string
	registerer prometheus.Registerer
}

// NewMetrics creates the registry and wraps it with a constant
// service="<cfg.ServiceName>" label.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "billing"})
//	m.Register(metrics.NewCollector("", registry, scheduler))
//	families, _ := m.Gather()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	return &Metrics{
		Registry:   registry,
		namespace:  cfg.Namespace,
		registerer: wrapped,
	}
}

// Register adds c to the registry under the service label.
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.registerer.Register(c)
}

// RegisterSources registers a Collector over the given stats sources using
// the configured namespace. Either source may be nil.
func (m *Metrics) RegisterSources(registry RegistryStatsSource, scheduler SchedulerStatsSource) (*Collector, error) {
	c := NewCollector(m.namespace, registry, scheduler)
	if err := m.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Gather implements prometheus.Gatherer.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.Registry.Gather()
}
