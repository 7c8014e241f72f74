package metrics

import (
	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"go.uber.org/fx"
)

// FXModule provides *Metrics and registers a Collector over the registry and
// scheduler found in the container.
//
// Usage:
//
//	app := fx.New(
//	    aggregator.FXModule,
//	    flush.FXModule,
//	    metrics.FXModule,
//	    fx.Provide(func() metrics.Config { return metrics.Config{ServiceName: "billing"} }),
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) MetricsCollector { return m },
	),
	fx.Invoke(RegisterStatsCollector),
)

// CollectorParams groups the optional stats sources.
type CollectorParams struct {
	fx.In

	Metrics   *Metrics
	Registry  *aggregator.Registry `optional:"true"`
	Scheduler *flush.Scheduler     `optional:"true"`
}

// RegisterStatsCollector registers a Collector for whichever sources exist.
func RegisterStatsCollector(p CollectorParams) error {
	var (
		registry  RegistryStatsSource
		scheduler SchedulerStatsSource
	)
	if p.Registry != nil {
		registry = p.Registry
	}
	if p.Scheduler != nil {
		scheduler = p.Scheduler
	}
	_, err := p.Metrics.RegisterSources(registry, scheduler)
	return err
}
