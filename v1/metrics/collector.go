package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports registry and scheduler stats as Prometheus metrics.
// Values are read at collection time; nothing is cached.
type Collector struct {
	registry  RegistryStatsSource
	scheduler SchedulerStatsSource

	droppedObservations *prometheus.Desc
	rejectedSeries      *prometheus.Desc
	kindConflicts       *prometheus.Desc
	series              *prometheus.Desc

	flushes        *prometheus.Desc
	sentBatches    *prometheus.Desc
	sentRecords    *prometheus.Desc
	sendFailures   *prometheus.Desc
	droppedBatches *prometheus.Desc
	lastCycle      *prometheus.Desc
}

// NewCollector creates a collector. Either source may be nil, in which case
// its metrics are neither described nor collected.
func NewCollector(namespace string, registry RegistryStatsSource, scheduler SchedulerStatsSource) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		registry:  registry,
		scheduler: scheduler,

		droppedObservations: newDesc(namespace, "dropped_observations_total", "Observations discarded because the value was invalid."),
		rejectedSeries:      newDesc(namespace, "rejected_series_total", "Series creations refused by the cardinality limit."),
		kindConflicts:       newDesc(namespace, "kind_conflicts_total", "Registrations refused because the name has another kind."),
		series:              newDesc(namespace, "series", "Number of live series in the registry."),

		flushes:        newDesc(namespace, "flushes_total", "Window rotations performed by the flush scheduler."),
		sentBatches:    newDesc(namespace, "sent_batches_total", "Batches delivered to the transport."),
		sentRecords:    newDesc(namespace, "sent_records_total", "Records delivered to the transport."),
		sendFailures:   newDesc(namespace, "send_failures_total", "Batches the transport failed to deliver."),
		droppedBatches: newDesc(namespace, "dropped_batches_total", "Batches dropped because the previous send was still in flight."),
		lastCycle:      newDesc(namespace, "last_flush_duration_seconds", "Duration of the most recent flush cycle."),
	}
}

func newDesc(namespace, name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	if c.registry != nil {
		ch <- c.droppedObservations
		ch <- c.rejectedSeries
		ch <- c.kindConflicts
		ch <- c.series
	}
	if c.scheduler != nil {
		ch <- c.flushes
		ch <- c.sentBatches
		ch <- c.sentRecords
		ch <- c.sendFailures
		ch <- c.droppedBatches
		ch <- c.lastCycle
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.registry != nil {
		s := c.registry.Stats()
		ch <- prometheus.MustNewConstMetric(c.droppedObservations, prometheus.CounterValue, float64(s.DroppedObservations))
		ch <- prometheus.MustNewConstMetric(c.rejectedSeries, prometheus.CounterValue, float64(s.RejectedSeries))
		ch <- prometheus.MustNewConstMetric(c.kindConflicts, prometheus.CounterValue, float64(s.KindConflicts))
		ch <- prometheus.MustNewConstMetric(c.series, prometheus.GaugeValue, float64(s.Series))
	}
	if c.scheduler != nil {
		s := c.scheduler.Stats()
		ch <- prometheus.MustNewConstMetric(c.flushes, prometheus.CounterValue, float64(s.Flushes))
		ch <- prometheus.MustNewConstMetric(c.sentBatches, prometheus.CounterValue, float64(s.SentBatches))
		ch <- prometheus.MustNewConstMetric(c.sentRecords, prometheus.CounterValue, float64(s.SentRecords))
		ch <- prometheus.MustNewConstMetric(c.sendFailures, prometheus.CounterValue, float64(s.SendFailures))
		ch <- prometheus.MustNewConstMetric(c.droppedBatches, prometheus.CounterValue, float64(s.DroppedBatches))
		ch <- prometheus.MustNewConstMetric(c.lastCycle, prometheus.GaugeValue, s.LastCycleDuration.Seconds())
	}
}
