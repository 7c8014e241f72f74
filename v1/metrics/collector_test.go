package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	stats flush.Stats
}

func (f fakeScheduler) Stats() flush.Stats { return f.stats }

func TestCollectorExportsRegistryStats(t *testing.T) {
	reg := aggregator.NewRegistry(aggregator.Config{MaxSeries: 1})
	reg.MustDistribution("latency").Observe(-1)
	reg.MustGauge("temp").Set(1)
	_, _ = reg.Counter("latency")

	m := NewMetrics(Config{ServiceName: "billing"})
	_, err := m.RegisterSources(reg, nil)
	require.NoError(t, err)

	expected := `
# HELP statsagg_dropped_observations_total Observations discarded because the value was invalid.
# TYPE statsagg_dropped_observations_total counter
statsagg_dropped_observations_total{service="billing"} 1
# HELP statsagg_kind_conflicts_total Registrations refused because the name has another kind.
# TYPE statsagg_kind_conflicts_total counter
statsagg_kind_conflicts_total{service="billing"} 1
# HELP statsagg_rejected_series_total Series creations refused by the cardinality limit.
# TYPE statsagg_rejected_series_total counter
statsagg_rejected_series_total{service="billing"} 1
# HELP statsagg_series Number of live series in the registry.
# TYPE statsagg_series gauge
statsagg_series{service="billing"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m, strings.NewReader(expected),
		"statsagg_dropped_observations_total",
		"statsagg_kind_conflicts_total",
		"statsagg_rejected_series_total",
		"statsagg_series",
	))
}

func TestCollectorExportsSchedulerStats(t *testing.T) {
	c := NewCollector("", nil, fakeScheduler{stats: flush.Stats{
		Flushes:           10,
		SentBatches:       7,
		SentRecords:       140,
		SendFailures:      2,
		DroppedBatches:    1,
		LastCycleDuration: 250 * time.Millisecond,
	}})

	assert.Equal(t, 6, testutil.CollectAndCount(c))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "statsagg_send_failures_total"))

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(c))

	families, err := registry.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		metric := mf.GetMetric()[0]
		switch {
		case metric.Counter != nil:
			values[mf.GetName()] = metric.GetCounter().GetValue()
		case metric.Gauge != nil:
			values[mf.GetName()] = metric.GetGauge().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		"statsagg_flushes_total":               10,
		"statsagg_sent_batches_total":          7,
		"statsagg_sent_records_total":          140,
		"statsagg_send_failures_total":         2,
		"statsagg_dropped_batches_total":       1,
		"statsagg_last_flush_duration_seconds": 0.25,
	}, values)
}

func TestNamespaceAndDuplicateRegistration(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc", Namespace: "custom"})
	reg := aggregator.NewRegistry(aggregator.Config{})

	_, err := m.RegisterSources(reg, nil)
	require.NoError(t, err)
	_, err = m.RegisterSources(reg, nil)
	assert.Error(t, err, "the same descriptors cannot be registered twice")

	families, err := m.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.True(t, strings.HasPrefix(mf.GetName(), "custom_"), mf.GetName())
	}
}

func TestDefaultCollectors(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc", EnableDefaultCollectors: true})
	families, err := m.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}
