package aggregator

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestDistributionSummary(t *testing.T) {
	reg := NewRegistry(Config{})
	d := reg.MustDistribution("jobs.latency")

	for i := 1; i <= 100; i++ {
		d.Observe(float64(i))
	}

	s, ok := reg.SnapshotAndReset().Find("jobs.latency")
	require.True(t, ok)
	assert.True(t, s.HasValue)
	assert.EqualValues(t, 100, s.Count)
	assert.Equal(t, 5050.0, s.Sum)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.InDelta(t, 50.5, s.Mean(), 1e-9)

	p50, ok := s.Quantile(0.5)
	require.True(t, ok)
	assert.InDelta(t, 50, p50, 1)

	p99, ok := s.Quantile(0.99)
	require.True(t, ok)
	assert.InDelta(t, 99, p99, 1)
}

func TestDistributionBounds(t *testing.T) {
	reg := NewRegistry(Config{Quantiles: []float64{0.01, 0.5, 1}})
	d := reg.MustDistribution("sizes")

	values := []float64{0.25, 3.7, 42, 42, 1e9, 0}
	for _, v := range values {
		d.Observe(v)
	}

	s, _ := reg.SnapshotAndReset().Find("sizes")
	assert.EqualValues(t, len(values), s.Count)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 1e9, s.Max)
	for _, q := range s.Quantiles {
		assert.GreaterOrEqual(t, q.Value, s.Min, "q=%v", q.Q)
		assert.LessOrEqual(t, q.Value, s.Max, "q=%v", q.Q)
	}
}

func TestDistributionDropsInvalid(t *testing.T) {
	reg := NewRegistry(Config{})
	d := reg.MustDistribution("latency")

	d.Observe(nan())
	d.Observe(math.Inf(1))
	d.Observe(math.Inf(-1))
	d.Observe(-1)
	d.Observe(2)

	s, _ := reg.SnapshotAndReset().Find("latency")
	assert.EqualValues(t, 1, s.Count)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 2.0, s.Max)
	assert.EqualValues(t, 4, reg.Stats().DroppedObservations)
}

func TestDistributionEmptyWindow(t *testing.T) {
	reg := NewRegistry(Config{})
	d := reg.MustDistribution("latency")
	d.Observe(5)
	reg.SnapshotAndReset()

	s, ok := reg.SnapshotAndReset().Find("latency")
	require.True(t, ok)
	assert.False(t, s.HasValue)
	assert.EqualValues(t, 0, s.Count)
	assert.Empty(t, s.Quantiles)
}

func TestDistributionConcurrentObserve(t *testing.T) {
	reg := NewRegistry(Config{})
	d := reg.MustDistribution("latency")

	const (
		writers = 8
		perG    = 5000
	)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count uint64
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			s, _ := reg.SnapshotAndReset().Find("latency")
			mu.Lock()
			count += s.Count
			mu.Unlock()
		}
	}()
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				d.Observe(float64(i*perG + j))
			}
		}(i)
	}
	wg.Wait()
	<-done

	s, _ := reg.SnapshotAndReset().Find("latency")
	count += s.Count
	assert.EqualValues(t, writers*perG, count)
}
