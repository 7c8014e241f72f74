package aggregator

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterWindowedSum(t *testing.T) {
	reg := NewRegistry(Config{})
	c := reg.MustCounter("jobs.completed", T("queue", "default"))

	c.Add(5)
	c.Add(5)
	c.Add(5)

	snap := reg.SnapshotAndReset()
	s, ok := snap.Find("jobs.completed", T("queue", "default"))
	require.True(t, ok)
	assert.Equal(t, KindCounter, s.Kind)
	assert.EqualValues(t, 15, s.Count)

	c.Add(1)
	snap = reg.SnapshotAndReset()
	s, ok = snap.Find("jobs.completed", T("queue", "default"))
	require.True(t, ok)
	assert.EqualValues(t, 1, s.Count)
}

func TestGetOrCreateConverges(t *testing.T) {
	reg := NewRegistry(Config{})

	const workers = 16
	handles := make([]*Counter, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = reg.MustCounter("requests", T("b", "2"), T("a", "1"))
		}(i)
	}
	wg.Wait()

	for _, h := range handles[1:] {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, 1, reg.Len())
}

func TestNoLostUpdatesAcrossRotations(t *testing.T) {
	reg := NewRegistry(Config{})
	c := reg.MustCounter("ops")

	const (
		writers = 8
		perG    = 20000
	)

	var total uint64
	stop := make(chan struct{})
	rotated := make(chan struct{})
	go func() {
		defer close(rotated)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s, _ := reg.SnapshotAndReset().Find("ops")
			total += s.Count
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-rotated

	s, _ := reg.SnapshotAndReset().Find("ops")
	total += s.Count
	assert.EqualValues(t, writers*perG, total)
}

func TestGaugePersistsAcrossWindows(t *testing.T) {
	reg := NewRegistry(Config{})
	g := reg.MustGauge("queue.depth")

	s, ok := reg.SnapshotAndReset().Find("queue.depth")
	require.True(t, ok)
	assert.False(t, s.HasValue, "unset gauge must report no data")

	g.Set(7)
	for i := 0; i < 3; i++ {
		s, _ = reg.SnapshotAndReset().Find("queue.depth")
		assert.True(t, s.HasValue)
		assert.Equal(t, 7.0, s.Value)
	}

	g.Set(0)
	s, _ = reg.SnapshotAndReset().Find("queue.depth")
	assert.True(t, s.HasValue)
	assert.Equal(t, 0.0, s.Value)
}

func TestGaugeResetPolicy(t *testing.T) {
	reg := NewRegistry(Config{ResetGauges: true})
	g := reg.MustGauge("queue.depth")
	g.Set(3)

	s, _ := reg.SnapshotAndReset().Find("queue.depth")
	assert.True(t, s.HasValue)

	s, _ = reg.SnapshotAndReset().Find("queue.depth")
	assert.False(t, s.HasValue)
}

func TestGaugeResetNeverReportsValueTwice(t *testing.T) {
	reg := NewRegistry(Config{ResetGauges: true})
	g := reg.MustGauge("queue.depth")

	const sets = 20000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= sets; i++ {
			g.Set(float64(i))
		}
	}()

	var reported []float64
	collect := func() {
		if s, ok := reg.SnapshotAndReset().Find("queue.depth"); ok && s.HasValue {
			reported = append(reported, s.Value)
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		collect()
	}
	collect()

	require.NotEmpty(t, reported)
	for i := 1; i < len(reported); i++ {
		require.Greater(t, reported[i], reported[i-1], "value %v reported after %v", reported[i], reported[i-1])
	}
	assert.Equal(t, float64(sets), reported[len(reported)-1])
}

func TestGaugeRejectsNaN(t *testing.T) {
	reg := NewRegistry(Config{})
	g := reg.MustGauge("temp")
	g.Set(1.5)

	g.Set(nan())
	v, ok := g.Load()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.EqualValues(t, 1, reg.Stats().DroppedObservations)

	old, wasSet := g.Swap(2.5)
	assert.True(t, wasSet)
	assert.Equal(t, 1.5, old)
}

func TestKindMismatch(t *testing.T) {
	reg := NewRegistry(Config{})
	reg.MustCounter("jobs")

	_, err := reg.Gauge("jobs")
	require.Error(t, err)
	assert.True(t, IsKindMismatch(err))

	var mismatch *KindMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, KindCounter, mismatch.Registered)
	assert.Equal(t, KindGauge, mismatch.Requested)

	// Same name with other tags is still the same metric.
	_, err = reg.Distribution("jobs", T("queue", "low"))
	assert.True(t, IsKindMismatch(err))

	assert.Panics(t, func() { reg.MustGauge("jobs") })
	assert.EqualValues(t, 3, reg.Stats().KindConflicts)
}

func TestInvalidName(t *testing.T) {
	reg := NewRegistry(Config{})
	_, err := reg.Counter("")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMaxSeriesDetachesOverflow(t *testing.T) {
	reg := NewRegistry(Config{MaxSeries: 2})
	reg.MustCounter("a").Inc()
	reg.MustCounter("b").Inc()

	overflow := reg.MustCounter("c")
	overflow.Add(10)

	snap := reg.SnapshotAndReset()
	assert.Len(t, snap.Samples, 2)
	_, found := snap.Find("c")
	assert.False(t, found)

	stats := reg.Stats()
	assert.EqualValues(t, 1, stats.RejectedSeries)
	assert.Equal(t, 2, stats.Series)

	// Existing series keep working once the cap is reached.
	reg.MustCounter("a").Add(2)
	s, _ := reg.SnapshotAndReset().Find("a")
	assert.EqualValues(t, 2, s.Count)
}

func TestMaxSeriesSharesDetachedHandles(t *testing.T) {
	reg := NewRegistry(Config{MaxSeries: 1})
	reg.MustCounter("a").Inc()

	first := reg.MustCounter("b")
	for i := 0; i < 100; i++ {
		assert.Same(t, first, reg.MustCounter("b"))
	}
	assert.Same(t, first, reg.MustCounter("c", T("k", "v")))
	assert.EqualValues(t, 2, reg.Stats().RejectedSeries)

	// Rejected names are not claimed, so another kind may use them later.
	assert.NotContains(t, reg.kinds, "b")
	assert.NotContains(t, reg.kinds, "c")
	_, err := reg.Gauge("b")
	assert.NoError(t, err)

	// A rejected name that already holds a series still conflicts.
	_, err = reg.Gauge("a", T("k", "v"))
	assert.True(t, IsKindMismatch(err))
	assert.Equal(t, 1, reg.Stats().Series)
}

func TestUnknownKindLeavesNameFree(t *testing.T) {
	reg := NewRegistry(Config{})

	_, err := reg.GetOrCreate(NewIdentity("jobs"), Kind(0))
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = reg.GetOrCreate(NewIdentity("jobs"), KindTimingCount+1)
	assert.ErrorIs(t, err, ErrInvalidKind)

	c, err := reg.Counter("jobs")
	require.NoError(t, err)
	c.Inc()
	assert.Zero(t, reg.Stats().KindConflicts)
}

func TestSnapshotWindowAndOrdering(t *testing.T) {
	clk := clock.NewMock()
	reg := NewRegistry(Config{}, WithClock(clk))
	start := clk.Now()

	reg.MustCounter("z").Inc()
	reg.MustCounter("a", T("k", "2")).Inc()
	reg.MustCounter("a", T("k", "1")).Inc()

	clk.Add(3 * time.Second)
	snap := reg.SnapshotAndReset()

	assert.EqualValues(t, 0, snap.Window.Generation)
	assert.Equal(t, start, snap.Window.Start)
	assert.Equal(t, 3*time.Second, snap.Window.Duration())

	require.Len(t, snap.Samples, 3)
	assert.Equal(t, "a{k:1}", snap.Samples[0].Identity.String())
	assert.Equal(t, "a{k:2}", snap.Samples[1].Identity.String())
	assert.Equal(t, "z", snap.Samples[2].Identity.String())

	reg.MustCounter("late").Inc()
	clk.Add(3 * time.Second)
	snap = reg.SnapshotAndReset()
	assert.EqualValues(t, 1, snap.Window.Generation)
	assert.Equal(t, start.Add(3*time.Second), snap.Window.Start)

	late, _ := snap.Find("late")
	assert.EqualValues(t, 1, late.Born)
	assert.EqualValues(t, 2, reg.Generation())
}

func TestTimingCount(t *testing.T) {
	reg := NewRegistry(Config{})
	tc := reg.MustTimingCount("db.query", Millis)

	tc.Record(1500 * time.Microsecond)
	tc.Record(2 * time.Millisecond)
	tc.RecordN(10*time.Millisecond, 4)
	tc.Record(-time.Second)

	s, ok := reg.SnapshotAndReset().Find("db.query")
	require.True(t, ok)
	assert.Equal(t, KindTimingCount, s.Kind)
	assert.EqualValues(t, 7, s.Count)
	assert.Equal(t, 13.0, s.Sum)
	assert.Equal(t, Millis, s.Unit)

	s, _ = reg.SnapshotAndReset().Find("db.query")
	assert.EqualValues(t, 0, s.Count)
	assert.False(t, s.HasValue)
}

func TestNilHandlesAreSafe(t *testing.T) {
	var (
		c *Counter
		g *Gauge
		d *Distribution
		x *TimingCount
	)
	assert.NotPanics(t, func() {
		c.Inc()
		g.Set(1)
		d.Observe(1)
		x.Record(time.Second)
	})
	_, ok := g.Load()
	assert.False(t, ok)
}
