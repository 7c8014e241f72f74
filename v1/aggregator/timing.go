package aggregator

import (
	"sync"
	"time"
)

// TimingCount accumulates total elapsed time and the number of recordings.
// It is encoded as two counters: "<name>.time" with the sum in Unit and
// "<name>" with the count.
type TimingCount struct {
	id   Identity
	unit Unit
	born uint64

	mu    sync.Mutex
	sum   uint64
	count uint64
}

func newTimingCount(id Identity, born uint64, unit Unit) *TimingCount {
	return &TimingCount{id: id, born: born, unit: unit}
}

// Record adds one measurement.
func (t *TimingCount) Record(d time.Duration) {
	t.RecordN(d, 1)
}

// RecordN adds a total duration covering n operations. Negative durations
// are treated as zero.
func (t *TimingCount) RecordN(d time.Duration, n uint64) {
	if t == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	units := uint64(d / t.unit.Duration())

	t.mu.Lock()
	t.sum += units
	t.count += n
	t.mu.Unlock()
}

// Since records the time elapsed since start and returns it.
func (t *TimingCount) Since(start time.Time) time.Duration {
	elapsed := time.Since(start)
	t.Record(elapsed)
	return elapsed
}

// Measure runs fn and records how long it took.
func (t *TimingCount) Measure(fn func()) {
	start := time.Now()
	defer t.Since(start)
	fn()
}

// Unit returns the resolution the sum is kept in.
func (t *TimingCount) Unit() Unit { return t.unit }

func (t *TimingCount) Kind() Kind         { return KindTimingCount }
func (t *TimingCount) Identity() Identity { return t.id }

func (t *TimingCount) snapshot(bool) Sample {
	t.mu.Lock()
	sum, count := t.sum, t.count
	t.sum, t.count = 0, 0
	t.mu.Unlock()

	return Sample{
		Identity: t.id,
		Kind:     KindTimingCount,
		Count:    count,
		Sum:      float64(sum),
		HasValue: count > 0,
		Unit:     t.unit,
		Born:     t.born,
	}
}
