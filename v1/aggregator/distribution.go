package aggregator

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// sketchParams sizes the HDR histogram backing each distribution.
type sketchParams struct {
	sigFigs    int
	maxValue   float64
	resolution float64
	quantiles  []float64
}

func (p sketchParams) highest() int64 {
	return int64(p.maxValue * p.resolution)
}

func (p sketchParams) newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, p.highest(), p.sigFigs)
}

// Distribution tracks count, sum, min and max exactly, plus a bounded-memory
// HDR histogram for quantile estimates. Each instance has its own short mutex.
// Rotation swaps in a pre-reset histogram, so writers are only blocked for a
// pointer exchange.
type Distribution struct {
	id     Identity
	params sketchParams
	stats  *Stats
	born   uint64

	mu    sync.Mutex
	count uint64
	sum   float64
	min   float64
	max   float64
	hist  *hdrhistogram.Histogram

	// spare is only touched by snapshot, which the registry serializes.
	spare *hdrhistogram.Histogram
}

func newDistribution(id Identity, born uint64, params sketchParams, stats *Stats) *Distribution {
	return &Distribution{
		id:     id,
		params: params,
		stats:  stats,
		born:   born,
		min:    math.Inf(1),
		max:    math.Inf(-1),
		hist:   params.newHistogram(),
	}
}

// Observe records one value. NaN, infinities and negative values are
// discarded and counted as dropped observations.
func (d *Distribution) Observe(v float64) {
	if d == nil {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		d.stats.dropObservation()
		return
	}

	scaled := int64(math.Round(v * d.params.resolution))
	if top := d.params.highest(); scaled > top {
		scaled = top
	}

	d.mu.Lock()
	d.count++
	d.sum += v
	if v < d.min {
		d.min = v
	}
	if v > d.max {
		d.max = v
	}
	// Values below 1 unit are recorded as 0, which the histogram accepts.
	_ = d.hist.RecordValue(scaled)
	d.mu.Unlock()
}

// ObserveDuration records dur in milliseconds.
func (d *Distribution) ObserveDuration(dur time.Duration) {
	d.Observe(float64(dur) / float64(time.Millisecond))
}

// Since records the milliseconds elapsed since start.
func (d *Distribution) Since(start time.Time) {
	d.ObserveDuration(time.Since(start))
}

// Count returns the number of valid observations in the current window.
func (d *Distribution) Count() uint64 {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *Distribution) Kind() Kind         { return KindDistribution }
func (d *Distribution) Identity() Identity { return d.id }

func (d *Distribution) snapshot(bool) Sample {
	next := d.spare
	if next == nil {
		next = d.params.newHistogram()
	}

	d.mu.Lock()
	count, sum, lo, hi := d.count, d.sum, d.min, d.max
	hist := d.hist
	d.hist = next
	d.count, d.sum = 0, 0
	d.min, d.max = math.Inf(1), math.Inf(-1)
	d.mu.Unlock()

	s := Sample{
		Identity: d.id,
		Kind:     KindDistribution,
		Count:    count,
		Born:     d.born,
	}
	if count > 0 {
		s.HasValue = true
		s.Sum, s.Min, s.Max = sum, lo, hi
		s.Quantiles = make([]Quantile, 0, len(d.params.quantiles))
		for _, q := range d.params.quantiles {
			v := float64(hist.ValueAtQuantile(q*100)) / d.params.resolution
			// Bucket rounding can overshoot the exact extremes.
			v = math.Min(math.Max(v, lo), hi)
			s.Quantiles = append(s.Quantiles, Quantile{Q: q, Value: v})
		}
	}

	hist.Reset()
	d.spare = hist
	return s
}
