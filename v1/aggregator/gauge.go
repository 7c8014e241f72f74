package aggregator

import (
	"math"
	"sync/atomic"
)

// unsetBits marks a gauge with no value. It is a NaN, and Set never stores a
// NaN, so it cannot collide with a real value.
const unsetBits = 0x7ff8_0000_dead_beef

// Gauge holds the most recently set value. A gauge that was never set
// reports no data, which is distinct from a value of 0.
//
// Value and presence share one atomic word, so a reset always returns the
// exact value it cleared.
type Gauge struct {
	id    Identity
	bits  atomic.Uint64
	born  uint64
	stats *Stats
}

func newGauge(id Identity, born uint64, stats *Stats) *Gauge {
	g := &Gauge{id: id, born: born, stats: stats}
	g.bits.Store(unsetBits)
	return g
}

// Set stores v. NaN and infinities are discarded and counted as dropped.
func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		g.stats.dropObservation()
		return
	}
	g.bits.Store(math.Float64bits(v))
}

// Swap stores v and returns the previous value and whether one was set.
func (g *Gauge) Swap(v float64) (float64, bool) {
	if g == nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		g.stats.dropObservation()
		return g.Load()
	}
	return decodeGauge(g.bits.Swap(math.Float64bits(v)))
}

// Load returns the current value and whether it was ever set.
func (g *Gauge) Load() (float64, bool) {
	if g == nil {
		return 0, false
	}
	return decodeGauge(g.bits.Load())
}

func (g *Gauge) Kind() Kind         { return KindGauge }
func (g *Gauge) Identity() Identity { return g.id }

func (g *Gauge) snapshot(reset bool) Sample {
	var bits uint64
	if reset {
		bits = g.bits.Swap(unsetBits)
	} else {
		bits = g.bits.Load()
	}
	v, ok := decodeGauge(bits)
	return Sample{
		Identity: g.id,
		Kind:     KindGauge,
		Value:    v,
		HasValue: ok,
		Born:     g.born,
	}
}

func decodeGauge(bits uint64) (float64, bool) {
	if bits == unsetBits {
		return 0, false
	}
	return math.Float64frombits(bits), true
}
