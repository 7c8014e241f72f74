package aggregator

import "time"

// Window is the closed interval [Start, End) a snapshot covers.
// Generation increases by one with every rotation.
type Window struct {
	Generation uint64
	Start      time.Time
	End        time.Time
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Quantile is one estimated quantile of a distribution.
type Quantile struct {
	Q     float64
	Value float64
}

// Sample is the frozen state of one aggregator for one window.
//
// Field use by kind:
//   - Counter: Count is the sum of increments.
//   - Gauge: Value is the last set value, HasValue is false if never set.
//   - Distribution: Count, Sum, Min, Max and Quantiles; HasValue is false
//     when no valid observation arrived in the window.
//   - TimingCount: Count is the number of recordings, Sum the total in Unit.
type Sample struct {
	Identity  Identity
	Kind      Kind
	Count     uint64
	Value     float64
	HasValue  bool
	Sum       float64
	Min       float64
	Max       float64
	Quantiles []Quantile
	Unit      Unit

	// Born is the window generation in which this series was created.
	Born uint64
}

// Mean returns Sum/Count, or 0 for an empty sample.
func (s Sample) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Quantile returns the estimate for q if it was computed.
func (s Sample) Quantile(q float64) (float64, bool) {
	for _, e := range s.Quantiles {
		if e.Q == q {
			return e.Value, true
		}
	}
	return 0, false
}

// Snapshot is the output of one rotation. Samples are sorted by identity key.
type Snapshot struct {
	Window  Window
	Samples []Sample
}

// Find returns the sample for the given identity.
func (s Snapshot) Find(name string, tags ...Tag) (Sample, bool) {
	id := NewIdentity(name, tags...)
	for _, sample := range s.Samples {
		if sample.Identity.Equal(id) {
			return sample, true
		}
	}
	return Sample{}, false
}
