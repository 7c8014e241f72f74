package aggregator

import "sync/atomic"

// Stats counts events the registry absorbs silently instead of failing
// the recording call.
type Stats struct {
	droppedObservations atomic.Uint64
	rejectedSeries      atomic.Uint64
	kindConflicts       atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats plus the live series count.
type StatsSnapshot struct {
	DroppedObservations uint64
	RejectedSeries      uint64
	KindConflicts       uint64
	Series              int
}

func (s *Stats) dropObservation() {
	if s != nil {
		s.droppedObservations.Add(1)
	}
}

func (s *Stats) load(series int) StatsSnapshot {
	return StatsSnapshot{
		DroppedObservations: s.droppedObservations.Load(),
		RejectedSeries:      s.rejectedSeries.Load(),
		KindConflicts:       s.kindConflicts.Load(),
		Series:              series,
	}
}
