package flush

import (
	"sync/atomic"
	"time"
)

type counters struct {
	flushes        atomic.Uint64
	sentBatches    atomic.Uint64
	sentRecords    atomic.Uint64
	sendFailures   atomic.Uint64
	droppedBatches atomic.Uint64
	lastCycle      atomic.Int64
}

// Stats is a point-in-time copy of the scheduler counters.
type Stats struct {
	// Flushes counts rotations, including those whose batch was dropped.
	Flushes        uint64
	SentBatches    uint64
	SentRecords    uint64
	SendFailures   uint64
	DroppedBatches uint64

	// LastCycleDuration covers rotation, encoding and transmission of the
	// most recently completed cycle.
	LastCycleDuration time.Duration
}

func (c *counters) load() Stats {
	return Stats{
		Flushes:           c.flushes.Load(),
		SentBatches:       c.sentBatches.Load(),
		SentRecords:       c.sentRecords.Load(),
		SendFailures:      c.sendFailures.Load(),
		DroppedBatches:    c.droppedBatches.Load(),
		LastCycleDuration: time.Duration(c.lastCycle.Load()),
	}
}
