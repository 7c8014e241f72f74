package aggregator

import "sync/atomic"

// Counter accumulates a monotonic sum per window. Rotation swaps the total
// to zero, so each snapshot holds only the increments of its own window.
type Counter struct {
	id    Identity
	total atomic.Uint64
	born  uint64
}

func newCounter(id Identity, born uint64) *Counter {
	return &Counter{id: id, born: born}
}

// Add increments the counter by delta. Safe on a nil receiver.
func (c *Counter) Add(delta uint64) {
	if c == nil {
		return
	}
	c.total.Add(delta)
}

// Inc adds one.
func (c *Counter) Inc() {
	c.Add(1)
}

// Load returns the total accumulated in the current window.
func (c *Counter) Load() uint64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

func (c *Counter) Kind() Kind         { return KindCounter }
func (c *Counter) Identity() Identity { return c.id }

func (c *Counter) snapshot(bool) Sample {
	return Sample{
		Identity: c.id,
		Kind:     KindCounter,
		Count:    c.total.Swap(0),
		Born:     c.born,
	}
}
