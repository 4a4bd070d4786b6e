package fixture

import "sync/atomic"

// Clock is a monotonic logical clock for catalog sequencing.
//
// Catalog rows are stamped with strictly increasing seq numbers from this
// clock, never wall time. This keeps listing order deterministic: the same
// sequence of runs produces the same catalog regardless of when they ran.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to resume numbering above an existing catalog's highest seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable: each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
