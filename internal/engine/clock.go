package engine

import "sync/atomic"

// Clock is a monotonic logical clock for report entry numbering.
//
// Entries are stamped at finalization, after the deterministic sort, so the
// numbering never depends on worker interleaving: the same inputs and seed
// always produce the same sequence values.
//
// Thread-safety: safe for concurrent use, though finalization is
// single-threaded by construction.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
