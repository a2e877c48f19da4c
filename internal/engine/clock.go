package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/chainsim/internal/store"
)

// Clock hands out transaction seqs. Every applied transaction takes the
// next one whether it executed or failed, and replay walks the trace log
// in seq order. Seqs are logical and never derived from chain time.
//
// A Blockchain applies one transaction at a time. The counter is atomic
// because a Clock may be shared with an IDGenerator.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// ResumeClock continues numbering after the highest seq in log, so runs
// that share one trace log file never collide on seq.
func ResumeClock(ctx context.Context, log *store.Store) (*Clock, error) {
	last, err := log.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}

// Next takes a seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq taken, or the starting point if none was.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
