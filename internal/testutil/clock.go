package testutil

import (
	"sync"

	"github.com/roach88/chainsim/internal/chain"
)

// ChainClock is a resettable chain-time source for scenarios and tests.
//
// Unlike the blockchain's own time, which a scenario may move freely,
// ChainClock only moves forward from its start, so two runs of the same
// scenario see the same sequence of times.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ChainClock struct {
	mu    sync.Mutex
	start chain.TimePoint
	now   chain.TimePoint
}

// NewChainClock creates a clock starting at ms milliseconds.
func NewChainClock(ms int64) *ChainClock {
	t := chain.TimePointFromMillis(ms)
	return &ChainClock{start: t, now: t}
}

// Advance moves the clock forward by ms milliseconds and returns the new
// time. Negative values are treated as zero.
func (c *ChainClock) Advance(ms int64) chain.TimePoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms > 0 {
		c.now += chain.TimePointFromMillis(ms)
	}
	return c.now
}

// Current returns the current time without advancing.
func (c *ChainClock) Current() chain.TimePoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset moves the clock back to its start.
func (c *ChainClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
