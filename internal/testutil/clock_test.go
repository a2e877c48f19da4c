package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/chainsim/internal/chain"
)

func TestChainClock_StartsAtGivenTime(t *testing.T) {
	clock := NewChainClock(1500)
	assert.Equal(t, chain.TimePointFromMillis(1500), clock.Current())
}

func TestChainClock_Advance(t *testing.T) {
	clock := NewChainClock(0)

	assert.Equal(t, chain.TimePointFromMillis(500), clock.Advance(500))
	assert.Equal(t, chain.TimePointFromMillis(1500), clock.Advance(1000))
	assert.Equal(t, int64(1500), clock.Current().Millis())
}

func TestChainClock_NeverMovesBackwards(t *testing.T) {
	clock := NewChainClock(1000)

	clock.Advance(-500)
	assert.Equal(t, int64(1000), clock.Current().Millis())

	clock.Advance(0)
	assert.Equal(t, int64(1000), clock.Current().Millis())
}

func TestChainClock_Reset(t *testing.T) {
	clock := NewChainClock(10)
	clock.Advance(90)
	clock.Advance(100)

	clock.Reset()
	assert.Equal(t, int64(10), clock.Current().Millis())
}

func TestChainClock_ThreadSafe(t *testing.T) {
	clock := NewChainClock(0)
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				clock.Advance(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*calls), clock.Current().Millis())
}
