package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

func named(names ...string) []*vm.Context {
	out := make([]*vm.Context, len(names))
	for i, n := range names {
		out[i] = &vm.Context{Receiver: chain.N(n), FirstReceiver: chain.N(n)}
	}
	return out
}

func drain(q *contextQueue) []string {
	var out []string
	for {
		c, ok := q.PopFront()
		if !ok {
			return out
		}
		out = append(out, c.Receiver.String())
	}
}

func TestContextQueue_FIFO(t *testing.T) {
	var q contextQueue
	q.PushBack(named("a", "b")...)
	q.PushBack(named("c")...)

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"a", "b", "c"}, drain(&q))
	assert.Equal(t, 0, q.Len())
}

func TestContextQueue_PushFrontKeepsOrder(t *testing.T) {
	var q contextQueue
	q.PushBack(named("c", "d")...)
	q.PushFront(named("a", "b")...)

	assert.Equal(t, []string{"a", "b", "c", "d"}, drain(&q))
}

func TestContextQueue_PushFrontNothing(t *testing.T) {
	var q contextQueue
	q.PushBack(named("a")...)
	q.PushFront()

	assert.Equal(t, []string{"a"}, drain(&q))
}

func TestContextQueue_PopEmpty(t *testing.T) {
	var q contextQueue

	c, ok := q.PopFront()
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestContextQueue_PopReleasesSlot(t *testing.T) {
	var q contextQueue
	q.PushBack(named("a", "b")...)
	backing := q.items

	_, ok := q.PopFront()
	require.True(t, ok)
	assert.Nil(t, backing[0], "popped slot must not keep the context alive")
}

func TestContextQueue_Clear(t *testing.T) {
	var q contextQueue
	q.PushBack(named("a", "b")...)
	backing := q.items

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, backing[0])
	assert.Nil(t, backing[1])

	q.PushBack(named("c")...)
	assert.Equal(t, []string{"c"}, drain(&q))
}
