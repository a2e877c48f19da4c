package engine

import (
	"github.com/roach88/chainsim/internal/vm"
)

// contextQueue is a deque of contexts waiting to run.
//
// The dispatcher keeps two: the blockchain-global notification queue and
// the local queue of the top-level action being drained. Neither is shared
// between goroutines, so there is no locking.
type contextQueue struct {
	items []*vm.Context
}

// Len returns the current queue length.
func (q *contextQueue) Len() int {
	return len(q.items)
}

// PushBack appends cs in order.
func (q *contextQueue) PushBack(cs ...*vm.Context) {
	q.items = append(q.items, cs...)
}

// PushFront puts cs ahead of everything queued, keeping their order.
func (q *contextQueue) PushFront(cs ...*vm.Context) {
	if len(cs) == 0 {
		return
	}
	items := make([]*vm.Context, 0, len(cs)+len(q.items))
	items = append(items, cs...)
	q.items = append(items, q.items...)
}

// PopFront removes and returns the front context.
// Returns (nil, false) if the queue is empty.
func (q *contextQueue) PopFront() (*vm.Context, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	c := q.items[0]

	// Nil out the slot so the backing array does not keep finished
	// contexts (and their consoles and payloads) alive.
	q.items[0] = nil

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return c, true
}

// Clear drops every queued context.
func (q *contextQueue) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}
