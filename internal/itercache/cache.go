// Package itercache maps live store objects to the small integer iterator
// handles that contracts use.
//
// Handles >= 0 address live objects. Handle -1 is "invalid". Handles <= -2
// are end-of-table sentinels: handle h refers to the table cached at index
// -(h+2).
//
// A Cache is valid for exactly one action. The VM replaces its caches after
// every apply, so a handle from one action never resolves in the next.
package itercache

import (
	"fmt"

	"github.com/roach88/chainsim/internal/state"
)

// Invalid is the handle returned when no table exists.
const Invalid = -1

// InvariantError reports misuse of a handle. It is raised with panic.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("iterator cache invariant violated: %s", e.Message)
}

func check(ok bool, msg string) {
	if !ok {
		panic(&InvariantError{Message: msg})
	}
}

type slot[T comparable] struct {
	obj  T
	live bool
}

type tableEntry struct {
	table *state.Table
	end   int
}

// Cache is an arena of handle slots for objects of type T, plus the end
// iterators of every table touched so far.
type Cache[T comparable] struct {
	slots    []slot[T]
	handles  map[T]int
	tables   map[uint32]tableEntry
	endIndex []*state.Table
}

// New returns an empty cache.
func New[T comparable]() *Cache[T] {
	return &Cache[T]{
		handles: make(map[T]int),
		tables:  make(map[uint32]tableEntry),
	}
}

func endToIndex(end int) int   { return -end - 2 }
func indexToEnd(index int) int { return -(index + 2) }

// CacheTable returns the table's end iterator, allocating one on first use.
func (c *Cache[T]) CacheTable(t *state.Table) int {
	if e, ok := c.tables[t.ID()]; ok && e.table == t {
		return e.end
	}
	end := indexToEnd(len(c.endIndex))
	c.endIndex = append(c.endIndex, t)
	c.tables[t.ID()] = tableEntry{table: t, end: end}
	return end
}

// TableOf returns the cached table with the given id.
func (c *Cache[T]) TableOf(id uint32) *state.Table {
	e, ok := c.tables[id]
	check(ok, "an invariant was broken, table should be in cache")
	return e.table
}

// EndIteratorByTableID returns the end iterator of a cached table.
func (c *Cache[T]) EndIteratorByTableID(id uint32) int {
	e, ok := c.tables[id]
	check(ok, "an invariant was broken, table should be in cache")
	return e.end
}

// FindTableByEndIterator returns the table behind an end iterator, or nil
// if no table was cached at that position.
func (c *Cache[T]) FindTableByEndIterator(end int) *state.Table {
	check(end < Invalid, "not an end iterator")
	idx := endToIndex(end)
	if idx >= len(c.endIndex) {
		return nil
	}
	return c.endIndex[idx]
}

// Add returns the handle for obj, allocating one if obj is not cached.
// Slots are never reused: a removed handle stays dead until the cache is
// replaced.
func (c *Cache[T]) Add(obj T) int {
	if h, ok := c.handles[obj]; ok {
		return h
	}
	h := len(c.slots)
	c.slots = append(c.slots, slot[T]{obj: obj, live: true})
	c.handles[obj] = h
	return h
}

// Get resolves a live handle.
func (c *Cache[T]) Get(h int) T {
	c.checkLive(h, "deference of end iterator")
	return c.slots[h].obj
}

// Set replaces the object behind a live handle, typically after an update.
func (c *Cache[T]) Set(h int, obj T) {
	c.checkLive(h, "cannot set an end iterator")
	delete(c.handles, c.slots[h].obj)
	c.slots[h].obj = obj
	c.handles[obj] = h
}

// Remove tombstones a live handle.
func (c *Cache[T]) Remove(h int) {
	c.checkLive(h, "cannot call remove on end iterators")
	var zero T
	delete(c.handles, c.slots[h].obj)
	c.slots[h] = slot[T]{obj: zero}
}

func (c *Cache[T]) checkLive(h int, endMsg string) {
	check(h != Invalid, "invalid iterator")
	check(h >= 0, endMsg)
	check(h < len(c.slots), "iterator out of range")
	check(c.slots[h].live, "dereference of deleted iterator")
}

// Len returns the number of live handles.
func (c *Cache[T]) Len() int {
	return len(c.handles)
}
