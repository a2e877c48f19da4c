package state

import (
	"math"

	"github.com/tidwall/btree"
)

// IndexObject is one secondary-index entry.
type IndexObject[K any] struct {
	TableID      uint32
	PrimaryKey   uint64
	SecondaryKey K
	Payer        uint64
}

// Clone returns a shallow copy; keys are value types.
func (o *IndexObject[K]) Clone() *IndexObject[K] {
	c := *o
	return &c
}

// Index is one secondary-index store.
//
// byPrimary orders entries by (table, primary key) and enforces primary-key
// uniqueness. bySecondary orders the same entries by (table, secondary key,
// primary key). Both trees always hold the identical entry set.
type Index[K any] struct {
	store       *Store
	codec       KeyCodec[K]
	byPrimary   *btree.BTreeG[*IndexObject[K]]
	bySecondary *btree.BTreeG[*IndexObject[K]]
}

func newIndex[K any](s *Store, codec KeyCodec[K]) *Index[K] {
	idx := &Index[K]{store: s, codec: codec}
	idx.byPrimary = btree.NewBTreeGOptions(func(a, b *IndexObject[K]) bool {
		if a.TableID != b.TableID {
			return a.TableID < b.TableID
		}
		return a.PrimaryKey < b.PrimaryKey
	}, btree.Options{NoLocks: true})
	idx.bySecondary = btree.NewBTreeGOptions(func(a, b *IndexObject[K]) bool {
		return idx.compareSecondary(a, b) < 0
	}, btree.Options{NoLocks: true})
	return idx
}

func (idx *Index[K]) compareSecondary(a, b *IndexObject[K]) int {
	if a.TableID != b.TableID {
		if a.TableID < b.TableID {
			return -1
		}
		return 1
	}
	if c := idx.codec.Compare(a.SecondaryKey, b.SecondaryKey); c != 0 {
		return c
	}
	switch {
	case a.PrimaryKey < b.PrimaryKey:
		return -1
	case a.PrimaryKey > b.PrimaryKey:
		return 1
	}
	return 0
}

// Codec returns the key codec for this index width.
func (idx *Index[K]) Codec() KeyCodec[K] {
	return idx.codec
}

// Store inserts obj. It fails with ErrUniqueness if the table already has
// an entry for obj's primary key.
func (idx *Index[K]) Store(obj *IndexObject[K]) error {
	if idx.Get(obj.TableID, obj.PrimaryKey) != nil {
		return ErrUniqueness
	}
	idx.store.push(&indexCreated[K]{index: idx, obj: obj})
	idx.link(obj)
	return nil
}

// Update replaces prev with next. Both must share table and primary key.
func (idx *Index[K]) Update(prev, next *IndexObject[K]) error {
	if idx.Get(prev.TableID, prev.PrimaryKey) != prev {
		return ErrNotFound
	}
	idx.store.push(&indexUpdated[K]{index: idx, prev: prev, next: next})
	idx.unlink(prev)
	idx.link(next)
	return nil
}

// Remove deletes obj from both views.
func (idx *Index[K]) Remove(obj *IndexObject[K]) error {
	if idx.Get(obj.TableID, obj.PrimaryKey) != obj {
		return ErrNotFound
	}
	idx.store.push(&indexDeleted[K]{index: idx, obj: obj})
	idx.unlink(obj)
	return nil
}

func (idx *Index[K]) link(obj *IndexObject[K]) {
	idx.byPrimary.Set(obj)
	idx.bySecondary.Set(obj)
}

func (idx *Index[K]) unlink(obj *IndexObject[K]) bool {
	_, a := idx.byPrimary.Delete(obj)
	_, b := idx.bySecondary.Delete(obj)
	return a && b
}

// Get returns the entry for (tableID, pk), or nil. This is find_primary.
func (idx *Index[K]) Get(tableID uint32, pk uint64) *IndexObject[K] {
	obj, ok := idx.byPrimary.Get(&IndexObject[K]{TableID: tableID, PrimaryKey: pk})
	if !ok {
		return nil
	}
	return obj
}

// FindSecondary returns the entry with the lowest primary key among those
// whose secondary key equals key, or nil.
func (idx *Index[K]) FindSecondary(tableID uint32, key K) *IndexObject[K] {
	obj := idx.LowerBound(tableID, key)
	if obj == nil || idx.codec.Compare(obj.SecondaryKey, key) != 0 {
		return nil
	}
	return obj
}

// LowerBound returns the first entry with secondary key >= key.
func (idx *Index[K]) LowerBound(tableID uint32, key K) *IndexObject[K] {
	pivot := &IndexObject[K]{TableID: tableID, SecondaryKey: key}
	return idx.first(tableID, pivot, false)
}

// UpperBound returns the first entry with secondary key > key.
func (idx *Index[K]) UpperBound(tableID uint32, key K) *IndexObject[K] {
	pivot := &IndexObject[K]{TableID: tableID, SecondaryKey: key, PrimaryKey: math.MaxUint64}
	return idx.first(tableID, pivot, true)
}

// NextSecondary returns the entry after obj in secondary order within the
// same table.
func (idx *Index[K]) NextSecondary(obj *IndexObject[K]) *IndexObject[K] {
	return idx.first(obj.TableID, obj, true)
}

// PrevSecondary returns the entry before obj in secondary order within the
// same table.
func (idx *Index[K]) PrevSecondary(obj *IndexObject[K]) *IndexObject[K] {
	var found *IndexObject[K]
	idx.bySecondary.Descend(obj, func(item *IndexObject[K]) bool {
		if idx.compareSecondary(item, obj) == 0 {
			return true
		}
		if item.TableID == obj.TableID {
			found = item
		}
		return false
	})
	return found
}

// Penultimate returns the last entry of the table in secondary order.
func (idx *Index[K]) Penultimate(tableID uint32) *IndexObject[K] {
	var found *IndexObject[K]
	visit := func(item *IndexObject[K]) bool {
		if item.TableID > tableID {
			return true
		}
		if item.TableID == tableID {
			found = item
		}
		return false
	}
	if tableID == math.MaxUint32 {
		idx.bySecondary.Reverse(visit)
	} else {
		// Entries of the next table sort above any entry of this one, so a
		// descent from the start of the next table lands on our last entry.
		idx.bySecondary.Descend(&IndexObject[K]{TableID: tableID + 1}, visit)
	}
	return found
}

// first returns the first entry at or after pivot (strictly after when
// exclusive) that belongs to tableID.
func (idx *Index[K]) first(tableID uint32, pivot *IndexObject[K], exclusive bool) *IndexObject[K] {
	var found *IndexObject[K]
	idx.bySecondary.Ascend(pivot, func(item *IndexObject[K]) bool {
		if exclusive && idx.compareSecondary(item, pivot) == 0 {
			return true
		}
		if item.TableID == tableID {
			found = item
		}
		return false
	})
	return found
}

// Len returns the number of entries in the index.
func (idx *Index[K]) Len() int {
	return idx.byPrimary.Len()
}

// ByPrimary returns the table's entries ordered by primary key.
func (idx *Index[K]) ByPrimary(tableID uint32) []*IndexObject[K] {
	var out []*IndexObject[K]
	idx.byPrimary.Ascend(&IndexObject[K]{TableID: tableID}, func(item *IndexObject[K]) bool {
		if item.TableID != tableID {
			return false
		}
		out = append(out, item)
		return true
	})
	return out
}

// BySecondary returns the table's entries ordered by secondary key.
func (idx *Index[K]) BySecondary(tableID uint32) []*IndexObject[K] {
	var out []*IndexObject[K]
	idx.bySecondary.Scan(func(item *IndexObject[K]) bool {
		if item.TableID == tableID {
			out = append(out, item)
		}
		return item.TableID <= tableID
	})
	return out
}
