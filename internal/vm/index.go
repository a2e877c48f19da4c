package vm

import (
	"errors"
	"math"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/itercache"
	"github.com/roach88/chainsim/internal/state"
)

// IndexAPI is the secondary-index host surface for one key width. The
// same operations back db_idx64_*, db_idx128_*, db_idx256_* and
// db_idx_double_*.
type IndexAPI[K any] struct {
	host     *Host
	name     string
	index    *state.Index[K]
	cache    *itercache.Cache[*state.IndexObject[K]]
	validate func(K) error
}

func newIndexAPI[K any](h *Host, name string, index *state.Index[K], validate func(K) error) *IndexAPI[K] {
	return &IndexAPI[K]{
		host:     h,
		name:     name,
		index:    index,
		cache:    itercache.New[*state.IndexObject[K]](),
		validate: validate,
	}
}

func validateDouble(k float64) error {
	if math.IsNaN(k) {
		return newError(ErrCodeInvalidArgument, "NaN is not an allowed value for a secondary key")
	}
	return nil
}

// Codec returns the key codec adapters use to move keys in and out of
// contract memory.
func (x *IndexAPI[K]) Codec() state.KeyCodec[K] {
	return x.index.Codec()
}

func (x *IndexAPI[K]) debug(op string, args ...any) {
	x.host.logger.Debug("db_"+x.name+"_"+op, args...)
}

func (x *IndexAPI[K]) check(key K) error {
	if x.validate == nil {
		return nil
	}
	return x.validate(key)
}

// Store adds a secondary entry for primary key id in the receiver's table.
func (x *IndexAPI[K]) Store(scope, table, payer chain.Name, id uint64, key K) (int, error) {
	x.debug("store", "scope", scope, "table", table, "payer", payer, "id", id)
	if payer == 0 {
		return itercache.Invalid, newError(ErrCodeMissingPayer, msgMissingPayer)
	}
	if err := x.check(key); err != nil {
		return itercache.Invalid, err
	}
	tab := x.host.findOrCreateTable(scope, table, payer)
	obj := &state.IndexObject[K]{TableID: tab.ID(), PrimaryKey: id, SecondaryKey: key, Payer: uint64(payer)}
	if err := x.index.Store(obj); err != nil {
		if errors.Is(err, state.ErrUniqueness) {
			return itercache.Invalid, newError(ErrCodeUniquenessViolation, msgUniqueness)
		}
		return itercache.Invalid, err
	}
	x.cache.CacheTable(tab)
	return x.cache.Add(obj), nil
}

// Update replaces the secondary key of the entry behind it. A zero payer
// keeps the current payer.
func (x *IndexAPI[K]) Update(it int, payer chain.Name, key K) error {
	x.debug("update", "iterator", it)
	prev := x.cache.Get(it)
	if err := x.host.checkOwner(x.cache.TableOf(prev.TableID)); err != nil {
		return err
	}
	if err := x.check(key); err != nil {
		return err
	}
	next := prev.Clone()
	next.SecondaryKey = key
	if payer != 0 {
		next.Payer = uint64(payer)
	}
	if err := x.index.Update(prev, next); err != nil {
		return err
	}
	x.cache.Set(it, next)
	return nil
}

// Remove deletes the entry behind it.
func (x *IndexAPI[K]) Remove(it int) error {
	x.debug("remove", "iterator", it)
	obj := x.cache.Get(it)
	if err := x.host.checkOwner(x.cache.TableOf(obj.TableID)); err != nil {
		return err
	}
	if err := x.index.Remove(obj); err != nil {
		return err
	}
	x.cache.Remove(it)
	return nil
}

// lookup resolves a table, caches its end iterator and returns the
// iterator of the entry chosen by find together with that entry.
func (x *IndexAPI[K]) lookup(code, scope, table chain.Name, find func(tableID uint32) *state.IndexObject[K]) (int, *state.IndexObject[K]) {
	tab := x.host.findTable(code, scope, table)
	if tab == nil {
		return itercache.Invalid, nil
	}
	end := x.cache.CacheTable(tab)
	obj := find(tab.ID())
	if obj == nil {
		return end, nil
	}
	return x.cache.Add(obj), obj
}

// FindSecondary returns the iterator and primary key of the first entry
// whose secondary key equals key.
func (x *IndexAPI[K]) FindSecondary(code, scope, table chain.Name, key K) (int, uint64) {
	x.debug("find_secondary", "code", code, "scope", scope, "table", table)
	it, obj := x.lookup(code, scope, table, func(id uint32) *state.IndexObject[K] {
		return x.index.FindSecondary(id, key)
	})
	if obj == nil {
		return it, 0
	}
	return it, obj.PrimaryKey
}

// FindPrimary returns the iterator and secondary key of the entry for
// primary key id.
func (x *IndexAPI[K]) FindPrimary(code, scope, table chain.Name, id uint64) (int, K) {
	x.debug("find_primary", "code", code, "scope", scope, "table", table, "id", id)
	it, obj := x.lookup(code, scope, table, func(tid uint32) *state.IndexObject[K] {
		return x.index.Get(tid, id)
	})
	if obj == nil {
		var zero K
		return it, zero
	}
	return it, obj.SecondaryKey
}

// LowerBound returns the first entry with secondary key >= key, together
// with the found secondary and primary keys. When nothing is found the
// passed key is returned unchanged.
func (x *IndexAPI[K]) LowerBound(code, scope, table chain.Name, key K) (int, K, uint64) {
	x.debug("lowerbound", "code", code, "scope", scope, "table", table)
	it, obj := x.lookup(code, scope, table, func(id uint32) *state.IndexObject[K] {
		return x.index.LowerBound(id, key)
	})
	if obj == nil {
		return it, key, 0
	}
	return it, obj.SecondaryKey, obj.PrimaryKey
}

// UpperBound returns the first entry with secondary key > key, together
// with the found secondary and primary keys.
func (x *IndexAPI[K]) UpperBound(code, scope, table chain.Name, key K) (int, K, uint64) {
	x.debug("upperbound", "code", code, "scope", scope, "table", table)
	it, obj := x.lookup(code, scope, table, func(id uint32) *state.IndexObject[K] {
		return x.index.UpperBound(id, key)
	})
	if obj == nil {
		return it, key, 0
	}
	return it, obj.SecondaryKey, obj.PrimaryKey
}

// End returns the table's end iterator for this index, or -1.
func (x *IndexAPI[K]) End(code, scope, table chain.Name) int {
	x.debug("end", "code", code, "scope", scope, "table", table)
	tab := x.host.findTable(code, scope, table)
	if tab == nil {
		return itercache.Invalid
	}
	return x.cache.CacheTable(tab)
}

// Next returns the following entry in secondary order and its primary key.
func (x *IndexAPI[K]) Next(it int) (int, uint64) {
	x.debug("next", "iterator", it)
	if it < itercache.Invalid {
		return itercache.Invalid, 0
	}
	obj := x.cache.Get(it)
	next := x.index.NextSecondary(obj)
	if next == nil {
		return x.cache.EndIteratorByTableID(obj.TableID), 0
	}
	return x.cache.Add(next), next.PrimaryKey
}

// Previous returns the preceding entry in secondary order and its primary
// key. From an end iterator it returns the table's last entry.
func (x *IndexAPI[K]) Previous(it int) (int, uint64, error) {
	x.debug("previous", "iterator", it)
	if it < itercache.Invalid {
		tab := x.cache.FindTableByEndIterator(it)
		if tab == nil {
			return itercache.Invalid, 0, newError(ErrCodeInvalidArgument, "not a valid end iterator")
		}
		last := x.index.Penultimate(tab.ID())
		if last == nil {
			return itercache.Invalid, 0, nil
		}
		return x.cache.Add(last), last.PrimaryKey, nil
	}
	obj := x.cache.Get(it)
	prev := x.index.PrevSecondary(obj)
	if prev == nil {
		return itercache.Invalid, 0, nil
	}
	return x.cache.Add(prev), prev.PrimaryKey, nil
}
