package vm

import (
	"errors"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/itercache"
	"github.com/roach88/chainsim/internal/state"
)

const (
	msgMissingPayer    = "must specify a valid account to pay for new record"
	msgUniqueness      = "key uniqueness violation"
	msgAccessViolation = "db access violation"
)

func (h *Host) findTable(code, scope, table chain.Name) *state.Table {
	return h.store.FindTable(uint64(code), uint64(scope), uint64(table))
}

func (h *Host) findOrCreateTable(scope, table, payer chain.Name) *state.Table {
	return h.store.FindOrCreateTable(uint64(h.ctx.Receiver), uint64(scope), uint64(table), uint64(payer))
}

func (h *Host) checkOwner(t *state.Table) error {
	if chain.Name(t.Code()) != h.ctx.Receiver {
		return newError(ErrCodeAccessViolation, msgAccessViolation)
	}
	return nil
}

// DBStoreI64 stores a new row in the receiver's table and returns its
// iterator.
func (h *Host) DBStoreI64(scope, table, payer chain.Name, id uint64, data []byte) (int, error) {
	h.logger.Debug("db_store_i64", "scope", scope, "table", table, "id", id)
	if payer == 0 {
		return itercache.Invalid, newError(ErrCodeMissingPayer, msgMissingPayer)
	}
	tab := h.findOrCreateTable(scope, table, payer)
	row := &state.KeyValueObject{Payer: uint64(payer), Value: append([]byte(nil), data...)}
	if err := tab.Insert(id, row); err != nil {
		if errors.Is(err, state.ErrUniqueness) {
			return itercache.Invalid, newError(ErrCodeUniquenessViolation, msgUniqueness)
		}
		return itercache.Invalid, err
	}
	h.kv.CacheTable(tab)
	return h.kv.Add(row), nil
}

// DBUpdateI64 replaces the value of the row behind it. A zero payer keeps
// the current payer.
func (h *Host) DBUpdateI64(it int, payer chain.Name, data []byte) error {
	h.logger.Debug("db_update_i64", "iterator", it)
	prev := h.kv.Get(it)
	tab := h.kv.TableOf(prev.TableID)
	if err := h.checkOwner(tab); err != nil {
		return err
	}
	next := prev.Clone()
	if payer != 0 {
		next.Payer = uint64(payer)
	}
	next.Value = append([]byte(nil), data...)
	tab.Set(next.PrimaryKey, next)
	h.kv.Set(it, next)
	return nil
}

// DBRemoveI64 deletes the row behind it.
func (h *Host) DBRemoveI64(it int) error {
	h.logger.Debug("db_remove_i64", "iterator", it)
	row := h.kv.Get(it)
	tab := h.kv.TableOf(row.TableID)
	if err := h.checkOwner(tab); err != nil {
		return err
	}
	if err := tab.Delete(row.PrimaryKey); err != nil {
		return err
	}
	h.kv.Remove(it)
	return nil
}

// DBGetI64 returns the value of the row behind it. Callers must not
// modify it. Any contract may read any table, so there is no owner check.
func (h *Host) DBGetI64(it int) []byte {
	h.logger.Debug("db_get_i64", "iterator", it)
	return h.kv.Get(it).Value
}

// DBNextI64 returns the iterator and primary key of the following row. It
// returns the end iterator after the last row and -1 for end iterators.
func (h *Host) DBNextI64(it int) (int, uint64) {
	h.logger.Debug("db_next_i64", "iterator", it)
	if it < itercache.Invalid {
		return itercache.Invalid, 0
	}
	row := h.kv.Get(it)
	next := h.kv.TableOf(row.TableID).Next(row.PrimaryKey)
	if next == nil {
		return h.kv.EndIteratorByTableID(row.TableID), 0
	}
	return h.kv.Add(next), next.PrimaryKey
}

// DBPreviousI64 returns the iterator and primary key of the preceding row.
// From an end iterator it returns the last row. It returns -1 when there
// is no preceding row.
func (h *Host) DBPreviousI64(it int) (int, uint64, error) {
	h.logger.Debug("db_previous_i64", "iterator", it)
	if it < itercache.Invalid {
		tab := h.kv.FindTableByEndIterator(it)
		if tab == nil {
			return itercache.Invalid, 0, newError(ErrCodeInvalidArgument, "not a valid end iterator")
		}
		last := tab.Penultimate()
		if last == nil {
			return itercache.Invalid, 0, nil
		}
		return h.kv.Add(last), last.PrimaryKey, nil
	}
	row := h.kv.Get(it)
	prev := h.kv.TableOf(row.TableID).Prev(row.PrimaryKey)
	if prev == nil {
		return itercache.Invalid, 0, nil
	}
	return h.kv.Add(prev), prev.PrimaryKey, nil
}

// lookup resolves a table, caches its end iterator and returns the
// iterator of the row chosen by find.
func (h *Host) lookup(code, scope, table chain.Name, find func(*state.Table) *state.KeyValueObject) int {
	tab := h.findTable(code, scope, table)
	if tab == nil {
		return itercache.Invalid
	}
	end := h.kv.CacheTable(tab)
	row := find(tab)
	if row == nil {
		return end
	}
	return h.kv.Add(row)
}

// DBFindI64 returns the iterator of row id, the end iterator if the row is
// missing, or -1 if the table is missing.
func (h *Host) DBFindI64(code, scope, table chain.Name, id uint64) int {
	h.logger.Debug("db_find_i64", "code", code, "scope", scope, "table", table, "id", id)
	return h.lookup(code, scope, table, func(t *state.Table) *state.KeyValueObject {
		return t.Get(id)
	})
}

// DBLowerboundI64 returns the first row with primary key >= id.
func (h *Host) DBLowerboundI64(code, scope, table chain.Name, id uint64) int {
	h.logger.Debug("db_lowerbound_i64", "code", code, "scope", scope, "table", table, "id", id)
	return h.lookup(code, scope, table, func(t *state.Table) *state.KeyValueObject {
		return t.LowerBound(id)
	})
}

// DBUpperboundI64 returns the first row with primary key > id.
func (h *Host) DBUpperboundI64(code, scope, table chain.Name, id uint64) int {
	h.logger.Debug("db_upperbound_i64", "code", code, "scope", scope, "table", table, "id", id)
	return h.lookup(code, scope, table, func(t *state.Table) *state.KeyValueObject {
		return t.UpperBound(id)
	})
}

// DBEndI64 returns the table's end iterator, or -1 if the table is missing.
func (h *Host) DBEndI64(code, scope, table chain.Name) int {
	h.logger.Debug("db_end_i64", "code", code, "scope", scope, "table", table)
	tab := h.findTable(code, scope, table)
	if tab == nil {
		return itercache.Invalid
	}
	return h.kv.CacheTable(tab)
}
