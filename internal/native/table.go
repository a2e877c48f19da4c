package native

import (
	"slices"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/itercache"
	"github.com/roach88/chainsim/internal/vm"
)

// Table is a primary-key view of one (code, scope, table) triple, the
// shape of an eosio::multi_index without secondary indexes. Writes go to
// the running contract's own tables.
type Table struct {
	Code  chain.Name
	Scope chain.Name
	Name  chain.Name
}

// Get returns the row with primary key pk.
func (t Table) Get(h *vm.Host, pk uint64) ([]byte, bool) {
	it := h.DBFindI64(t.Code, t.Scope, t.Name, pk)
	if it < 0 {
		return nil, false
	}
	return h.DBGetI64(it), true
}

// Put inserts the row or replaces an existing one. payer is billed for
// new rows and becomes the payer of replaced ones.
func (t Table) Put(h *vm.Host, payer chain.Name, pk uint64, row []byte) error {
	if it := h.DBFindI64(t.Code, t.Scope, t.Name, pk); it >= 0 {
		return h.DBUpdateI64(it, payer, row)
	}
	_, err := h.DBStoreI64(t.Scope, t.Name, payer, pk, row)
	return err
}

// Delete removes the row if it exists and reports whether it did.
func (t Table) Delete(h *vm.Host, pk uint64) (bool, error) {
	it := h.DBFindI64(t.Code, t.Scope, t.Name, pk)
	if it < 0 {
		return false, nil
	}
	return true, h.DBRemoveI64(it)
}

// Keys returns every primary key in ascending order. The walk runs
// backwards from the end iterator, which is the only direction that
// yields each row's primary key.
func (t Table) Keys(h *vm.Host) ([]uint64, error) {
	var keys []uint64
	it := h.DBEndI64(t.Code, t.Scope, t.Name)
	for it != itercache.Invalid {
		prev, pk, err := h.DBPreviousI64(it)
		if err != nil {
			return nil, err
		}
		if prev < 0 {
			break
		}
		keys = append(keys, pk)
		it = prev
	}
	slices.Reverse(keys)
	return keys, nil
}
