package contracts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/native"
	"github.com/roach88/chainsim/internal/state"
	"github.com/roach88/chainsim/internal/vm"
)

var tableCounts = chain.N("counts")

// NewCounter builds a contract that keeps one counter per user.
//
//	inc(user)    increments user's counter and prints "user=N"
//	count(n)     prints " 1  2 ... n "
//	erase(user)  removes user's counter
func NewCounter(self chain.Name) (*native.Contract, error) {
	counts := native.Table{Code: self, Scope: self, Name: tableCounts}
	return native.NewBuilder(self).
		Action("inc", func(_ context.Context, h *vm.Host, data []byte) error {
			d := native.NewDecoder(data)
			user := d.Name()
			if err := d.Done(); err != nil {
				return fmt.Errorf("inc: %w", err)
			}
			if err := h.RequireAuth(user); err != nil {
				return err
			}
			var n uint64
			if raw, ok := counts.Get(h, uint64(user)); ok {
				n = native.NewDecoder(raw).Uint64()
			}
			n++
			if err := counts.Put(h, user, uint64(user), native.NewEncoder().Uint64(n).Bytes()); err != nil {
				return err
			}
			h.Prints(user.String() + "=" + strconv.FormatUint(n, 10))
			return nil
		}).
		Action("count", func(_ context.Context, h *vm.Host, data []byte) error {
			d := native.NewDecoder(data)
			n := d.Uint64()
			if err := d.Done(); err != nil {
				return fmt.Errorf("count: %w", err)
			}
			for i := uint64(1); i <= n; i++ {
				h.Prints(" ")
				h.PrintUI(i)
				h.Prints(" ")
			}
			return nil
		}).
		Action("erase", func(_ context.Context, h *vm.Host, data []byte) error {
			d := native.NewDecoder(data)
			user := d.Name()
			if err := d.Done(); err != nil {
				return fmt.Errorf("erase: %w", err)
			}
			if err := h.RequireAuth(user); err != nil {
				return err
			}
			found, err := counts.Delete(h, uint64(user))
			if err != nil {
				return err
			}
			return check(h, found, "counter does not exist")
		}).
		Build()
}

// Count reads user's counter from a store.
func Count(store *state.Store, contract, user chain.Name) uint64 {
	tab := store.FindTable(uint64(contract), uint64(contract), uint64(tableCounts))
	if tab == nil {
		return 0
	}
	row := tab.Get(uint64(user))
	if row == nil {
		return 0
	}
	return native.NewDecoder(row.Value).Uint64()
}
