// Package contracts holds native contracts used by tests, scenarios and the
// CLI.
package contracts

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/native"
	"github.com/roach88/chainsim/internal/state"
	"github.com/roach88/chainsim/internal/vm"
)

var (
	tableStat     = chain.N("stat")
	tableAccounts = chain.N("accounts")
)

// check fails the action with msg, the way eosio::check does.
func check(h *vm.Host, ok bool, msg string) error {
	return h.EosioAssert(ok, msg)
}

type currencyStats struct {
	Supply    native.Asset
	MaxSupply native.Asset
	Issuer    chain.Name
}

func (s currencyStats) pack() []byte {
	return native.NewEncoder().Asset(s.Supply).Asset(s.MaxSupply).Name(s.Issuer).Bytes()
}

func unpackStats(b []byte) (currencyStats, error) {
	d := native.NewDecoder(b)
	s := currencyStats{Supply: d.Asset(), MaxSupply: d.Asset(), Issuer: d.Name()}
	return s, d.Done()
}

// Token is an eosio.token style contract deployed at self.
//
// Tables:
//   - stat, scope symbol code: supply, max supply and issuer.
//   - accounts, scope holder: the holder's balance, keyed by symbol code,
//     with an idx64 entry on the balance amount.
//
// transfer notifies both parties.
type Token struct {
	self chain.Name
}

// NewToken builds the token contract for account self.
func NewToken(self chain.Name) (*native.Contract, error) {
	t := &Token{self: self}
	return native.NewBuilder(self).
		Action("create", t.create).
		Action("issue", t.issue).
		Action("transfer", t.transfer).
		Build()
}

func (t *Token) stats(sym native.Symbol) native.Table {
	return native.Table{Code: t.self, Scope: chain.Name(sym.CodeRaw()), Name: tableStat}
}

func (t *Token) accounts(owner chain.Name) native.Table {
	return native.Table{Code: t.self, Scope: owner, Name: tableAccounts}
}

func validAsset(h *vm.Host, q native.Asset, what string) error {
	if err := check(h, q.Amount > 0, "must "+what+" positive quantity"); err != nil {
		return err
	}
	return nil
}

func (t *Token) create(_ context.Context, h *vm.Host, data []byte) error {
	d := native.NewDecoder(data)
	issuer, maxSupply := d.Name(), d.Asset()
	if err := d.Done(); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := h.RequireAuth(t.self); err != nil {
		return err
	}
	if err := check(h, maxSupply.Amount > 0, "max-supply must be positive"); err != nil {
		return err
	}
	st := t.stats(maxSupply.Symbol)
	_, exists := st.Get(h, maxSupply.Symbol.CodeRaw())
	if err := check(h, !exists, "token with symbol already exists"); err != nil {
		return err
	}
	row := currencyStats{
		Supply:    native.Asset{Symbol: maxSupply.Symbol},
		MaxSupply: maxSupply,
		Issuer:    issuer,
	}
	return st.Put(h, t.self, maxSupply.Symbol.CodeRaw(), row.pack())
}

func (t *Token) issue(_ context.Context, h *vm.Host, data []byte) error {
	d := native.NewDecoder(data)
	to, quantity, memo := d.Name(), d.Asset(), d.Str()
	if err := d.Done(); err != nil {
		return fmt.Errorf("issue: %w", err)
	}
	if err := check(h, len(memo) <= 256, "memo has more than 256 bytes"); err != nil {
		return err
	}
	st := t.stats(quantity.Symbol)
	raw, ok := st.Get(h, quantity.Symbol.CodeRaw())
	if err := check(h, ok, "token with symbol does not exist, create token before issue"); err != nil {
		return err
	}
	stats, err := unpackStats(raw)
	if err != nil {
		return fmt.Errorf("issue: corrupt stats row: %w", err)
	}
	if err := h.RequireAuth(stats.Issuer); err != nil {
		return err
	}
	if err := validAsset(h, quantity, "issue"); err != nil {
		return err
	}
	if err := check(h, quantity.Symbol == stats.Supply.Symbol, "symbol precision mismatch"); err != nil {
		return err
	}
	if err := check(h, quantity.Amount <= stats.MaxSupply.Amount-stats.Supply.Amount, "quantity exceeds available supply"); err != nil {
		return err
	}
	stats.Supply.Amount += quantity.Amount
	// Zero keeps the current payer.
	if err := st.Put(h, 0, quantity.Symbol.CodeRaw(), stats.pack()); err != nil {
		return err
	}
	return t.addBalance(h, to, quantity, stats.Issuer)
}

func (t *Token) transfer(_ context.Context, h *vm.Host, data []byte) error {
	d := native.NewDecoder(data)
	from, to, quantity, memo := d.Name(), d.Name(), d.Asset(), d.Str()
	if err := d.Done(); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := check(h, from != to, "cannot transfer to self"); err != nil {
		return err
	}
	if err := h.RequireAuth(from); err != nil {
		return err
	}
	if err := check(h, h.IsAccount(to), "to account does not exist"); err != nil {
		return err
	}
	raw, ok := t.stats(quantity.Symbol).Get(h, quantity.Symbol.CodeRaw())
	if err := check(h, ok, "unable to find key"); err != nil {
		return err
	}
	stats, err := unpackStats(raw)
	if err != nil {
		return fmt.Errorf("transfer: corrupt stats row: %w", err)
	}
	if err := h.RequireRecipient(from); err != nil {
		return err
	}
	if err := h.RequireRecipient(to); err != nil {
		return err
	}
	if err := validAsset(h, quantity, "transfer"); err != nil {
		return err
	}
	if err := check(h, quantity.Symbol == stats.Supply.Symbol, "symbol precision mismatch"); err != nil {
		return err
	}
	if err := check(h, len(memo) <= 256, "memo has more than 256 bytes"); err != nil {
		return err
	}
	if err := t.subBalance(h, from, quantity); err != nil {
		return err
	}
	return t.addBalance(h, to, quantity, from)
}

func (t *Token) subBalance(h *vm.Host, owner chain.Name, value native.Asset) error {
	acc := t.accounts(owner)
	pk := value.Symbol.CodeRaw()
	raw, ok := acc.Get(h, pk)
	if err := check(h, ok, "no balance object found"); err != nil {
		return err
	}
	balance := native.NewDecoder(raw).Asset()
	if err := check(h, balance.Amount >= value.Amount, "overdrawn balance"); err != nil {
		return err
	}
	balance.Amount -= value.Amount
	return t.writeBalance(h, owner, owner, balance)
}

func (t *Token) addBalance(h *vm.Host, owner chain.Name, value native.Asset, payer chain.Name) error {
	balance := native.Asset{Symbol: value.Symbol}
	if raw, ok := t.accounts(owner).Get(h, value.Symbol.CodeRaw()); ok {
		balance = native.NewDecoder(raw).Asset()
	}
	if err := check(h, balance.Amount <= math.MaxInt64-value.Amount, "balance overflow"); err != nil {
		return err
	}
	balance.Amount += value.Amount
	return t.writeBalance(h, owner, payer, balance)
}

// writeBalance stores the row and keeps the idx64 entry on the amount in
// step with it.
func (t *Token) writeBalance(h *vm.Host, owner, payer chain.Name, balance native.Asset) error {
	pk := balance.Symbol.CodeRaw()
	if err := t.accounts(owner).Put(h, payer, pk, native.NewEncoder().Asset(balance).Bytes()); err != nil {
		return err
	}
	it, _ := h.Idx64.FindPrimary(t.self, owner, tableAccounts, pk)
	if it >= 0 {
		return h.Idx64.Update(it, payer, uint64(balance.Amount))
	}
	_, err := h.Idx64.Store(owner, tableAccounts, payer, pk, uint64(balance.Amount))
	return err
}

// Balance reads owner's balance of sym straight from a store, outside any
// action.
func Balance(store *state.Store, contract, owner chain.Name, sym native.Symbol) native.Asset {
	tab := store.FindTable(uint64(contract), uint64(owner), uint64(tableAccounts))
	if tab == nil {
		return native.Asset{Symbol: sym}
	}
	row := tab.Get(sym.CodeRaw())
	if row == nil {
		return native.Asset{Symbol: sym}
	}
	return native.NewDecoder(row.Value).Asset()
}

// CreateData packs the payload of token::create.
func CreateData(issuer chain.Name, maxSupply native.Asset) []byte {
	return native.NewEncoder().Name(issuer).Asset(maxSupply).Bytes()
}

// IssueData packs the payload of token::issue.
func IssueData(to chain.Name, quantity native.Asset, memo string) []byte {
	return native.NewEncoder().Name(to).Asset(quantity).Str(memo).Bytes()
}

// TransferData packs the payload of token::transfer.
func TransferData(from, to chain.Name, quantity native.Asset, memo string) []byte {
	return native.NewEncoder().Name(from).Name(to).Asset(quantity).Str(memo).Bytes()
}
