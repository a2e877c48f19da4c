package vm

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/state"
)

var (
	alice    = chain.N("alice")
	bob      = chain.N("bob")
	token    = chain.N("token")
	listener = chain.N("listener")
	accounts = chain.N("accounts")
)

type fakeAccount struct {
	name     chain.Name
	contract bool
	perms    []chain.Permission
	created  chain.TimePoint
}

func (a *fakeAccount) Name() chain.Name              { return a.name }
func (a *fakeAccount) IsContract() bool              { return a.contract }
func (a *fakeAccount) CreationTime() chain.TimePoint { return a.created }

func (a *fakeAccount) Permission(name chain.Name) (chain.Permission, bool) {
	for _, p := range a.perms {
		if p.Name == name {
			return p, true
		}
	}
	return chain.Permission{}, false
}

type fakeChain struct {
	store    *state.Store
	accounts map[chain.Name]*fakeAccount
	now      chain.TimePoint
	console  strings.Builder
	notified []*Context
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	c := &fakeChain{
		store:    state.NewStore(),
		accounts: make(map[chain.Name]*fakeAccount),
		now:      chain.TimePointFromMillis(1_600_000_000_000),
	}
	c.add(alice, false)
	c.add(bob, false)
	c.add(token, true)
	c.add(listener, true)
	return c
}

func (c *fakeChain) add(name chain.Name, contract bool) *fakeAccount {
	a := &fakeAccount{name: name, contract: contract, perms: chain.DefaultPermissions(name), created: c.now}
	c.accounts[name] = a
	return a
}

func (c *fakeChain) Store() *state.Store  { return c.store }
func (c *fakeChain) Now() chain.TimePoint { return c.now }
func (c *fakeChain) Print(s string)       { c.console.WriteString(s) }
func (c *fakeChain) Notify(ctx *Context)  { c.notified = append(c.notified, ctx) }
func (c *fakeChain) Account(n chain.Name) (Account, bool) {
	a, ok := c.accounts[n]
	if !ok {
		return nil, false
	}
	return a, true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHost returns a Host bound to an action on token authorized by
// alice@active.
func newTestHost(t *testing.T, c *fakeChain) *Host {
	t.Helper()
	ctx := &Context{
		Receiver:      token,
		FirstReceiver: token,
		Action:        chain.N("transfer"),
		Data:          []byte{1, 2, 3},
		Authorization: []chain.PermissionLevel{{Actor: alice, Permission: chain.NameActive}},
	}
	return newHost(c, c.store, ctx, testLogger())
}

// run applies one action on token through a VM running fn.
func run(t *testing.T, c *fakeChain, ctx *Context, fn ModuleFunc) error {
	t.Helper()
	v := New(c, fn, WithLogger(testLogger()))
	return v.Apply(context.Background(), ctx)
}

func transferContext() *Context {
	return &Context{
		Receiver:      token,
		FirstReceiver: token,
		Action:        chain.N("transfer"),
		Authorization: []chain.PermissionLevel{{Actor: alice, Permission: chain.NameActive}},
	}
}
