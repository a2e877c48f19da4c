// Package native builds contracts out of Go functions.
//
// A native contract runs against the same *vm.Host a wasm contract does,
// so it reads tables, requires authority, notifies and sends inline actions
// through exactly the host surface a compiled module would use.
package native

import (
	"context"
	"fmt"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

// Handler runs one action. data is the raw action payload.
type Handler func(ctx context.Context, h *vm.Host, data []byte) error

type notifyKey struct {
	code   chain.Name
	action chain.Name
}

// Contract is a vm.Module dispatching on action name.
type Contract struct {
	name    chain.Name
	actions map[chain.Name]Handler
	notify  map[notifyKey]Handler
}

var _ vm.Module = (*Contract)(nil)

// Builder assembles a Contract.
type Builder struct {
	c   *Contract
	err error
}

// NewBuilder starts a contract that will be deployed as name.
func NewBuilder(name chain.Name) *Builder {
	return &Builder{c: &Contract{
		name:    name,
		actions: make(map[chain.Name]Handler),
		notify:  make(map[notifyKey]Handler),
	}}
}

// Action registers the handler for an action addressed to the contract.
func (b *Builder) Action(name string, fn Handler) *Builder {
	n, err := chain.ParseName(name)
	if err != nil {
		b.fail(fmt.Errorf("action %q: %w", name, err))
		return b
	}
	if _, dup := b.c.actions[n]; dup {
		b.fail(fmt.Errorf("action %q registered twice", name))
		return b
	}
	b.c.actions[n] = fn
	return b
}

// OnNotify registers the handler for a notification of code::action. A
// code of "*" matches any contract.
func (b *Builder) OnNotify(code, action string, fn Handler) *Builder {
	var key notifyKey
	if code != "*" {
		n, err := chain.ParseName(code)
		if err != nil {
			b.fail(fmt.Errorf("notification code %q: %w", code, err))
			return b
		}
		key.code = n
	}
	n, err := chain.ParseName(action)
	if err != nil {
		b.fail(fmt.Errorf("notification action %q: %w", action, err))
		return b
	}
	key.action = n
	b.c.notify[key] = fn
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build returns the contract or the first registration error.
func (b *Builder) Build() (*Contract, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.c, nil
}

// MustBuild is Build for contracts defined at package level.
func (b *Builder) MustBuild() *Contract {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the account the contract was built for.
func (c *Contract) Name() chain.Name {
	return c.name
}

// Actions lists the registered action names.
func (c *Contract) Actions() []chain.Name {
	out := make([]chain.Name, 0, len(c.actions))
	for n := range c.actions {
		out = append(out, n)
	}
	return out
}

// Apply dispatches like a generated EOSIO apply function. Actions addressed
// to the contract go to Action handlers, notifications to OnNotify
// handlers. Anything unmatched is ignored.
func (c *Contract) Apply(ctx context.Context, h *vm.Host, receiver, firstReceiver, action chain.Name) error {
	var fn Handler
	if receiver == firstReceiver {
		fn = c.actions[action]
	} else {
		fn = c.notify[notifyKey{code: firstReceiver, action: action}]
		if fn == nil {
			fn = c.notify[notifyKey{action: action}]
		}
	}
	if fn == nil {
		h.Logger().Debug("no handler", "first_receiver", firstReceiver)
		return nil
	}
	return fn(ctx, h, h.ReadActionData())
}
