package vm

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/state"
)

// Chain is the view of the blockchain a VM needs while applying an action.
type Chain interface {
	// Store returns the current state store.
	Store() *state.Store

	// Account looks up an account by name.
	Account(name chain.Name) (Account, bool)

	// Now returns the current blockchain time.
	Now() chain.TimePoint

	// Print appends s to the transaction console.
	Print(s string)

	// Notify appends c to the blockchain-global notification queue.
	Notify(c *Context)
}

// Account is the view of an account the VM needs for authorization and
// notification checks.
type Account interface {
	Name() chain.Name
	IsContract() bool
	Permission(name chain.Name) (chain.Permission, bool)
	CreationTime() chain.TimePoint
}

// Module is contract code. Apply runs one action against h; the receiver,
// first receiver and action name mirror the arguments of a contract's
// exported apply function.
type Module interface {
	Apply(ctx context.Context, h *Host, receiver, firstReceiver, action chain.Name) error
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(ctx context.Context, h *Host, receiver, firstReceiver, action chain.Name) error

// Apply calls f.
func (f ModuleFunc) Apply(ctx context.Context, h *Host, receiver, firstReceiver, action chain.Name) error {
	return f(ctx, h, receiver, firstReceiver, action)
}

// Resetter is implemented by modules that keep per-transaction state, such
// as a wasm instance with linear memory.
type Resetter interface {
	Reset(ctx context.Context) error
}

// VM applies actions for one contract account.
//
// CRITICAL: a VM never lets an iterator handle outlive an action. Every
// Apply builds a fresh Host with empty caches.
type VM struct {
	chain  Chain
	module Module
	logger *slog.Logger
}

// Option configures a VM.
type Option func(*VM)

// WithLogger sets the logger used for intrinsic tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(v *VM) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New returns a VM that runs module against c.
func New(c Chain, module Module, opts ...Option) *VM {
	v := &VM{
		chain:  c,
		module: module,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Module returns the contract code this VM runs.
func (v *VM) Module() Module {
	return v.module
}

// Reset discards per-transaction module state.
func (v *VM) Reset(ctx context.Context) error {
	if r, ok := v.module.(Resetter); ok {
		return r.Reset(ctx)
	}
	return nil
}

// Apply runs c against the module.
//
// Authorization is checked before anything runs. A failure after that
// reverts the store to the state it had when Apply was called, except for
// eosio_exit, which ends the action and keeps its effects.
func (v *VM) Apply(ctx context.Context, c *Context) error {
	store := v.chain.Store()
	mark := store.Snapshot()

	if err := v.checkAuthorization(c); err != nil {
		return err
	}

	h := newHost(v.chain, store, c, v.logger)
	err := v.module.Apply(ctx, h, c.Receiver, c.FirstReceiver, c.Action)
	if err == nil || IsExit(err) {
		return nil
	}
	store.RevertTo(mark)
	return err
}

// checkAuthorization verifies that every authorizing actor exists and owns
// the permission. Inline actions must also be satisfiable by the sending
// contract's eosio.code permission.
func (v *VM) checkAuthorization(c *Context) error {
	for _, auth := range c.Authorization {
		acct, ok := v.chain.Account(auth.Actor)
		if !ok {
			return newError(ErrCodeMissingAccount, "Account %s is missing for inline action", auth.Actor)
		}
		perm, ok := acct.Permission(auth.Permission)
		if !ok {
			return newError(ErrCodeMissingAccount, "Account %s has no permission %s", auth.Actor, auth.Permission)
		}
		if !c.IsInline() {
			continue
		}
		code := chain.PermissionLevel{Actor: c.Sender, Permission: chain.NameEosioCode}
		if !perm.RequiredAuth.SatisfiedBy(code) {
			return &RuntimeError{
				Code:    ErrCodeUnsatisfiedPermission,
				Message: "Permission " + auth.String() + " is not satisfied by " + code.String(),
				Details: map[string]string{"sender": c.Sender.String()},
			}
		}
	}
	return nil
}
