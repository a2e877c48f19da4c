package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/itercache"
	"github.com/roach88/chainsim/internal/state"
	"github.com/roach88/chainsim/internal/vm"
)

// Module is a compiled contract. It implements vm.Module and vm.Resetter.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
	hash     [32]byte
	instance api.Module
}

var (
	_ vm.Module   = (*Module)(nil)
	_ vm.Resetter = (*Module)(nil)
)

// Hash returns the SHA-256 of the module bytes.
func (m *Module) Hash() [32]byte {
	return m.hash
}

func (m *Module) instantiate(ctx context.Context) (api.Module, error) {
	if m.instance != nil {
		return m.instance, nil
	}
	// Anonymous so that several contracts may share one compiled module.
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	inst, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate module: %w", err)
	}
	m.instance = inst
	return inst, nil
}

// Reset discards the current instance. The next Apply starts from fresh
// linear memory.
func (m *Module) Reset(ctx context.Context) error {
	if m.instance == nil {
		return nil
	}
	err := m.instance.Close(ctx)
	m.instance = nil
	return err
}

// Apply calls the contract's apply(receiver, code, action) export with h
// bound to the call.
func (m *Module) Apply(ctx context.Context, h *vm.Host, receiver, firstReceiver, action chain.Name) error {
	inst, err := m.instantiate(ctx)
	if err != nil {
		return err
	}
	apply := inst.ExportedFunction("apply")
	if apply == nil {
		return fmt.Errorf("module has no apply export")
	}

	_, err = apply.Call(withHost(ctx, h), uint64(receiver), uint64(firstReceiver), uint64(action))
	if err == nil {
		return nil
	}
	_ = m.Reset(ctx)
	return unwrap(err)
}

// unwrap turns an error returned by wazero back into the host error that
// caused it. Invariant violations are re-raised.
func unwrap(err error) error {
	var stateErr *state.InvariantError
	if errors.As(err, &stateErr) {
		panic(stateErr)
	}
	var cacheErr *itercache.InvariantError
	if errors.As(err, &cacheErr) {
		panic(cacheErr)
	}
	var exit *vm.ExitError
	if errors.As(err, &exit) {
		return exit
	}
	var re *vm.RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return fmt.Errorf("wasm trap: %w", err)
}

type hostKey struct{}

func withHost(ctx context.Context, h *vm.Host) context.Context {
	return context.WithValue(ctx, hostKey{}, h)
}

// hostOf returns the Host bound to the running apply call.
func hostOf(ctx context.Context) *vm.Host {
	h, ok := ctx.Value(hostKey{}).(*vm.Host)
	if !ok {
		panic(&vm.RuntimeError{Code: vm.ErrCodeInvalidArgument, Message: "intrinsic called outside apply"})
	}
	return h
}
