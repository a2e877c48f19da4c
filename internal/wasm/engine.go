// Package wasm runs compiled contract modules on wazero.
//
// ARCHITECTURE:
// One Engine owns one wazero runtime and the "env" host module that exposes
// every intrinsic. Host functions never capture a Host: the running
// *vm.Host travels in the context passed to the contract's apply export,
// so a single env instance serves every contract and every action.
//
// CRITICAL PATTERNS:
//
// 1. Host errors become panics
//   - A host function that fails panics with the *vm.RuntimeError (or
//     *vm.ExitError). wazero recovers it and wraps it with %w, so
//     errors.As still finds it after Call returns.
//
// 2. Invariant violations stay fatal
//   - *state.InvariantError and *itercache.InvariantError are unwrapped and
//     re-panicked after Call returns. They are never turned into an action
//     failure.
//
// 3. Instances are per transaction
//   - A Module instantiates lazily on first apply and is closed on Reset
//     and after any failed apply, so linear memory never leaks across
//     transactions.
package wasm

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tetratelabs/wazero"
)

// DefaultCacheSize is the number of compiled modules kept by an Engine.
const DefaultCacheSize = 64

// Engine compiles and instantiates contract modules.
type Engine struct {
	runtime wazero.Runtime
	logger  *slog.Logger
	size    int

	mu       sync.Mutex
	compiled *lru.Cache // [32]byte code hash -> wazero.CompiledModule
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCacheSize sets how many compiled modules are kept.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.size = n
		}
	}
}

// NewEngine creates a runtime and instantiates the env host module in it.
func NewEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		size:   DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	// Evicted modules are not closed: a loaded Module may still
	// instantiate from them. The runtime releases them on Close.
	cache, err := lru.NewWithEvict(e.size, func(key, _ interface{}) {
		if k, ok := key.([32]byte); ok {
			e.logger.Debug("evicted compiled module", "hash", fmt.Sprintf("%x", k[:8]))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create module cache: %w", err)
	}
	e.compiled = cache

	e.runtime = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())
	if err := instantiateEnv(ctx, e.runtime); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate env module: %w", err)
	}
	return e, nil
}

// Close releases the runtime and every compiled module.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled.Purge()
	return e.runtime.Close(ctx)
}

// compile returns the compiled form of code, reusing a cached compilation
// for identical bytes.
func (e *Engine) compile(ctx context.Context, code []byte) (wazero.CompiledModule, error) {
	key := sha256.Sum256(code)

	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.compiled.Get(key); ok {
		return v.(wazero.CompiledModule), nil
	}
	cm, err := e.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}
	if _, ok := cm.ExportedFunctions()["apply"]; !ok {
		_ = cm.Close(ctx)
		return nil, fmt.Errorf("compile module: missing apply export")
	}
	e.compiled.Add(key, cm)
	e.logger.Debug("compiled contract module", "hash", fmt.Sprintf("%x", key[:8]), "size", len(code))
	return cm, nil
}

// Load compiles code and returns a Module ready to be attached to a
// contract account.
func (e *Engine) Load(ctx context.Context, code []byte) (*Module, error) {
	cm, err := e.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	return &Module{engine: e, compiled: cm, hash: sha256.Sum256(code)}, nil
}
