package wasm

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/state"
	"github.com/roach88/chainsim/internal/vm"
)

// Minimal hand-assembled modules. leb and section keep the byte layout
// readable; every size below fits in one LEB128 byte.

func leb(n int) byte { return byte(n) }

func section(id byte, content ...byte) []byte {
	return append([]byte{id, leb(len(content))}, content...)
}

func str(s string) []byte {
	return append([]byte{leb(len(s))}, s...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// echoModule imports prints_l, eosio_assert and read_action_data. Its apply
// prints "hello", reads one byte of action data and asserts it is non-zero
// with the message "boom".
func echoModule() []byte {
	types := section(0x01, concat(
		[]byte{0x03},
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x00},       // (i32, i32) -> ()
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f}, // (i32, i32) -> i32
		[]byte{0x60, 0x03, 0x7e, 0x7e, 0x7e, 0x00}, // (i64, i64, i64) -> ()
	)...)
	imports := section(0x02, concat(
		[]byte{0x03},
		str("env"), str("prints_l"), []byte{0x00, 0x00},
		str("env"), str("eosio_assert"), []byte{0x00, 0x00},
		str("env"), str("read_action_data"), []byte{0x00, 0x01},
	)...)
	funcs := section(0x03, 0x01, 0x02)
	memory := section(0x05, 0x01, 0x00, 0x01)
	exports := section(0x07, concat(
		[]byte{0x02},
		str("memory"), []byte{0x02, 0x00},
		str("apply"), []byte{0x00, 0x03},
	)...)
	body := concat(
		[]byte{0x00},                                     // no locals
		[]byte{0x41, 0x10, 0x41, 0x05, 0x10, 0x00},       // prints_l(16, 5)
		[]byte{0x41, 0xc0, 0x00, 0x41, 0x01, 0x10, 0x02}, // read_action_data(64, 1)
		[]byte{0x1a},                                     // drop
		[]byte{0x41, 0xc0, 0x00, 0x2d, 0x00, 0x00},       // i32.load8_u(64)
		[]byte{0x41, 0x20, 0x10, 0x01},                   // eosio_assert(_, 32)
		[]byte{0x0b},
	)
	code := section(0x0a, concat([]byte{0x01, leb(len(body))}, body)...)
	data := section(0x0b, concat(
		[]byte{0x02},
		[]byte{0x00, 0x41, 0x10, 0x0b}, str("hello"),
		[]byte{0x00, 0x41, 0x20, 0x0b}, str("boom\x00"),
	)...)
	return concat(header, types, imports, funcs, memory, exports, code, data)
}

// exitModule calls eosio_exit(0) and then traps with unreachable.
func exitModule() []byte {
	types := section(0x01, concat(
		[]byte{0x02},
		[]byte{0x60, 0x01, 0x7f, 0x00},
		[]byte{0x60, 0x03, 0x7e, 0x7e, 0x7e, 0x00},
	)...)
	imports := section(0x02, concat([]byte{0x01}, str("env"), str("eosio_exit"), []byte{0x00, 0x00})...)
	funcs := section(0x03, 0x01, 0x01)
	exports := section(0x07, concat([]byte{0x01}, str("apply"), []byte{0x00, 0x01})...)
	body := []byte{0x00, 0x41, 0x00, 0x10, 0x00, 0x00, 0x0b}
	code := section(0x0a, concat([]byte{0x01, leb(len(body))}, body)...)
	return concat(header, types, imports, funcs, exports, code)
}

// trapModule executes unreachable.
func trapModule() []byte {
	types := section(0x01, 0x01, 0x60, 0x03, 0x7e, 0x7e, 0x7e, 0x00)
	funcs := section(0x03, 0x01, 0x00)
	exports := section(0x07, concat([]byte{0x01}, str("apply"), []byte{0x00, 0x00})...)
	body := []byte{0x00, 0x00, 0x0b}
	code := section(0x0a, concat([]byte{0x01, leb(len(body))}, body)...)
	return concat(header, types, funcs, exports, code)
}

type testAccount struct{ name chain.Name }

func (a testAccount) Name() chain.Name              { return a.name }
func (a testAccount) IsContract() bool              { return true }
func (a testAccount) CreationTime() chain.TimePoint { return 0 }
func (a testAccount) Permission(chain.Name) (chain.Permission, bool) {
	return chain.Permission{}, false
}

type testChain struct {
	store   *state.Store
	console strings.Builder
}

func (c *testChain) Store() *state.Store  { return c.store }
func (c *testChain) Now() chain.TimePoint { return 0 }
func (c *testChain) Print(s string)       { c.console.WriteString(s) }
func (c *testChain) Notify(*vm.Context)   {}
func (c *testChain) Account(n chain.Name) (vm.Account, bool) {
	return testAccount{name: n}, true
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := NewEngine(ctx, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithCacheSize(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func applyData(t *testing.T, m *Module, data ...byte) (*vm.Context, *testChain, error) {
	t.Helper()
	c := &testChain{store: state.NewStore()}
	ctx := vm.NewActionContext(chain.Action{
		Account: chain.N("echo"),
		Name:    chain.N("run"),
		Data:    data,
	}, nil)
	err := vm.New(c, m).Apply(context.Background(), ctx)
	return ctx, c, err
}

func TestEngine_LoadCachesCompilation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Load(ctx, echoModule())
	require.NoError(t, err)
	b, err := e.Load(ctx, echoModule())
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Same(t, a.compiled, b.compiled)
	assert.Equal(t, 1, e.compiled.Len())
}

func TestEngine_LoadRejectsModuleWithoutApply(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Load(context.Background(), header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing apply export")
	assert.Equal(t, 0, e.compiled.Len())
}

func TestEngine_LoadRejectsGarbage(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Load(context.Background(), []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile module")
}

func TestModule_ApplyPrintsThroughHost(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.Load(context.Background(), echoModule())
	require.NoError(t, err)

	ctx, c, err := applyData(t, m, 1)
	require.NoError(t, err)
	assert.Equal(t, "hello", ctx.Console())
	assert.Equal(t, "hello", c.console.String())
	assert.NotNil(t, m.instance)
}

func TestModule_AssertionFailureResetsInstance(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.Load(context.Background(), echoModule())
	require.NoError(t, err)

	_, _, err = applyData(t, m, 0)
	require.Error(t, err)
	assert.True(t, vm.IsAssertionError(err))
	assert.Equal(t, "ASSERTION_FAILED: eosio_assert: boom", err.Error())
	assert.Nil(t, m.instance)

	// A fresh instance serves the next action.
	_, _, err = applyData(t, m, 7)
	require.NoError(t, err)
}

func TestModule_ExitEndsActionSuccessfully(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.Load(context.Background(), exitModule())
	require.NoError(t, err)

	_, _, err = applyData(t, m)
	require.NoError(t, err)
}

func TestModule_TrapIsWrapped(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.Load(context.Background(), trapModule())
	require.NoError(t, err)

	_, _, err = applyData(t, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wasm trap")
	assert.Equal(t, vm.ErrorCode(""), vm.CodeOf(err))
}

func TestModule_Reset(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	m, err := e.Load(ctx, echoModule())
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))
	_, _, err = applyData(t, m, 1)
	require.NoError(t, err)
	require.NotNil(t, m.instance)

	require.NoError(t, m.Reset(ctx))
	assert.Nil(t, m.instance)
}

func TestUnwrap(t *testing.T) {
	exit := &vm.ExitError{Code: 3}
	assert.Same(t, exit, unwrap(wrapped(exit)))

	re := vm.NewAssertionError("x")
	assert.Same(t, re, unwrap(wrapped(re)))

	inv := &state.InvariantError{Message: "broken"}
	assert.PanicsWithValue(t, inv, func() { _ = unwrap(wrapped(inv)) })
}

type wrapErr struct{ err error }

func (w wrapErr) Error() string { return "recovered: " + w.err.Error() }
func (w wrapErr) Unwrap() error { return w.err }

func wrapped(err error) error { return wrapErr{err: err} }
