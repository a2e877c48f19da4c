package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/native"
	"github.com/roach88/chainsim/internal/store"
	"github.com/roach88/chainsim/internal/vm"
)

var (
	alice   = chain.N("alice")
	bob     = chain.N("bob")
	probe   = chain.N("probe")
	listen1 = chain.N("listen1")
	listen2 = chain.N("listen2")
	helper  = chain.N("helper")
	rows    = chain.N("rows")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// action builds probe-style actions: the payload is the authorizing actor.
func action(account chain.Name, name string, actor chain.Name) chain.Action {
	return chain.Action{
		Account:       account,
		Name:          chain.N(name),
		Authorization: []chain.PermissionLevel{{Actor: actor, Permission: chain.NameActive}},
		Data:          native.NewEncoder().Name(actor).Bytes(),
	}
}

func inline(h *vm.Host, account chain.Name, name string) error {
	return h.SendInlineAction(chain.Action{
		Account:       account,
		Name:          chain.N(name),
		Authorization: []chain.PermissionLevel{{Actor: h.CurrentReceiver(), Permission: chain.NameActive}},
		Data:          native.NewEncoder().Name(h.CurrentReceiver()).Bytes(),
	})
}

func actor(data []byte) chain.Name {
	return native.NewDecoder(data).Name()
}

func putRow(h *vm.Host, pk uint64, value string) error {
	t := native.Table{Code: probe, Scope: probe, Name: rows}
	return t.Put(h, probe, pk, []byte(value))
}

func printer(s string) native.Handler {
	return func(_ context.Context, h *vm.Host, _ []byte) error {
		h.Prints(s)
		return nil
	}
}

// probeModule is the contract most dispatcher tests drive.
//
//	note(actor)    requires actor, prints A, stores row 1
//	fail(actor)    stores row 2, then fails an assertion
//	fanout(actor)  prints A, notifies listen1 and listen2, sends helper::inline
//	exit(actor)    stores row 3, then calls eosio_exit
//	loop(actor)    sends probe::loop inline
//	bad(actor)     sends an inline action to an account without code
func probeModule() vm.Module {
	return native.NewBuilder(probe).
		Action("note", func(_ context.Context, h *vm.Host, data []byte) error {
			if err := h.RequireAuth(actor(data)); err != nil {
				return err
			}
			h.Prints("A")
			return putRow(h, 1, "note")
		}).
		Action("fail", func(_ context.Context, h *vm.Host, _ []byte) error {
			if err := putRow(h, 2, "fail"); err != nil {
				return err
			}
			return h.EosioAssert(false, "boom")
		}).
		Action("fanout", func(_ context.Context, h *vm.Host, _ []byte) error {
			h.Prints("A")
			if err := inline(h, helper, "inline"); err != nil {
				return err
			}
			if err := h.RequireRecipient(listen1); err != nil {
				return err
			}
			return h.RequireRecipient(listen2)
		}).
		Action("exit", func(_ context.Context, h *vm.Host, _ []byte) error {
			if err := putRow(h, 3, "exit"); err != nil {
				return err
			}
			if err := h.EosioExit(0); err != nil {
				return err
			}
			h.Prints("unreachable")
			return nil
		}).
		Action("loop", func(_ context.Context, h *vm.Host, _ []byte) error {
			return inline(h, probe, "loop")
		}).
		Action("bad", func(_ context.Context, h *vm.Host, _ []byte) error {
			return inline(h, bob, "nothing")
		}).
		MustBuild()
}

// listenerModule prints label on any fanout notification. With an inline
// target it also sends helper::<inlineAction>.
func listenerModule(self chain.Name, label, inlineAction string) vm.Module {
	return native.NewBuilder(self).
		OnNotify("*", "fanout", func(_ context.Context, h *vm.Host, _ []byte) error {
			h.Prints(label)
			if inlineAction == "" {
				return nil
			}
			return inline(h, helper, inlineAction)
		}).
		MustBuild()
}

func helperModule() vm.Module {
	return native.NewBuilder(helper).
		Action("inline", printer("I")).
		Action("first", printer("F")).
		MustBuild()
}

// newTestChain returns a blockchain with alice, bob, probe, both listeners
// and helper. listen1 sends helper::first from its notification handler.
func newTestChain(t *testing.T, opts ...Option) *Blockchain {
	t.Helper()
	base := []Option{
		WithLogger(testLogger()),
		WithIDGenerator(NewSequenceGenerator("tx")),
		WithTime(chain.TimePointFromMillis(1_000)),
	}
	bc := New(append(base, opts...)...)

	_, err := bc.CreateAccounts(alice, bob)
	require.NoError(t, err)
	_, err = bc.CreateContract(probe, probeModule(), true)
	require.NoError(t, err)
	_, err = bc.CreateContract(listen1, listenerModule(listen1, "N1", "first"), true)
	require.NoError(t, err)
	_, err = bc.CreateContract(listen2, listenerModule(listen2, "N2", ""), false)
	require.NoError(t, err)
	_, err = bc.CreateContract(helper, helperModule(), false)
	require.NoError(t, err)
	return bc
}

func rowValue(bc *Blockchain, pk uint64) (string, bool) {
	tab := bc.Store().FindTable(uint64(probe), uint64(probe), uint64(rows))
	if tab == nil {
		return "", false
	}
	row := tab.Get(pk)
	if row == nil {
		return "", false
	}
	return string(row.Value), true
}

func setupTraceLog(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/traces.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
