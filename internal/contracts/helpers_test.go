package contracts

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/engine"
	"github.com/roach88/chainsim/internal/native"
)

var (
	alice    = chain.N("alice")
	bob      = chain.N("bob")
	tokenAcc = chain.N("eosio.token")
)

func newChain(t *testing.T) *engine.Blockchain {
	t.Helper()
	return engine.New(
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithIDGenerator(engine.NewSequenceGenerator("tx")),
	)
}

func deploy(t *testing.T, bc *engine.Blockchain, kind string, account chain.Name) {
	t.Helper()
	m, inline, err := Builtin(kind, account)
	require.NoError(t, err)
	_, err = bc.CreateContract(account, m, inline)
	require.NoError(t, err)
}

func act(account chain.Name, name string, actor chain.Name, data []byte) chain.Action {
	return chain.Action{
		Account:       account,
		Name:          chain.N(name),
		Authorization: []chain.PermissionLevel{{Actor: actor, Permission: chain.NameActive}},
		Data:          data,
	}
}

func apply(t *testing.T, bc *engine.Blockchain, actions ...chain.Action) (*engine.Receipt, error) {
	t.Helper()
	return bc.Apply(context.Background(), actions...)
}

func mustAsset(t *testing.T, s string) native.Asset {
	t.Helper()
	a, err := native.ParseAsset(s)
	require.NoError(t, err)
	return a
}
