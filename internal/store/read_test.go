package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTransaction_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTransaction(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListTransactions_Empty(t *testing.T) {
	s := createTestStore(t)

	txs, err := s.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestListTransactions_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insertion order differs from seq order.
	for _, rec := range []TransactionRecord{
		testTransaction("c", 3),
		testTransaction("a", 1),
		testTransaction("b", 2),
	} {
		require.NoError(t, s.WriteTransaction(ctx, rec))
	}

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "a", txs[0].ID)
	assert.Equal(t, "b", txs[1].ID)
	assert.Equal(t, "c", txs[2].ID)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteTransaction(ctx, testTransaction("a", 4)))
	require.NoError(t, s.WriteTransaction(ctx, testTransaction("b", 9)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}

func TestReadActionTraces_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTransaction(ctx, testTransaction("tx-1", 1)))

	traces, err := s.ReadActionTraces(ctx, "tx-1")
	require.NoError(t, err)
	assert.NotNil(t, traces)
	assert.Empty(t, traces)
}

func TestReadActionTraces_ExecutionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTransaction(ctx, testTransaction("tx-1", 1)))
	for _, order := range []int{2, 0, 1} {
		require.NoError(t, s.WriteActionTrace(ctx, testTrace("tx-1", order, "alice", "")))
	}

	traces, err := s.ReadActionTraces(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, traces, 3)
	for i, tr := range traces {
		assert.Equal(t, i, tr.ExecutionOrder)
	}
}
