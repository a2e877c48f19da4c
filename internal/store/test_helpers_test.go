package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/chainsim/internal/chain"
)

// createTestStore opens a store in a temp dir and closes it on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTransaction(id string, seq int64) TransactionRecord {
	return TransactionRecord{
		ID:        id,
		Seq:       seq,
		Hash:      "hash-" + id,
		Status:    StatusExecuted,
		Console:   "console-" + id,
		Packed:    []byte{0x01, 0x02},
		ChainTime: chain.TimePointFromMillis(1000 * seq),
	}
}

func testTrace(txID string, order int, actor, console string) TraceRecord {
	return TraceRecord{
		TransactionID: txID,
		ExecutionTrace: chain.ExecutionTrace{
			Contract:      chain.N("eosio.token"),
			Action:        chain.N("transfer"),
			FirstReceiver: chain.N("eosio.token"),
			Sender:        0,
			Authorization: []chain.PermissionLevel{
				{Actor: chain.N(actor), Permission: chain.NameActive},
			},
			Data:           []byte{0xde, 0xad},
			ActionOrdinal:  order,
			ExecutionOrder: order,
			Console:        console,
		},
	}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
