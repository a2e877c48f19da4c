package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// WriteTransaction inserts a transaction record.
// Uses ON CONFLICT DO NOTHING for idempotency - a duplicate ID is silently
// ignored. A duplicate seq under a different ID is still an error.
func (s *Store) WriteTransaction(ctx context.Context, rec TransactionRecord) error {
	return writeTransaction(ctx, s.db, rec)
}

// WriteActionTrace inserts one trace of a transaction.
// Uses ON CONFLICT DO NOTHING: writing the same (transaction, execution
// order) twice is a no-op.
//
// Note: the transaction referenced by rec.TransactionID must exist (foreign
// key constraint).
func (s *Store) WriteActionTrace(ctx context.Context, rec TraceRecord) error {
	return writeActionTrace(ctx, s.db, rec)
}

// WriteTransactionWithTraces writes a transaction and all its traces
// atomically.
func (s *Store) WriteTransactionWithTraces(ctx context.Context, rec TransactionRecord, traces []TraceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write transaction: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeTransaction(ctx, tx, rec); err != nil {
		return err
	}
	for _, t := range traces {
		if err := writeActionTrace(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write transaction: commit: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeTransaction(ctx context.Context, db execer, rec TransactionRecord) error {
	packed := rec.Packed
	if packed == nil {
		packed = []byte{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, seq, tx_hash, status, error, console, packed, created_at_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Hash,
		rec.Status,
		rec.Error,
		rec.Console,
		packed,
		rec.ChainTime.Micros(),
	)
	if err != nil {
		return fmt.Errorf("write transaction %s: %w", rec.ID, err)
	}
	return nil
}

func writeActionTrace(ctx context.Context, db execer, rec TraceRecord) error {
	auth, err := marshalAuthorization(rec.Authorization)
	if err != nil {
		return fmt.Errorf("write action trace: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO action_traces
		(transaction_id, execution_order, action_ordinal, contract, action,
		 first_receiver, sender, is_inline, is_notification, authorization,
		 data_hex, console)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id, execution_order) DO NOTHING
	`,
		rec.TransactionID,
		rec.ExecutionOrder,
		rec.ActionOrdinal,
		rec.Contract.String(),
		rec.Action.String(),
		rec.FirstReceiver.String(),
		rec.Sender.String(),
		boolToInt(rec.IsInline),
		boolToInt(rec.IsNotification),
		auth,
		hex.EncodeToString(rec.Data),
		rec.Console,
	)
	if err != nil {
		return fmt.Errorf("write action trace %s/%d: %w", rec.TransactionID, rec.ExecutionOrder, err)
	}
	return nil
}
