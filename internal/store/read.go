package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/chainsim/internal/chain"
)

const selectTransaction = `
	SELECT id, seq, tx_hash, status, error, console, packed, created_at_us
	FROM transactions`

// ReadTransaction retrieves a single transaction by ID.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) ReadTransaction(ctx context.Context, id string) (TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, id)
	rec, err := scanTransaction(row)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	return rec, nil
}

// ListTransactions returns every transaction ordered by seq.
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListTransactions(ctx context.Context) ([]TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTransaction+` ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []TransactionRecord{}
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// LastSeq returns the highest transaction seq, or 0 for an empty log.
// The engine resumes numbering from it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM transactions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

// ReadActionTraces returns the traces of one transaction in execution
// order. Returns an empty slice (not nil) if there are none.
func (s *Store) ReadActionTraces(ctx context.Context, txID string) ([]TraceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, execution_order, action_ordinal, contract, action,
		       first_receiver, sender, is_inline, is_notification, authorization,
		       data_hex, console
		FROM action_traces
		WHERE transaction_id = ?
		ORDER BY execution_order ASC
	`, txID)
	if err != nil {
		return nil, fmt.Errorf("query action traces: %w", err)
	}
	defer rows.Close()

	traces := []TraceRecord{}
	for rows.Next() {
		rec, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		traces = append(traces, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action traces: %w", err)
	}
	return traces, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (TransactionRecord, error) {
	var (
		rec TransactionRecord
		us  int64
	)
	err := row.Scan(&rec.ID, &rec.Seq, &rec.Hash, &rec.Status, &rec.Error, &rec.Console, &rec.Packed, &us)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("scan transaction: %w", err)
	}
	rec.ChainTime = chain.TimePoint(us)
	return rec, nil
}

func scanTrace(row rowScanner) (TraceRecord, error) {
	var (
		rec                                     TraceRecord
		contract, action, firstReceiver, sender string
		isInline, isNotification                int
		auth, dataHex                           string
	)
	err := row.Scan(
		&rec.TransactionID, &rec.ExecutionOrder, &rec.ActionOrdinal,
		&contract, &action, &firstReceiver, &sender,
		&isInline, &isNotification, &auth, &dataHex, &rec.Console,
	)
	if err != nil {
		return TraceRecord{}, fmt.Errorf("scan action trace: %w", err)
	}
	names := []struct {
		column string
		value  string
		dst    *chain.Name
	}{
		{"contract", contract, &rec.Contract},
		{"action", action, &rec.Action},
		{"first_receiver", firstReceiver, &rec.FirstReceiver},
		{"sender", sender, &rec.Sender},
	}
	for _, n := range names {
		if *n.dst, err = parseName(n.column, n.value); err != nil {
			return TraceRecord{}, err
		}
	}
	rec.IsInline = isInline != 0
	rec.IsNotification = isNotification != 0
	if rec.Authorization, err = unmarshalAuthorization(auth); err != nil {
		return TraceRecord{}, err
	}
	if rec.Data, err = decodeHex(dataHex); err != nil {
		return TraceRecord{}, err
	}
	return rec, nil
}
