package engine

import (
	"context"
	"fmt"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/store"
)

// ReplayReport summarizes a replay.
type ReplayReport struct {
	// Transactions is the number of transactions re-applied.
	Transactions int

	// Failed counts transactions that failed, both originally and on
	// replay.
	Failed int
}

// Replay re-applies every transaction in log, in seq order, and checks that
// each one reproduces its recorded status and traces.
//
// Replay is deterministic because everything a contract can observe is
// either in the packed transaction or restored before it runs: blockchain
// time is set to the recorded chain time, and run ids and seqs never reach
// a contract. Accounts and contracts are not in the log; b must be set up
// the way the original blockchain was before its first transaction.
//
// Replay never writes to a trace log. It stops at the first divergence
// with an error for which IsReplayMismatch is true.
func (b *Blockchain) Replay(ctx context.Context, log *store.Store) (*ReplayReport, error) {
	txs, err := log.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	report := &ReplayReport{}
	for _, rec := range txs {
		if err := b.replayOne(ctx, log, rec); err != nil {
			return report, err
		}
		report.Transactions++
		if rec.Failed() {
			report.Failed++
		}
	}
	return report, nil
}

func (b *Blockchain) replayOne(ctx context.Context, log *store.Store, rec store.TransactionRecord) error {
	tx, err := chain.UnpackTransaction(rec.Packed)
	if err != nil {
		return fmt.Errorf("replay %s: unpack transaction: %w", rec.ID, err)
	}
	recorded, err := log.ReadActionTraces(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("replay %s: %w", rec.ID, err)
	}

	b.SetTime(rec.ChainTime)
	r, applyErr := b.apply(ctx, tx)
	if r == nil {
		return fmt.Errorf("replay %s: %w", rec.ID, applyErr)
	}
	b.logger.Debug("replayed transaction", "tx", rec.ID, "seq", rec.Seq, "failed", r.Failed())

	if got := statusOf(r); got != rec.Status {
		return NewReplayMismatchError(rec.ID, "status", rec.Status, got)
	}
	if r.Console != rec.Console {
		return NewReplayMismatchError(rec.ID, "console", rec.Console, r.Console)
	}

	want := make([]chain.ExecutionTrace, len(recorded))
	for i, t := range recorded {
		want[i] = t.ExecutionTrace
	}
	wantDigest, err := chain.TraceDigest(want)
	if err != nil {
		return fmt.Errorf("replay %s: %w", rec.ID, err)
	}
	gotDigest, err := r.Digest()
	if err != nil {
		return fmt.Errorf("replay %s: %w", rec.ID, err)
	}
	if gotDigest != wantDigest {
		return NewReplayMismatchError(rec.ID, "trace digest", wantDigest, gotDigest)
	}
	return nil
}

func statusOf(r *Receipt) string {
	if r.Failed() {
		return store.StatusFailed
	}
	return store.StatusExecuted
}
