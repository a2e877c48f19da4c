package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/store"
	"github.com/roach88/chainsim/internal/vm"
)

// Receipt is the outcome of one applied transaction.
type Receipt struct {
	// ID is the run id from the blockchain's IDGenerator.
	ID string

	// Seq is the transaction's position on the blockchain's Clock.
	Seq int64

	// Hash is chain.TransactionID of the transaction.
	Hash string

	// ChainTime is the blockchain time the transaction ran at.
	ChainTime chain.TimePoint

	// Traces holds one trace per executed context, in execution order.
	// A failed transaction keeps the traces up to and including the
	// failing context.
	Traces []chain.ExecutionTrace

	// Console is everything the transaction printed.
	Console string

	// Err is the failure, if the transaction was rolled back.
	Err error
}

// Failed reports whether the transaction was rolled back.
func (r *Receipt) Failed() bool {
	return r.Err != nil
}

// Labels returns "contract::action" for every trace, in execution order.
func (r *Receipt) Labels() []string {
	out := make([]string, len(r.Traces))
	for i, t := range r.Traces {
		out[i] = t.Label()
	}
	return out
}

// Digest returns chain.TraceDigest of the receipt's traces.
func (r *Receipt) Digest() (string, error) {
	return chain.TraceDigest(r.Traces)
}

// Apply runs a transaction of the given actions. It is shorthand for
// ApplyTransaction(ctx, chain.NewTransaction(actions...)).
func (b *Blockchain) Apply(ctx context.Context, actions ...chain.Action) (*Receipt, error) {
	return b.ApplyTransaction(ctx, chain.NewTransaction(actions...))
}

// ApplyTransaction runs every action of tx, with the notifications and
// inline actions they generate, and records the result in the trace log.
//
// On failure the store is reverted to its state before the transaction
// and the error is returned together with a receipt of what ran. The
// receipt is nil only if the transaction never started.
func (b *Blockchain) ApplyTransaction(ctx context.Context, tx *chain.Transaction) (*Receipt, error) {
	r, err := b.apply(ctx, tx)
	if r == nil {
		return nil, err
	}
	if logErr := b.record(ctx, tx, r); logErr != nil {
		if err == nil {
			return r, logErr
		}
		b.logger.Error("failed to record transaction", "tx", r.ID, "error", logErr)
	}
	return r, err
}

// apply runs tx without touching the trace log.
func (b *Blockchain) apply(ctx context.Context, tx *chain.Transaction) (*Receipt, error) {
	if err := b.resetTransaction(ctx); err != nil {
		return nil, fmt.Errorf("apply transaction: %w", err)
	}

	r := &Receipt{
		ID:        b.ids.Generate(),
		Seq:       b.clock.Next(),
		Hash:      chain.TransactionID(tx),
		ChainTime: b.now,
		Traces:    []chain.ExecutionTrace{},
	}
	b.logger.Debug("apply transaction", "tx", r.ID, "seq", r.Seq, "actions", len(tx.Actions))

	mark := b.store.Snapshot()
	err := b.dispatch(ctx, tx, r)
	if err != nil {
		b.store.RevertTo(mark)
		b.notifications.Clear()
		b.logger.Debug("transaction reverted", "tx", r.ID, "error", err)
	} else {
		b.store.Commit()
	}

	r.Console = b.console.String()
	r.Err = err
	return r, err
}

// dispatch is the drain loop. Contexts run in this order:
//
//  1. Top-level actions, one at a time, each the sole entry of a fresh
//     local queue.
//  2. While draining, a queued notification always runs before the local
//     front. It keeps the ordinal of the action that triggered it.
//  3. Inline actions of a notification are spliced to the front of the
//     local queue; inline actions of a regular action go to the back.
//
// Every executed context gets the next execution order.
func (b *Blockchain) dispatch(ctx context.Context, tx *chain.Transaction, r *Receipt) error {
	quota := NewQuotaEnforcer(b.maxExecutions)
	ordinal, order := -1, -1

	for _, a := range tx.Actions {
		if err := b.requireContract(a.Account); err != nil {
			return err
		}

		var local contextQueue
		local.PushBack(vm.NewActionContext(a, tx))

		for b.notifications.Len() > 0 || local.Len() > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, ok := b.notifications.PopFront()
			if ok {
				c.ActionOrdinal = ordinal
			} else {
				c, _ = local.PopFront()
				ordinal++
				c.ActionOrdinal = ordinal
			}
			order++
			c.ExecutionOrder = order

			if err := quota.Check(r.ID); err != nil {
				return err
			}

			b.logContext(c)
			err := b.run(ctx, c)
			r.Traces = append(r.Traces, c.Trace())
			if err != nil {
				return fmt.Errorf("%s::%s: %w", c.Receiver, c.Action, err)
			}

			if c.IsNotification() {
				local.PushFront(c.Inline...)
			} else {
				local.PushBack(c.Inline...)
			}
			c.Inline = nil
		}
	}
	return nil
}

func (b *Blockchain) requireContract(name chain.Name) error {
	if a, ok := b.accounts[name]; ok && a.IsContract() {
		return nil
	}
	return &vm.RuntimeError{
		Code:    vm.ErrCodeMissingContract,
		Message: fmt.Sprintf("Contract %s missing for inline action", name),
	}
}

// run applies c with its receiver's VM.
func (b *Blockchain) run(ctx context.Context, c *vm.Context) error {
	if err := b.requireContract(c.Receiver); err != nil {
		return err
	}
	return b.accounts[c.Receiver].vm.Apply(ctx, c)
}

var startAction = color.New(color.FgGreen, color.Bold)

// logContext writes the START ACTION block for c at debug level.
func (b *Blockchain) logContext(c *vm.Context) {
	if !b.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	msg := "START ACTION"
	if b.colorTrace {
		msg = startAction.Sprint(msg)
	}
	b.logger.Debug(msg,
		"contract", c.Receiver,
		"action", c.Action,
		"inline", c.IsInline(),
		"notification", c.IsNotification(),
		"first_receiver", c.FirstReceiver,
		"sender", c.Sender,
		"authorization", c.Authorization,
		"data", fmt.Sprintf("%x", c.Data),
		"action_order", c.ActionOrdinal,
		"execution_order", c.ExecutionOrder,
	)
}

// record writes r to the trace log, if there is one.
func (b *Blockchain) record(ctx context.Context, tx *chain.Transaction, r *Receipt) error {
	if b.traceLog == nil {
		return nil
	}
	rec := store.TransactionRecord{
		ID:        r.ID,
		Seq:       r.Seq,
		Hash:      r.Hash,
		Status:    store.StatusExecuted,
		Console:   r.Console,
		Packed:    chain.PackTransaction(tx),
		ChainTime: r.ChainTime,
	}
	if r.Err != nil {
		rec.Status = store.StatusFailed
		rec.Error = r.Err.Error()
	}
	traces := make([]store.TraceRecord, len(r.Traces))
	for i, t := range r.Traces {
		traces[i] = store.TraceRecord{TransactionID: r.ID, ExecutionTrace: t}
	}
	if err := b.traceLog.WriteTransactionWithTraces(ctx, rec, traces); err != nil {
		return fmt.Errorf("record transaction %s: %w", r.ID, err)
	}
	return nil
}
