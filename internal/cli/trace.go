package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	List     bool
}

// TransactionSummary is one row of the transaction listing.
type TransactionSummary struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Console   string `json:"console"`
	ChainTime int64  `json:"chain_time_us"`
}

// TraceResult holds one transaction and its execution traces.
type TraceResult struct {
	Transaction TransactionSummary `json:"transaction"`
	Traces      []map[string]any   `json:"traces"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [tx-id]",
		Short: "Inspect a trace log",
		Long: `Inspect the transactions recorded in a SQLite trace log.

With --list, or without a transaction id, lists every transaction in seq
order. With an id, shows that transaction's execution traces in execution
order.

Examples:
  chainsim trace --db ./chain.db --list
  chainsim trace --db ./chain.db scenario-0002
  chainsim trace --db ./chain.db scenario-0002 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			if opts.List && id != "" {
				return NewExitError(ExitCommandError, "--list does not take a transaction id")
			}
			return runTrace(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace log (required)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list all transactions")

	return cmd
}

func runTrace(opts *TraceOptions, txID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db := opts.setting(keyDB, opts.Database)
	if db == "" {
		return NewExitError(ExitCommandError, "--db is required (or set CHAINSIM_DB)")
	}
	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if txID == "" {
		return listTransactions(ctx, formatter, st)
	}
	return showTransaction(ctx, formatter, st, txID)
}

func summarize(rec store.TransactionRecord) TransactionSummary {
	return TransactionSummary{
		Seq:       rec.Seq,
		ID:        rec.ID,
		Hash:      rec.Hash,
		Status:    rec.Status,
		Error:     rec.Error,
		Console:   rec.Console,
		ChainTime: int64(rec.ChainTime),
	}
}

func listTransactions(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	txs, err := st.ListTransactions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list transactions", err)
	}

	summaries := make([]TransactionSummary, len(txs))
	for i, rec := range txs {
		summaries[i] = summarize(rec)
	}
	if f.Format == "json" {
		return f.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(f.Writer, "No transactions recorded.")
		return nil
	}
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{fmt.Sprint(s.Seq), s.ID, s.Status, shortHash(s.Hash), fmt.Sprintf("%q", s.Console), s.Error}
	}
	f.Table([]string{"SEQ", "ID", "STATUS", "HASH", "CONSOLE", "ERROR"}, rows)
	return nil
}

func showTransaction(ctx context.Context, f *OutputFormatter, st *store.Store, txID string) error {
	rec, err := st.ReadTransaction(ctx, txID)
	if errors.Is(err, sql.ErrNoRows) {
		if f.Format == "json" {
			_ = f.Error(ErrCodeNotFound, fmt.Sprintf("transaction not found: %s", txID), nil)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("transaction not found: %s", txID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transaction", err)
	}
	traces, err := st.ReadActionTraces(ctx, txID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read traces", err)
	}

	result := TraceResult{
		Transaction: summarize(rec),
		Traces:      make([]map[string]any, len(traces)),
	}
	for i, t := range traces {
		result.Traces[i] = t.CanonicalMap()
	}
	if f.Format == "json" {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "Transaction: %s (seq %d, %s)\n", rec.ID, rec.Seq, rec.Status)
	fmt.Fprintf(w, "Hash: %s\n", rec.Hash)
	if rec.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", rec.Error)
	}
	fmt.Fprintln(w)

	rows := make([][]string, len(traces))
	for i, t := range traces {
		rows[i] = []string{
			fmt.Sprint(t.ExecutionOrder),
			fmt.Sprint(t.ActionOrdinal),
			t.Label(),
			kindOf(t.ExecutionTrace),
			t.FirstReceiver.String(),
			t.Sender.String(),
			authString(t.Authorization),
			fmt.Sprintf("%q", t.Console),
		}
	}
	f.Table([]string{"ORDER", "ORDINAL", "ACTION", "KIND", "FIRST RECEIVER", "SENDER", "AUTH", "CONSOLE"}, rows)
	return nil
}

func kindOf(t chain.ExecutionTrace) string {
	switch {
	case t.IsNotification:
		return "notify"
	case t.IsInline:
		return "inline"
	default:
		return "action"
	}
}

func authString(auth []chain.PermissionLevel) string {
	parts := make([]string, len(auth))
	for i, p := range auth {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
