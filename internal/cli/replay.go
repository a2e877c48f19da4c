package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainsim/internal/engine"
	"github.com/roach88/chainsim/internal/harness"
	"github.com/roach88/chainsim/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the outcome of a replay.
type ReplayResult struct {
	Scenario      string `json:"scenario"`
	Transactions  int    `json:"transactions"`
	Failed        int    `json:"failed"`
	Deterministic bool   `json:"deterministic"`
	Mismatch      string `json:"mismatch,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Replay a trace log and check determinism",
		Long: `Replay every transaction in a trace log against a fresh blockchain.

The scenario supplies the accounts and contracts. Its transactions are
not applied; the log's are, in seq order, each at its recorded chain time.
Every transaction must reproduce its recorded status, console and trace
digest. The log is never written.

Exit codes:
  0 - Replay reproduced the log
  1 - Replay diverged from the log
  2 - Command error (invalid paths, database error, etc.)

Examples:
  chainsim replay --db ./chain.db ./scenarios/transfer.yaml
  chainsim replay --db ./chain.db ./scenarios/transfer.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace log (required)")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger(cmd.ErrOrStderr())

	db := opts.setting(keyDB, opts.Database)
	if db == "" {
		return NewExitError(ExitCommandError, "--db is required (or set CHAINSIM_DB)")
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	bc, closeFn, err := harness.Setup(ctx, scenario, harness.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up scenario", err)
	}
	defer closeFn()

	report, err := bc.Replay(ctx, st)
	result := ReplayResult{Scenario: scenario.Name, Deterministic: err == nil}
	if report != nil {
		result.Transactions = report.Transactions
		result.Failed = report.Failed
	}

	switch {
	case err == nil:
	case engine.IsReplayMismatch(err):
		result.Mismatch = err.Error()
		if opts.Format == "json" {
			_ = formatter.Error(ErrCodeReplayMismatch, "replay diverged from the trace log", result)
		} else {
			outputReplayText(formatter, result)
		}
		return WrapExitError(ExitFailure, "replay diverged", err)
	default:
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputReplayText(formatter, result)
	return nil
}

func outputReplayText(f *OutputFormatter, result ReplayResult) {
	w := f.Writer
	fmt.Fprintf(w, "Replayed %d transaction(s) of scenario %s (%d failed as recorded)\n",
		result.Transactions, result.Scenario, result.Failed)
	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay reproduced the trace log")
		return
	}
	fmt.Fprintln(w, "✗ Replay diverged")
	fmt.Fprintf(w, "  %s\n", result.Mismatch)
}
