package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/chainsim/internal/harness"
	"github.com/roach88/chainsim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario",
		Long: `Run a scenario file and report each transaction.

With --db (or CHAINSIM_DB) every transaction and its execution traces are
recorded in the SQLite trace log, creating it if it doesn't exist. Without
it the run is kept in memory.

Exit codes:
  0 - Scenario passed
  1 - An expectation or assertion failed
  2 - Command error (invalid scenario path, database error, etc.)

Example:
  chainsim run ./scenarios/transfer.yaml
  chainsim run --db ./chain.db ./scenarios/transfer.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace log")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger(cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithColorTrace(opts.Verbose && opts.Format == "text"),
	}
	if db := opts.setting(keyDB, opts.Database); db != "" {
		logger.Info("opening trace log", "path", db)
		st, err := store.Open(db)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithTraceLog(st))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	result, err := harness.Run(ctx, scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario could not run", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputRunText(formatter, scenario, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func outputRunText(f *OutputFormatter, scenario *harness.Scenario, result *harness.Result) {
	w := f.Writer
	fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)

	rows := make([][]string, len(result.Transactions))
	for i, tx := range result.Transactions {
		rows[i] = []string{fmt.Sprint(i), tx.ID, tx.Status, fmt.Sprintf("%q", tx.Console), tx.Error}
	}
	f.Table([]string{"#", "ID", "STATUS", "CONSOLE", "ERROR"}, rows)

	f.VerboseLog("%d traces", len(result.Trace))
	for _, t := range result.Trace {
		f.VerboseLog("  [%d] %s (ordinal %d)", t.ExecutionOrder, t.Label(), t.ActionOrdinal)
	}

	if result.Pass {
		fmt.Fprintln(w, "✓ PASS")
		return
	}
	fmt.Fprintln(w, "✗ FAIL")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
