package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/contracts"
	"github.com/roach88/chainsim/internal/engine"
	"github.com/roach88/chainsim/internal/store"
	"github.com/roach88/chainsim/internal/testutil"
	"github.com/roach88/chainsim/internal/vm"
	"github.com/roach88/chainsim/internal/wasm"
)

// Harness holds the per-run state of a scenario.
type Harness struct {
	chain  *engine.Blockchain
	clock  *testutil.ChainClock
	wasm   *wasm.Engine
	logger *slog.Logger
}

type config struct {
	logger     *slog.Logger
	traceLog   *store.Store
	colorTrace bool
}

// Option configures a run.
type Option func(*config)

// WithLogger sets the logger handed to the blockchain and the wasm engine.
// Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTraceLog records the run's transactions in s instead of a private
// in-memory log. The caller keeps ownership of s.
func WithTraceLog(s *store.Store) Option {
	return func(c *config) {
		c.traceLog = s
	}
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// newHarness builds the run's blockchain. With a trace log, transaction
// seqs continue after the log's last one.
func newHarness(ctx context.Context, s *Scenario, cfg config, traceLog *store.Store) (*Harness, error) {
	clock := testutil.NewChainClock(s.TimeMs)
	opts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithIDGenerator(testutil.NewScenarioIDGenerator(s.Name)),
		engine.WithTime(clock.Current()),
		engine.WithColorTrace(cfg.colorTrace),
	}
	if traceLog != nil {
		seq, err := engine.ResumeClock(ctx, traceLog)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithTraceLog(traceLog), engine.WithClock(seq))
	}
	return &Harness{
		chain:  engine.New(opts...),
		clock:  clock,
		logger: cfg.logger,
	}, nil
}

// WithColorTrace colors the START ACTION debug lines for terminals.
func WithColorTrace(on bool) Option {
	return func(c *config) {
		c.colorTrace = on
	}
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh blockchain and, unless WithTraceLog is given, a
// fresh in-memory trace log. Deterministic helpers ensure reproducible
// results.
//
// Execution flow:
//  1. Create accounts, then deploy contracts
//  2. Apply each transaction, checking expect_error and expect_console
//  3. Evaluate assertions against the final trace and tables
//
// A failed expectation or assertion is reported in Result.Errors. The
// error return is reserved for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	traceLog := cfg.traceLog
	if traceLog == nil {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		traceLog = st
	}

	h, err := newHarness(ctx, scenario, cfg, traceLog)
	if err != nil {
		return nil, fmt.Errorf("failed to set up scenario %s: %w", scenario.Name, err)
	}
	defer h.close(ctx)

	if err := h.deploy(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to set up scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	if err := h.executeTransactions(ctx, scenario.Transactions, result); err != nil {
		return nil, fmt.Errorf("failed to execute scenario %s: %w", scenario.Name, err)
	}

	actx := &AssertionContext{Chain: h.chain}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"transactions", len(result.Transactions),
		"traces", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// Setup creates the scenario's blockchain with its accounts and contracts
// deployed, without applying any transaction. Transactions are recorded
// only if WithTraceLog is given. The returned function releases the
// resources of the run and must be called when done.
func Setup(ctx context.Context, scenario *Scenario, opts ...Option) (*engine.Blockchain, func(), error) {
	cfg := newConfig(opts)
	h, err := newHarness(ctx, scenario, cfg, cfg.traceLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up scenario %s: %w", scenario.Name, err)
	}
	if err := h.deploy(ctx, scenario); err != nil {
		h.close(ctx)
		return nil, nil, fmt.Errorf("failed to set up scenario %s: %w", scenario.Name, err)
	}
	return h.chain, func() { h.close(ctx) }, nil
}

func (h *Harness) close(ctx context.Context) {
	if h.wasm == nil {
		return
	}
	if err := h.wasm.Close(ctx); err != nil {
		h.logger.Warn("failed to close wasm engine", "error", err)
	}
}

// deploy creates the scenario's accounts and contracts.
func (h *Harness) deploy(ctx context.Context, s *Scenario) error {
	for _, name := range s.Accounts {
		n, err := chain.ParseName(name)
		if err != nil {
			return err
		}
		if _, err := h.chain.CreateAccount(n); err != nil {
			return err
		}
	}

	for i, c := range s.Contracts {
		n, err := chain.ParseName(c.Name)
		if err != nil {
			return fmt.Errorf("contracts[%d]: %w", i, err)
		}
		module, inline, err := h.loadModule(ctx, n, c)
		if err != nil {
			return fmt.Errorf("contracts[%d]: %w", i, err)
		}
		if _, err := h.chain.CreateContract(n, module, inline || c.SendsInline); err != nil {
			return fmt.Errorf("contracts[%d]: %w", i, err)
		}
		h.logger.Debug("deployed contract", "account", n, "builtin", c.Builtin, "wasm", c.Wasm)
	}
	return nil
}

func (h *Harness) loadModule(ctx context.Context, account chain.Name, c ContractSpec) (vm.Module, bool, error) {
	if c.Builtin != "" {
		return contracts.Builtin(c.Builtin, account)
	}
	code, err := os.ReadFile(c.Wasm)
	if err != nil {
		return nil, false, fmt.Errorf("read wasm: %w", err)
	}
	if h.wasm == nil {
		if h.wasm, err = wasm.NewEngine(ctx, wasm.WithLogger(h.logger)); err != nil {
			return nil, false, err
		}
	}
	m, err := h.wasm.Load(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", c.Wasm, err)
	}
	return m, false, nil
}

// executeTransactions applies every step and checks its expectations.
func (h *Harness) executeTransactions(ctx context.Context, steps []TransactionStep, result *Result) error {
	for i, step := range steps {
		actions := make([]chain.Action, len(step.Actions))
		for j, a := range step.Actions {
			act, err := buildAction(a)
			if err != nil {
				return fmt.Errorf("transactions[%d].actions[%d]: %w", i, j, err)
			}
			actions[j] = act
		}

		h.chain.SetTime(h.clock.Advance(step.AdvanceMs))

		r, err := h.chain.Apply(ctx, actions...)
		if r == nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if err != nil && !r.Failed() {
			// The transaction ran but could not be recorded.
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		result.AddReceipt(r)

		for _, msg := range checkExpectations(step, r) {
			result.AddError(fmt.Sprintf("transactions[%d]: %s", i, msg))
		}

		h.logger.Info("transaction applied",
			"step", i,
			"tx", r.ID,
			"traces", len(r.Traces),
			"failed", r.Failed(),
		)
	}
	return nil
}

func checkExpectations(step TransactionStep, r *engine.Receipt) []string {
	var msgs []string
	switch {
	case step.ExpectError == "" && r.Failed():
		msgs = append(msgs, fmt.Sprintf("unexpected error: %v", r.Err))
	case step.ExpectError != "" && !r.Failed():
		msgs = append(msgs, fmt.Sprintf("expected error containing %q, transaction succeeded", step.ExpectError))
	case step.ExpectError != "" && !strings.Contains(r.Err.Error(), step.ExpectError):
		msgs = append(msgs, fmt.Sprintf("expected error containing %q, got: %v", step.ExpectError, r.Err))
	}
	if step.ExpectConsole != nil && *step.ExpectConsole != r.Console {
		msgs = append(msgs, fmt.Sprintf("console: expected %q, got %q", *step.ExpectConsole, r.Console))
	}
	return msgs
}
