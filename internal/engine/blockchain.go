package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/state"
	"github.com/roach88/chainsim/internal/store"
	"github.com/roach88/chainsim/internal/vm"
)

// Blockchain is a simulated chain: accounts, contracts, time and state.
//
// Thread-safety model:
//   - A Blockchain is NOT safe for concurrent use. Apply one transaction at
//     a time and do not create accounts while a transaction runs.
//   - Several Blockchains may coexist in one process; they share nothing.
type Blockchain struct {
	accounts map[chain.Name]*Account
	order    []chain.Name // creation order, for deterministic iteration
	now      chain.TimePoint
	store    *state.Store
	console  strings.Builder

	notifications contextQueue

	logger        *slog.Logger
	traceLog      *store.Store
	ids           IDGenerator
	clock         *Clock
	maxExecutions int
	colorTrace    bool
}

// Option configures a Blockchain.
type Option func(*Blockchain)

// WithLogger sets the logger for dispatch tracing and for every VM.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Blockchain) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTraceLog persists every applied transaction and its traces to s.
func WithTraceLog(s *store.Store) Option {
	return func(b *Blockchain) {
		b.traceLog = s
	}
}

// WithIDGenerator sets the generator of transaction run ids.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Blockchain) {
		if g != nil {
			b.ids = g
		}
	}
}

// WithClock numbers transactions from c instead of a fresh clock.
// Used to resume after the last seq of an existing trace log.
func WithClock(c *Clock) Option {
	return func(b *Blockchain) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithStore starts the blockchain on an existing state store.
func WithStore(s *state.Store) Option {
	return func(b *Blockchain) {
		if s != nil {
			b.store = s
		}
	}
}

// WithTime sets the initial blockchain time. Default: 0.
func WithTime(t chain.TimePoint) Option {
	return func(b *Blockchain) {
		b.now = t
	}
}

// WithMaxExecutions sets the per-transaction execution quota.
// Default: DefaultMaxExecutions.
func WithMaxExecutions(n int) Option {
	return func(b *Blockchain) {
		b.maxExecutions = n
	}
}

// WithColorTrace renders the per-context debug block in colour, the way a
// terminal user reads it.
func WithColorTrace(on bool) Option {
	return func(b *Blockchain) {
		b.colorTrace = on
	}
}

// New creates an empty blockchain at time zero.
func New(opts ...Option) *Blockchain {
	b := &Blockchain{
		accounts:      make(map[chain.Name]*Account),
		store:         state.NewStore(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:           UUIDv7Generator{},
		clock:         NewClock(),
		maxExecutions: DefaultMaxExecutions,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateAccount creates a plain account at the current time.
func (b *Blockchain) CreateAccount(name chain.Name) (*Account, error) {
	return b.addAccount(newAccount(name, b.now, false))
}

// CreateAccounts creates plain accounts in order. It stops at the first
// error.
func (b *Blockchain) CreateAccounts(names ...chain.Name) ([]*Account, error) {
	out := make([]*Account, 0, len(names))
	for _, n := range names {
		a, err := b.CreateAccount(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateContract creates an account running module. sendsInline grants the
// account's code its own eosio.code permission.
func (b *Blockchain) CreateContract(name chain.Name, module vm.Module, sendsInline bool) (*Account, error) {
	if module == nil {
		return nil, fmt.Errorf("create contract %s: nil module", name)
	}
	a := newAccount(name, b.now, sendsInline)
	a.vm = vm.New(chainView{b}, module, vm.WithLogger(b.logger))
	return b.addAccount(a)
}

func (b *Blockchain) addAccount(a *Account) (*Account, error) {
	if a.name == 0 {
		return nil, fmt.Errorf("create account: empty name")
	}
	if _, ok := b.accounts[a.name]; ok {
		return nil, &RuntimeError{
			Code:    ErrCodeDuplicateAccount,
			Message: fmt.Sprintf("account %s already exists", a.name),
		}
	}
	b.accounts[a.name] = a
	b.order = append(b.order, a.name)
	b.logger.Debug("created account", "account", a.name, "contract", a.IsContract(), "sends_inline", a.sendsInline)
	return a, nil
}

// Account looks up an account by name.
func (b *Blockchain) Account(name chain.Name) (*Account, bool) {
	a, ok := b.accounts[name]
	return a, ok
}

// Accounts returns every account in creation order.
func (b *Blockchain) Accounts() []*Account {
	out := make([]*Account, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.accounts[n])
	}
	return out
}

// Store returns the current state store.
func (b *Blockchain) Store() *state.Store {
	return b.store
}

// ResetTables replaces the state store with s, or with an empty store if
// s is nil.
func (b *Blockchain) ResetTables(s *state.Store) {
	if s == nil {
		s = state.NewStore()
	}
	b.store = s
}

// Console returns what the last transaction printed.
func (b *Blockchain) Console() string {
	return b.console.String()
}

// Now returns the current blockchain time.
func (b *Blockchain) Now() chain.TimePoint {
	return b.now
}

// SetTime moves blockchain time to t.
func (b *Blockchain) SetTime(t chain.TimePoint) {
	b.now = t
}

// AddTime moves blockchain time forward by d.
func (b *Blockchain) AddTime(d chain.TimePoint) {
	b.now += d
}

// SubtractTime moves blockchain time back by d. Time never goes below zero.
func (b *Blockchain) SubtractTime(d chain.TimePoint) error {
	if d > b.now {
		return NewNegativeTimeError()
	}
	b.now -= d
	return nil
}

// resetTransaction clears the console and resets every contract's module
// instance. Resets run concurrently; all must finish before any action
// runs.
func (b *Blockchain) resetTransaction(ctx context.Context) error {
	b.console.Reset()
	b.notifications.Clear()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range b.Accounts() {
		if !a.IsContract() {
			continue
		}
		g.Go(func() error {
			if err := a.vm.Reset(gctx); err != nil {
				return fmt.Errorf("reset %s: %w", a.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// chainView adapts a Blockchain to vm.Chain.
type chainView struct {
	b *Blockchain
}

func (v chainView) Store() *state.Store  { return v.b.store }
func (v chainView) Now() chain.TimePoint { return v.b.now }
func (v chainView) Print(s string)       { v.b.console.WriteString(s) }
func (v chainView) Notify(c *vm.Context) { v.b.notifications.PushBack(c) }

func (v chainView) Account(name chain.Name) (vm.Account, bool) {
	a, ok := v.b.accounts[name]
	if !ok {
		return nil, false
	}
	return a, true
}
