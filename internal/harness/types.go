package harness

import (
	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/engine"
)

// TransactionResult summarizes one applied scenario transaction.
type TransactionResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"` // "executed" or "failed"
	Error   string `json:"error,omitempty"`
	Console string `json:"console"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every transaction met its expectations and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds the traces of all transactions in execution order,
	// including the partial traces of failed ones.
	Trace []chain.ExecutionTrace `json:"trace"`

	// Transactions holds one entry per scenario transaction.
	Transactions []TransactionResult `json:"transactions"`

	// Errors contains failed expectations and assertions.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Console is the output of all transactions, concatenated.
	Console string `json:"console"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Trace:        []chain.ExecutionTrace{},
		Transactions: []TransactionResult{},
		Errors:       []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddReceipt appends a transaction receipt.
func (r *Result) AddReceipt(rc *engine.Receipt) {
	tr := TransactionResult{ID: rc.ID, Status: "executed", Console: rc.Console}
	if rc.Failed() {
		tr.Status = "failed"
		tr.Error = rc.Err.Error()
	}
	r.Transactions = append(r.Transactions, tr)
	r.Trace = append(r.Trace, rc.Traces...)
	r.Console += rc.Console
}

// Labels returns "contract::action" for every trace, in execution order.
func (r *Result) Labels() []string {
	out := make([]string, len(r.Trace))
	for i, t := range r.Trace {
		out[i] = t.Label()
	}
	return out
}
