package store

import (
	"github.com/roach88/chainsim/internal/chain"
)

// Transaction status values.
const (
	StatusExecuted = "executed"
	StatusFailed   = "failed"
)

// TransactionRecord is one applied transaction.
type TransactionRecord struct {
	// ID is the run id assigned by the engine (a UUIDv7 in production).
	ID string

	// Seq orders transactions within one log.
	Seq int64

	// Hash is chain.TransactionID of the packed transaction.
	Hash string

	// Status is StatusExecuted or StatusFailed.
	Status string

	// Error is the failure message of a failed transaction.
	Error string

	Console string

	// Packed is the binary-packed transaction, kept for replay.
	Packed []byte

	// ChainTime is the blockchain time the transaction ran at.
	ChainTime chain.TimePoint
}

// Failed reports whether the transaction was rolled back.
func (r TransactionRecord) Failed() bool {
	return r.Status == StatusFailed
}

// TraceRecord is one executed context of a transaction.
type TraceRecord struct {
	TransactionID string
	chain.ExecutionTrace
}
