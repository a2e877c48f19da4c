package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the blockchain itself, as
// opposed to a contract failure (those are *vm.RuntimeError).
//
// Runtime errors include:
//   - Quota exceeded: a transaction ran more contexts than allowed
//   - Negative time: SubtractTime would move time before zero
//   - Duplicate account: CreateAccount with a name already in use
//   - Replay mismatch: a replayed transaction produced different traces
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// TransactionID identifies the affected transaction, if any.
	TransactionID string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates a transaction exceeded max executions.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeNegativeTime indicates SubtractTime went below zero.
	ErrCodeNegativeTime RuntimeErrorCode = "NEGATIVE_TIME"

	// ErrCodeDuplicateAccount indicates an account name is already taken.
	ErrCodeDuplicateAccount RuntimeErrorCode = "DUPLICATE_ACCOUNT"

	// ErrCodeReplayMismatch indicates replay diverged from the trace log.
	ErrCodeReplayMismatch RuntimeErrorCode = "REPLAY_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("%s: %s (tx=%s)", e.Code, e.Message, e.TransactionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and
// ExecutionsExceededError. Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var ee *ExecutionsExceededError
	return errors.As(err, &ee)
}

// IsReplayMismatch returns true if the error reports a replay divergence.
func IsReplayMismatch(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeReplayMismatch
}

// NewNegativeTimeError creates the error SubtractTime returns.
func NewNegativeTimeError() *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNegativeTime,
		Message: "Blockchain time must not go negative",
	}
}

// NewReplayMismatchError creates a RuntimeError for a replay divergence.
func NewReplayMismatchError(txID, field, want, got string) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeReplayMismatch,
		Message:       fmt.Sprintf("replay produced a different %s", field),
		TransactionID: txID,
		Details: map[string]string{
			"want": want,
			"got":  got,
		},
	}
}
