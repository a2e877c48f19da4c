package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxExecutions is the default maximum number of contexts a single
// transaction may execute.
const DefaultMaxExecutions = 10000

// QuotaEnforcer counts the contexts one transaction executes and enforces
// a maximum.
//
// Notifications are deduplicated per context, but nothing stops a contract
// from sending itself an inline action forever. The quota turns that into
// a failed, rolled-back transaction.
type QuotaEnforcer struct {
	max     int
	current int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(max int) *QuotaEnforcer {
	return &QuotaEnforcer{max: max}
}

// Check increments the execution counter and validates it against the
// limit. It is called before each context runs.
func (q *QuotaEnforcer) Check(txID string) error {
	q.current++
	if q.current > q.max {
		return &ExecutionsExceededError{
			TransactionID: txID,
			Executions:    q.current,
			Limit:         q.max,
		}
	}
	return nil
}

// Current returns the current execution count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// Max returns the limit.
func (q *QuotaEnforcer) Max() int {
	return q.max
}

// ExecutionsExceededError is returned when a transaction exceeds the quota.
// The transaction is rolled back like any other failure.
type ExecutionsExceededError struct {
	TransactionID string
	Executions    int
	Limit         int
}

// Error implements the error interface.
func (e *ExecutionsExceededError) Error() string {
	return fmt.Sprintf("transaction %s exceeded max executions quota: %d executions > %d limit",
		e.TransactionID, e.Executions, e.Limit)
}

// IsExecutionsExceededError returns true if the error is an
// ExecutionsExceededError. Uses errors.As to handle wrapped errors.
func IsExecutionsExceededError(err error) bool {
	var ee *ExecutionsExceededError
	return errors.As(err, &ee)
}
