package state

import (
	"errors"
	"fmt"
)

var (
	// ErrUniqueness is returned when a primary key (or a secondary entry's
	// primary key) already exists in the table.
	ErrUniqueness = errors.New("key uniqueness violation")

	// ErrPrefixExists is returned by CreatePrefix for a registered prefix.
	ErrPrefixExists = errors.New("prefix uniqueness violation")

	// ErrNotFound is returned when deleting a key or prefix that is absent.
	ErrNotFound = errors.New("non-existent item")
)

// InvariantError reports an internal inconsistency in the store.
//
// It is raised with panic, never returned: it signals a bug in the engine,
// not contract misbehavior, and must not be caught and retried.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("state invariant violated: %s", e.Message)
}

func corrupted(format string, args ...any) {
	panic(&InvariantError{Message: "revert stack is corrupted: " + fmt.Sprintf(format, args...)})
}
