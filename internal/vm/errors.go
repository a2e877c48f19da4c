package vm

import (
	"errors"
	"fmt"
)

// RuntimeError is a catchable failure raised by the host-call surface or by
// apply's authorization check. Any RuntimeError escaping a contract rolls
// back the enclosing action.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is the human-readable description a contract author sees.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeAssertionFailed is raised by eosio_assert and its variants.
	ErrCodeAssertionFailed ErrorCode = "ASSERTION_FAILED"

	// ErrCodeMissingAuthority is raised by require_auth and require_auth2.
	ErrCodeMissingAuthority ErrorCode = "MISSING_AUTHORITY"

	// ErrCodeAccessViolation is raised when a contract writes a table it
	// does not own.
	ErrCodeAccessViolation ErrorCode = "ACCESS_VIOLATION"

	// ErrCodeUniquenessViolation is raised on a duplicate primary key.
	ErrCodeUniquenessViolation ErrorCode = "UNIQUENESS_VIOLATION"

	// ErrCodeMissingPayer is raised when a new record has payer 0.
	ErrCodeMissingPayer ErrorCode = "MISSING_PAYER"

	// ErrCodeMissingContract is raised when an action targets an account
	// without code.
	ErrCodeMissingContract ErrorCode = "MISSING_CONTRACT"

	// ErrCodeMissingAccount is raised for unknown accounts or permissions.
	ErrCodeMissingAccount ErrorCode = "MISSING_ACCOUNT"

	// ErrCodeUnsatisfiedPermission is raised when an inline action's
	// authorization is not satisfied by the sender's eosio.code permission.
	ErrCodeUnsatisfiedPermission ErrorCode = "UNSATISFIED_PERMISSION"

	// ErrCodeHashMismatch is raised by the assert_* hash intrinsics.
	ErrCodeHashMismatch ErrorCode = "HASH_MISMATCH"

	// ErrCodeNotImplemented is raised by intrinsics the runtime does not
	// support.
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// ErrCodeInvalidArgument is raised for malformed intrinsic input.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ExitError is raised by eosio_exit. It ends the current action without
// rolling it back.
type ExitError struct {
	Code int32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("eosio_exit: %d", e.Code)
}

// IsExit reports whether err is (or wraps) an ExitError.
func IsExit(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee)
}

// CodeOf returns the RuntimeError code carried by err, or "".
func CodeOf(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsAssertionError returns true if err is an eosio_assert failure.
func IsAssertionError(err error) bool {
	return CodeOf(err) == ErrCodeAssertionFailed
}

// IsMissingAuthorityError returns true if err is a require_auth failure.
func IsMissingAuthorityError(err error) bool {
	return CodeOf(err) == ErrCodeMissingAuthority
}

// IsAccessViolationError returns true if err is a db access violation.
func IsAccessViolationError(err error) bool {
	return CodeOf(err) == ErrCodeAccessViolation
}

func newError(code ErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewAssertionError creates the error raised by eosio_assert.
func NewAssertionError(message string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeAssertionFailed, Message: message}
}

// NewNotImplementedError creates the error raised by an unsupported
// intrinsic.
func NewNotImplementedError(intrinsic string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotImplemented,
		Message: intrinsic + " is not implemented",
		Details: map[string]string{"intrinsic": intrinsic},
	}
}
