package vm

import (
	"strconv"

	"github.com/roach88/chainsim/internal/chain"
)

// EosioAssert fails with msg when test is false.
func (h *Host) EosioAssert(test bool, msg string) error {
	if test {
		return nil
	}
	h.logger.Debug("eosio_assert", "message", msg)
	return NewAssertionError("eosio_assert: " + msg)
}

// EosioAssertMessage is EosioAssert with an explicitly sized message.
func (h *Host) EosioAssertMessage(test bool, msg string) error {
	if test {
		return nil
	}
	h.logger.Debug("eosio_assert_message", "message", msg)
	return NewAssertionError("eosio_assert_message: " + msg)
}

// EosioAssertCode fails with a numeric error code when test is false.
func (h *Host) EosioAssertCode(test bool, code uint64) error {
	if test {
		return nil
	}
	h.logger.Debug("eosio_assert_code", "code", code)
	return NewAssertionError("eosio_assert_code: " + strconv.FormatUint(code, 10))
}

// EosioExit ends the action successfully. The returned error must be
// propagated out of the module unchanged.
func (h *Host) EosioExit(code int32) error {
	h.logger.Debug("eosio_exit", "code", code)
	return &ExitError{Code: code}
}

// Abort fails the action unconditionally.
func (h *Host) Abort() error {
	h.logger.Debug("abort")
	return NewAssertionError("abort")
}

// CurrentTime returns the blockchain time in microseconds.
func (h *Host) CurrentTime() int64 {
	now := h.chain.Now().Micros()
	h.logger.Debug("current_time", "us", now)
	return now
}

// GetAccountCreationTime returns the account's creation time in
// microseconds.
func (h *Host) GetAccountCreationTime(name chain.Name) (int64, error) {
	h.logger.Debug("get_account_creation_time", "account", name)
	acct, ok := h.chain.Account(name)
	if !ok {
		return 0, newError(ErrCodeMissingAccount, "Account %s is missing for get_account_creation_time", name)
	}
	return acct.CreationTime().Micros(), nil
}

// GetActiveProducers returns the active producer schedule, which is always
// empty.
func (h *Host) GetActiveProducers() []chain.Name {
	h.logger.Debug("get_active_producers")
	return nil
}

// NotImplemented fails with the error every unsupported intrinsic raises.
func (h *Host) NotImplemented(intrinsic string) error {
	h.logger.Debug(intrinsic)
	return NewNotImplementedError(intrinsic)
}

// Unsupported lists intrinsics the runtime deliberately does not provide.
// Module engines bind each to NotImplemented so calls fail loudly.
var Unsupported = []string{
	"send_deferred",
	"cancel_deferred",
	"publication_time",
	"send_context_free_inline",
	"set_action_return_value",
	"check_transaction_authorization",
	"check_permission_authorization",
	"get_permission_last_used",
	"get_context_free_data",
	"is_feature_activated",
}
