package vm

import (
	"log/slog"

	"github.com/holiman/uint256"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/itercache"
	"github.com/roach88/chainsim/internal/state"
)

// Host is the host-call surface bound to one running action.
//
// Methods take and return plain Go values; adapters such as the wasm
// engine translate linear-memory pointers onto them. Failures are returned
// as *RuntimeError (or *ExitError). Misuse of an iterator handle panics
// with *itercache.InvariantError.
type Host struct {
	chain  Chain
	store  *state.Store
	ctx    *Context
	logger *slog.Logger

	kv *itercache.Cache[*state.KeyValueObject]

	Idx64     *IndexAPI[uint64]
	Idx128    *IndexAPI[uint256.Int]
	Idx256    *IndexAPI[[32]byte]
	IdxDouble *IndexAPI[float64]
}

func newHost(c Chain, store *state.Store, ctx *Context, logger *slog.Logger) *Host {
	h := &Host{
		chain:  c,
		store:  store,
		ctx:    ctx,
		logger: logger.With("receiver", ctx.Receiver, "action", ctx.Action),
		kv:     itercache.New[*state.KeyValueObject](),
	}
	h.Idx64 = newIndexAPI(h, "idx64", store.Idx64, nil)
	h.Idx128 = newIndexAPI(h, "idx128", store.Idx128, nil)
	h.Idx256 = newIndexAPI(h, "idx256", store.Idx256, nil)
	h.IdxDouble = newIndexAPI(h, "idx_double", store.IdxDouble, validateDouble)
	return h
}

// Context returns the action being applied.
func (h *Host) Context() *Context {
	return h.ctx
}

// Logger returns the host's debug logger.
func (h *Host) Logger() *slog.Logger {
	return h.logger
}

// ReadActionData returns the action payload. Callers must not modify it.
func (h *Host) ReadActionData() []byte {
	h.logger.Debug("read_action_data", "size", len(h.ctx.Data))
	return h.ctx.Data
}

// ActionDataSize returns the payload length.
func (h *Host) ActionDataSize() int {
	h.logger.Debug("action_data_size")
	return len(h.ctx.Data)
}

// CurrentReceiver returns the account whose code is running.
func (h *Host) CurrentReceiver() chain.Name {
	h.logger.Debug("current_receiver")
	return h.ctx.Receiver
}

// GetSender returns the contract that sent this inline action, or zero.
func (h *Host) GetSender() chain.Name {
	h.logger.Debug("get_sender")
	return h.ctx.Sender
}

// hasActiveAuth reports whether the action carries account@active or
// account@owner.
func (h *Host) hasActiveAuth(account chain.Name) bool {
	for _, auth := range h.ctx.Authorization {
		if auth.Actor != account {
			continue
		}
		if auth.Permission == chain.NameActive || auth.Permission == chain.NameOwner {
			return true
		}
	}
	return false
}

// RequireAuth fails unless the action is authorized by account's active or
// owner permission.
func (h *Host) RequireAuth(account chain.Name) error {
	h.logger.Debug("require_auth", "account", account)
	if !h.hasActiveAuth(account) {
		return newError(ErrCodeMissingAuthority, "missing required authority %s", account)
	}
	return nil
}

// HasAuth is the non-failing form of RequireAuth.
func (h *Host) HasAuth(account chain.Name) bool {
	h.logger.Debug("has_auth", "account", account)
	return h.hasActiveAuth(account)
}

// RequireAuth2 fails unless the action carries exactly account@permission.
func (h *Host) RequireAuth2(account, permission chain.Name) error {
	h.logger.Debug("require_auth2", "account", account, "permission", permission)
	for _, auth := range h.ctx.Authorization {
		if auth.Actor == account && auth.Permission == permission {
			return nil
		}
	}
	return newError(ErrCodeMissingAuthority, "missing required authority %s@%s", account, permission)
}

// IsAccount reports whether the account exists.
func (h *Host) IsAccount(name chain.Name) bool {
	h.logger.Debug("is_account", "account", name)
	_, ok := h.chain.Account(name)
	return ok
}

// RequireRecipient schedules a notification of the current action to
// account.
//
// The notification is queued only for contracts other than the current
// receiver and first receiver, and at most once per account per action.
func (h *Host) RequireRecipient(account chain.Name) error {
	h.logger.Debug("require_recipient", "account", account)
	acct, ok := h.chain.Account(account)
	if !ok {
		return newError(ErrCodeMissingAccount, "Account %s missing for require_recipient", account)
	}
	c := h.ctx
	if !acct.IsContract() || account == c.Receiver || account == c.FirstReceiver {
		return nil
	}
	if !c.markNotified(account) {
		return nil
	}
	h.logger.Debug("queued notification", "notify", account, "size", len(c.Data))
	h.chain.Notify(&Context{
		Receiver:      account,
		FirstReceiver: c.FirstReceiver,
		Action:        c.Action,
		Data:          c.Data,
		Authorization: []chain.PermissionLevel{},
		Transaction:   c.Transaction,
		notified:      c.notified,
	})
	return nil
}

// SendInline decodes a packed action and queues it as an inline action of
// the current context.
func (h *Host) SendInline(packed []byte) error {
	a, err := chain.UnpackAction(packed)
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidArgument, Message: "send_inline: " + err.Error()}
	}
	return h.SendInlineAction(a)
}

// SendInlineAction queues a as an inline action of the current context.
// The target must be an existing contract.
func (h *Host) SendInlineAction(a chain.Action) error {
	h.logger.Debug("send_inline",
		"inline", a.Account.String()+"::"+a.Name.String(),
		"authorization", a.Authorization,
		"size", len(a.Data),
	)
	acct, ok := h.chain.Account(a.Account)
	if !ok || !acct.IsContract() {
		return newError(ErrCodeMissingContract, "Contract %s is missing for inline action", a.Account)
	}
	auth := append([]chain.PermissionLevel{}, a.Authorization...)
	h.ctx.Inline = append(h.ctx.Inline, &Context{
		Sender:        h.ctx.Receiver,
		Receiver:      a.Account,
		FirstReceiver: a.Account,
		Action:        a.Name,
		Data:          append([]byte(nil), a.Data...),
		Authorization: auth,
		Transaction:   h.ctx.Transaction,
	})
	return nil
}
