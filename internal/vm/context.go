package vm

import (
	"strings"

	"github.com/roach88/chainsim/internal/chain"
)

// Context is one action or notification instance scheduled by the
// dispatcher.
type Context struct {
	// Sender is the contract that sent this inline action; zero otherwise.
	Sender        chain.Name
	Receiver      chain.Name
	FirstReceiver chain.Name
	Action        chain.Name
	Data          []byte
	Authorization []chain.PermissionLevel

	ActionOrdinal  int
	ExecutionOrder int

	// Transaction is the transaction this context belongs to.
	Transaction *chain.Transaction

	// Inline holds the inline actions this context sent, in send order.
	// The dispatcher splices them into its local queue after apply.
	Inline []*Context

	// notified is shared by an action and every notification it causes,
	// directly or through a notified contract.
	notified map[chain.Name]bool
	console  strings.Builder
}

// NewActionContext builds the context for a top-level transaction action.
func NewActionContext(a chain.Action, tx *chain.Transaction) *Context {
	return &Context{
		Receiver:      a.Account,
		FirstReceiver: a.Account,
		Action:        a.Name,
		Data:          a.Data,
		Authorization: a.Authorization,
		Transaction:   tx,
	}
}

// IsInline reports whether the context was created by send_inline.
func (c *Context) IsInline() bool {
	return c.Sender != 0
}

// IsNotification reports whether the context was created by
// require_recipient.
func (c *Context) IsNotification() bool {
	return c.Receiver != c.FirstReceiver
}

// Console returns the text printed while this context ran.
func (c *Context) Console() string {
	return c.console.String()
}

// Trace converts the context into its execution trace record.
func (c *Context) Trace() chain.ExecutionTrace {
	auth := c.Authorization
	if auth == nil {
		auth = []chain.PermissionLevel{}
	}
	return chain.ExecutionTrace{
		Contract:       c.Receiver,
		Action:         c.Action,
		IsInline:       c.IsInline(),
		IsNotification: c.IsNotification(),
		FirstReceiver:  c.FirstReceiver,
		Sender:         c.Sender,
		Authorization:  auth,
		Data:           c.Data,
		ActionOrdinal:  c.ActionOrdinal,
		ExecutionOrder: c.ExecutionOrder,
		Console:        c.Console(),
	}
}

// markNotified records account in the action's notified set and reports
// whether it was new.
func (c *Context) markNotified(account chain.Name) bool {
	if c.notified == nil {
		c.notified = make(map[chain.Name]bool)
	}
	if c.notified[account] {
		return false
	}
	c.notified[account] = true
	return true
}
