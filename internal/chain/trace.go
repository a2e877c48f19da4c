package chain

import (
	"encoding/hex"
)

// ExecutionTrace records one executed context, in execution order.
type ExecutionTrace struct {
	Contract       Name              `json:"contract"`
	Action         Name              `json:"action"`
	IsInline       bool              `json:"is_inline"`
	IsNotification bool              `json:"is_notification"`
	FirstReceiver  Name              `json:"first_receiver"`
	Sender         Name              `json:"sender"`
	Authorization  []PermissionLevel `json:"authorization"`
	Data           []byte            `json:"data"`
	ActionOrdinal  int               `json:"action_ordinal"`
	ExecutionOrder int               `json:"execution_order"`
	Console        string            `json:"console"`
}

// Label renders the trace as "contract::action".
func (t ExecutionTrace) Label() string {
	return t.Contract.String() + "::" + t.Action.String()
}

// CanonicalMap converts the trace into a map accepted by MarshalCanonical.
func (t ExecutionTrace) CanonicalMap() map[string]any {
	auth := make([]string, len(t.Authorization))
	for i, p := range t.Authorization {
		auth[i] = p.String()
	}
	return map[string]any{
		"contract":        t.Contract.String(),
		"action":          t.Action.String(),
		"is_inline":       t.IsInline,
		"is_notification": t.IsNotification,
		"first_receiver":  t.FirstReceiver.String(),
		"sender":          t.Sender.String(),
		"authorization":   auth,
		"data":            hex.EncodeToString(t.Data),
		"action_ordinal":  t.ActionOrdinal,
		"execution_order": t.ExecutionOrder,
		"console":         t.Console,
	}
}
