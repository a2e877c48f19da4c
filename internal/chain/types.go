package chain

import (
	"fmt"
	"strings"
)

// PermissionLevel names one permission of one account ("alice@active").
type PermissionLevel struct {
	Actor      Name `json:"actor" yaml:"actor"`
	Permission Name `json:"permission" yaml:"permission"`
}

// String renders the level as "actor@permission".
func (p PermissionLevel) String() string {
	return p.Actor.String() + "@" + p.Permission.String()
}

// ParsePermissionLevel parses "actor@permission".
// A bare "actor" defaults to the active permission.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	actor, perm, found := strings.Cut(s, "@")
	if !found {
		perm = "active"
	}
	a, err := ParseName(actor)
	if err != nil {
		return PermissionLevel{}, fmt.Errorf("permission level %q: %w", s, err)
	}
	p, err := ParseName(perm)
	if err != nil {
		return PermissionLevel{}, fmt.Errorf("permission level %q: %w", s, err)
	}
	return PermissionLevel{Actor: a, Permission: p}, nil
}

// Action is one invocation request: target contract, action name,
// authorization list and opaque payload.
type Action struct {
	Account       Name              `json:"account"`
	Name          Name              `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          []byte            `json:"data"`
}

// Extension is an opaque typed transaction extension.
type Extension struct {
	Type uint16 `json:"type"`
	Data []byte `json:"data"`
}

// Transaction is the unit the dispatcher applies atomically.
//
// Header fields are carried for introspection intrinsics only; nothing in
// the runtime validates expiration or TaPoS references.
type Transaction struct {
	Expiration         TimePointSec `json:"expiration"`
	RefBlockNum        uint16       `json:"ref_block_num"`
	RefBlockPrefix     uint32       `json:"ref_block_prefix"`
	MaxNetUsageWords   uint32       `json:"max_net_usage_words"`
	MaxCPUUsageMS      uint8        `json:"max_cpu_usage_ms"`
	DelaySec           uint32       `json:"delay_sec"`
	ContextFreeActions []Action     `json:"context_free_actions"`
	Actions            []Action     `json:"actions"`
	Extensions         []Extension  `json:"transaction_extensions"`
}

// NewTransaction wraps actions in a transaction with an empty header.
func NewTransaction(actions ...Action) *Transaction {
	return &Transaction{Actions: actions}
}

// TimePoint is microseconds since the Unix epoch.
type TimePoint int64

// TimePointSec is seconds since the Unix epoch.
type TimePointSec uint32

// TimePointFromMillis converts milliseconds to a TimePoint.
func TimePointFromMillis(ms int64) TimePoint {
	return TimePoint(ms * 1000)
}

// Millis returns the time point in whole milliseconds.
func (t TimePoint) Millis() int64 {
	return int64(t) / 1000
}

// Micros returns the raw microsecond value.
func (t TimePoint) Micros() int64 {
	return int64(t)
}
