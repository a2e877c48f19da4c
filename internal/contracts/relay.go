package contracts

import (
	"context"
	"fmt"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/native"
	"github.com/roach88/chainsim/internal/vm"
)

// Relay accounts. The contracts below refer to each other by these names,
// so they only work when deployed under them.
var (
	RelaySender    = chain.N("sender")
	RelayReceiver  = chain.N("receiver")
	RelayNotified1 = chain.N("notified1")
	RelayNotified2 = chain.N("notified2")
	RelayNotified3 = chain.N("notified3")
	RelayNotified4 = chain.N("notified4")
)

// RelayAccounts lists the relay accounts in deployment order.
func RelayAccounts() []chain.Name {
	return []chain.Name{RelaySender, RelayReceiver, RelayNotified1, RelayNotified2, RelayNotified3, RelayNotified4}
}

// RelaySendsInline reports whether the relay contract at account needs the
// eosio.code permission.
func RelaySendsInline(account chain.Name) bool {
	switch account {
	case RelaySender, RelayNotified1, RelayNotified2:
		return true
	}
	return false
}

// NewRelay builds the relay contract deployed at account.
//
// sender::send1 prints 1 and sends sender::send2 inline. send2 prints 2,
// sends receiver::receive1, notifies notified1 and notified2 and sends
// receiver::receive2. notified1 and notified2 print 3 and 4, each sending
// one inline receive and notifying notified3 or notified4, which print 5
// and 6. receiver prints 7 to 10 for receive1 to receive4.
func NewRelay(account chain.Name) (*native.Contract, error) {
	b := native.NewBuilder(account)
	switch account {
	case RelaySender:
		b.Action("send1", send1).Action("send2", send2)
	case RelayReceiver:
		for i, label := range []string{" 7 ", " 8 ", " 9 ", " 10 "} {
			b.Action(fmt.Sprintf("receive%d", i+1), printer(label))
		}
	case RelayNotified1:
		b.Action("empty", noop).OnNotify("*", "send2", forward(" 3 ", "receive3", RelayNotified3))
	case RelayNotified2:
		b.Action("empty", noop).OnNotify("*", "send2", forward(" 4 ", "receive4", RelayNotified4))
	case RelayNotified3:
		b.OnNotify("*", "send2", printer(" 5 "))
	case RelayNotified4:
		b.OnNotify("*", "send2", printer(" 6 "))
	default:
		return nil, fmt.Errorf("no relay contract for account %s", account)
	}
	return b.Build()
}

// RelayData packs the (owner, value) payload of send1 and send2.
func RelayData(owner chain.Name, value int64) []byte {
	return native.NewEncoder().Name(owner).Int64(value).Bytes()
}

func noop(context.Context, *vm.Host, []byte) error { return nil }

func printer(label string) native.Handler {
	return func(_ context.Context, h *vm.Host, _ []byte) error {
		h.Prints(label)
		return nil
	}
}

func selfActive(h *vm.Host) []chain.PermissionLevel {
	return []chain.PermissionLevel{{Actor: h.CurrentReceiver(), Permission: chain.NameActive}}
}

func valueData(value int64) []byte {
	return native.NewEncoder().Int64(value).Bytes()
}

func decodeRelay(data []byte) (chain.Name, int64, error) {
	d := native.NewDecoder(data)
	owner, value := d.Name(), d.Int64()
	return owner, value, d.Done()
}

func send1(_ context.Context, h *vm.Host, data []byte) error {
	h.Prints(" 1 ")
	owner, _, err := decodeRelay(data)
	if err != nil {
		return fmt.Errorf("send1: %w", err)
	}
	if err := h.RequireAuth(owner); err != nil {
		return err
	}
	return h.SendInlineAction(chain.Action{
		Account:       RelaySender,
		Name:          chain.N("send2"),
		Authorization: selfActive(h),
		Data:          data,
	})
}

func send2(_ context.Context, h *vm.Host, data []byte) error {
	h.Prints(" 2 ")
	owner, value, err := decodeRelay(data)
	if err != nil {
		return fmt.Errorf("send2: %w", err)
	}
	if err := h.RequireAuth(owner); err != nil {
		return err
	}
	receive := func(action string) error {
		return h.SendInlineAction(chain.Action{
			Account:       RelayReceiver,
			Name:          chain.N(action),
			Authorization: selfActive(h),
			Data:          valueData(value),
		})
	}
	if err := receive("receive1"); err != nil {
		return err
	}
	if err := h.RequireRecipient(RelayNotified1); err != nil {
		return err
	}
	if err := h.RequireRecipient(RelayNotified2); err != nil {
		return err
	}
	return receive("receive2")
}

// forward prints label, sends receiver::action inline and passes the
// notification on to next.
func forward(label, action string, next chain.Name) native.Handler {
	return func(_ context.Context, h *vm.Host, data []byte) error {
		h.Prints(label)
		_, value, err := decodeRelay(data)
		if err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		if err := h.SendInlineAction(chain.Action{
			Account:       RelayReceiver,
			Name:          chain.N(action),
			Authorization: selfActive(h),
			Data:          valueData(value),
		}); err != nil {
			return err
		}
		return h.RequireRecipient(next)
	}
}
