package vm

import "github.com/roach88/chainsim/internal/chain"

// Action kinds accepted by GetAction.
const (
	ContextFreeAction = 0
	RegularAction     = 1
)

func (h *Host) transaction() *chain.Transaction {
	if h.ctx.Transaction == nil {
		return &chain.Transaction{}
	}
	return h.ctx.Transaction
}

// ReadTransaction returns the packed transaction being applied.
func (h *Host) ReadTransaction() []byte {
	h.logger.Debug("read_transaction")
	return chain.PackTransaction(h.transaction())
}

// TransactionSize returns the packed size of the transaction.
func (h *Host) TransactionSize() int {
	h.logger.Debug("transaction_size")
	return len(chain.PackTransaction(h.transaction()))
}

// TaposBlockNum returns the transaction's reference block number.
func (h *Host) TaposBlockNum() uint16 {
	h.logger.Debug("tapos_block_num")
	return h.transaction().RefBlockNum
}

// TaposBlockPrefix returns the transaction's reference block prefix.
func (h *Host) TaposBlockPrefix() uint32 {
	h.logger.Debug("tapos_block_prefix")
	return h.transaction().RefBlockPrefix
}

// Expiration returns the transaction expiration in seconds.
func (h *Host) Expiration() uint32 {
	h.logger.Debug("expiration")
	return uint32(h.transaction().Expiration)
}

// GetAction returns the packed action at index of the given kind. found
// is false when index is past the end of the list.
func (h *Host) GetAction(kind, index uint32) (packed []byte, found bool, err error) {
	h.logger.Debug("get_action", "kind", kind, "index", index)
	tx := h.transaction()
	var list []chain.Action
	switch kind {
	case ContextFreeAction:
		list = tx.ContextFreeActions
	case RegularAction:
		list = tx.Actions
	default:
		return nil, false, newError(ErrCodeInvalidArgument, "action is not found")
	}
	if int(index) >= len(list) {
		return nil, false, nil
	}
	return chain.PackAction(list[index]), true, nil
}
