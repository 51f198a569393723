package escrow

import (
	"math/big"

	"github.com/blues/exposure/internal/engine"
	"github.com/ethereum/go-ethereum/common"
)

// FeeEscrow 协议手续费的被动托管方。finalize/买断时由载体入账，
// 只有feeRecipient可以提走累计余额，除此之外没有任何业务逻辑。
type FeeEscrow struct {
	addr      common.Address
	recipient common.Address
	collected *big.Int // 累计入账总额，只增不减
}

// New 创建手续费托管
func New(addr, recipient common.Address) *FeeEscrow {
	return &FeeEscrow{
		addr:      addr,
		recipient: recipient,
		collected: new(big.Int),
	}
}

// Address 托管账户地址
func (e *FeeEscrow) Address() common.Address {
	return e.addr
}

// Recipient 手续费接收人
func (e *FeeEscrow) Recipient() common.Address {
	return e.recipient
}

// Collected 累计入账总额
func (e *FeeEscrow) Collected() *big.Int {
	return new(big.Int).Set(e.collected)
}

// Receive 从付款方入账手续费
func (e *FeeEscrow) Receive(tx *engine.Tx, from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := tx.Transfer(from, e.addr, amount); err != nil {
		return err
	}
	prev := new(big.Int).Set(e.collected)
	tx.OnRevert(func() { e.collected = prev })
	e.collected = new(big.Int).Add(e.collected, amount)

	tx.Emit(e.addr, engine.EventFeeCollected, map[string]string{
		"from":   from.Hex(),
		"amount": amount.String(),
	})
	return nil
}

// Withdraw 提走全部托管余额到to，仅限feeRecipient调用
func (e *FeeEscrow) Withdraw(tx *engine.Tx, caller, to common.Address) (*big.Int, error) {
	if caller != e.recipient {
		return nil, engine.Errf(engine.ReasonUnauthorized, "只有手续费接收人可以提现")
	}
	balance := tx.BalanceOf(e.addr)
	if balance.Sign() == 0 {
		return nil, engine.Errf(engine.ReasonNothingToClaim, "托管余额为零")
	}
	if err := tx.Transfer(e.addr, to, balance); err != nil {
		return nil, err
	}
	tx.Emit(e.addr, engine.EventEscrowWithdrawn, map[string]string{
		"to":     to.Hex(),
		"amount": balance.String(),
	})
	return balance, nil
}
