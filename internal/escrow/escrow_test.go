package escrow

import (
	"errors"
	"math/big"
	"testing"

	"github.com/blues/exposure/internal/engine"
	"github.com/ethereum/go-ethereum/common"
)

var (
	escrowAddr = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	recipient  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	payer      = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	sink       = common.HexToAddress("0x00000000000000000000000000000000000000e3")
)

func newFunded(t *testing.T) (*FeeEscrow, *engine.Ledger) {
	t.Helper()
	l := engine.NewLedger(1)
	if err := l.Apply(func(tx *engine.Tx) error {
		return tx.Mint(payer, big.NewInt(1000))
	}); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	return New(escrowAddr, recipient), l
}

func TestReceiveAccumulates(t *testing.T) {
	fe, l := newFunded(t)

	for _, amount := range []int64{30, 70} {
		if err := l.Apply(func(tx *engine.Tx) error {
			return fe.Receive(tx, payer, big.NewInt(amount))
		}); err != nil {
			t.Fatalf("Receive(%d) failed: %v", amount, err)
		}
	}

	if got := fe.Collected(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("collected = %s, want 100", got)
	}
	if got := l.BalanceOf(escrowAddr); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("escrow balance = %s, want 100", got)
	}
}

func TestReceiveIgnoresNonPositive(t *testing.T) {
	fe, l := newFunded(t)
	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		if err := l.Apply(func(tx *engine.Tx) error {
			return fe.Receive(tx, payer, amount)
		}); err != nil {
			t.Errorf("Receive(%v) err = %v, want nil no-op", amount, err)
		}
	}
	if got := fe.Collected(); got.Sign() != 0 {
		t.Errorf("collected = %s, want 0", got)
	}
}

func TestReceiveRevertRestoresCollected(t *testing.T) {
	fe, l := newFunded(t)
	boom := errors.New("boom")
	err := l.Apply(func(tx *engine.Tx) error {
		if err := fe.Receive(tx, payer, big.NewInt(40)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := fe.Collected(); got.Sign() != 0 {
		t.Errorf("collected = %s, want 0 after revert", got)
	}
	if got := l.BalanceOf(payer); got.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("payer balance = %s, want 1000 after revert", got)
	}
}

func TestWithdraw(t *testing.T) {
	fe, l := newFunded(t)
	if err := l.Apply(func(tx *engine.Tx) error {
		return fe.Receive(tx, payer, big.NewInt(100))
	}); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	// 非接收人不得提现
	err := l.Apply(func(tx *engine.Tx) error {
		_, err := fe.Withdraw(tx, payer, sink)
		return err
	})
	if !engine.IsReason(err, engine.ReasonUnauthorized) {
		t.Fatalf("stranger withdraw err = %v, want Unauthorized", err)
	}

	var swept *big.Int
	if err := l.Apply(func(tx *engine.Tx) error {
		var err error
		swept, err = fe.Withdraw(tx, recipient, sink)
		return err
	}); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if swept.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("swept = %s, want 100", swept)
	}
	if got := l.BalanceOf(sink); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("sink balance = %s, want 100", got)
	}
	if got := l.BalanceOf(escrowAddr); got.Sign() != 0 {
		t.Errorf("escrow balance = %s, want 0 after sweep", got)
	}
	// 累计入账只增不减
	if got := fe.Collected(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("collected = %s, want 100 after sweep", got)
	}

	// 再次提现：余额为零
	err = l.Apply(func(tx *engine.Tx) error {
		_, err := fe.Withdraw(tx, recipient, sink)
		return err
	})
	if !engine.IsReason(err, engine.ReasonNothingToClaim) {
		t.Errorf("empty withdraw err = %v, want NothingToClaim", err)
	}
}
