package engine

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	addrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	addrC = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func mustApply(t *testing.T, l *Ledger, fn func(tx *Tx) error) {
	t.Helper()
	if err := l.Apply(fn); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func TestMintAndTransfer(t *testing.T) {
	l := NewLedger(1)

	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(100))
	})
	mustApply(t, l, func(tx *Tx) error {
		return tx.Transfer(addrA, addrB, big.NewInt(40))
	})

	if got := l.BalanceOf(addrA); got.Cmp(big.NewInt(60)) != 0 {
		t.Errorf("balance A = %s, want 60", got)
	}
	if got := l.BalanceOf(addrB); got.Cmp(big.NewInt(40)) != 0 {
		t.Errorf("balance B = %s, want 40", got)
	}
	if got := l.BalanceOf(addrC); got.Sign() != 0 {
		t.Errorf("balance C = %s, want 0", got)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := NewLedger(1)
	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(10))
	})

	err := l.Apply(func(tx *Tx) error {
		return tx.Transfer(addrA, addrB, big.NewInt(11))
	})
	if !IsReason(err, ReasonInsufficientBalance) {
		t.Fatalf("err = %v, want InsufficientBalance", err)
	}
	if got := l.BalanceOf(addrA); got.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("balance A = %s, want 10 after failed transfer", got)
	}
}

func TestTransferRejectsNegativeAndNil(t *testing.T) {
	l := NewLedger(1)
	for _, amount := range []*big.Int{nil, big.NewInt(-1)} {
		err := l.Apply(func(tx *Tx) error {
			return tx.Transfer(addrA, addrB, amount)
		})
		if !IsReason(err, ReasonInvalidParameters) {
			t.Errorf("Transfer(%v) err = %v, want InvalidParameters", amount, err)
		}
	}
}

func TestApplyRevertsAllChanges(t *testing.T) {
	l := NewLedger(1)
	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(100))
	})

	boom := errors.New("boom")
	err := l.Apply(func(tx *Tx) error {
		if err := tx.Transfer(addrA, addrB, big.NewInt(30)); err != nil {
			return err
		}
		if err := tx.Transfer(addrB, addrC, big.NewInt(10)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if got := l.BalanceOf(addrA); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("balance A = %s, want 100 after revert", got)
	}
	if got := l.BalanceOf(addrB); got.Sign() != 0 {
		t.Errorf("balance B = %s, want 0 after revert", got)
	}
	if got := l.BalanceOf(addrC); got.Sign() != 0 {
		t.Errorf("balance C = %s, want 0 after revert", got)
	}
}

func TestEventsPublishedOnCommitOnly(t *testing.T) {
	l := NewLedger(7)
	ch := l.Subscribe(16)

	// 失败事务内记录的事件不得外泄
	_ = l.Apply(func(tx *Tx) error {
		tx.Emit(addrA, "ghost", nil)
		return errors.New("abort")
	})
	select {
	case e := <-ch:
		t.Fatalf("received event %q from reverted tx", e.Name)
	default:
	}

	mustApply(t, l, func(tx *Tx) error {
		tx.Emit(addrA, "committed", map[string]string{"k": "v"})
		return nil
	})
	select {
	case e := <-ch:
		if e.Name != "committed" || e.Address != addrA || e.BlockNum != 7 {
			t.Errorf("event = %+v, want committed at %s block 7", e, addrA.Hex())
		}
		if e.Attrs["k"] != "v" {
			t.Errorf("attrs = %v, want k=v", e.Attrs)
		}
	default:
		t.Fatal("committed event not delivered")
	}
}

func TestCallTransfersValueThenDispatches(t *testing.T) {
	l := NewLedger(1)
	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(50))
	})

	var seenValue *big.Int
	var seenCaller common.Address
	l.RegisterCallee(addrB, CalleeFunc(func(tx *Tx, caller common.Address, input []byte, value *big.Int) ([]byte, error) {
		seenCaller = caller
		seenValue = new(big.Int).Set(value)
		return []byte("ok"), nil
	}))

	mustApply(t, l, func(tx *Tx) error {
		out, err := tx.Call(addrA, addrB, []byte("ping"), big.NewInt(20))
		if err != nil {
			return err
		}
		if string(out) != "ok" {
			t.Errorf("call output = %q, want ok", out)
		}
		return nil
	})

	if seenCaller != addrA {
		t.Errorf("callee saw caller %s, want %s", seenCaller.Hex(), addrA.Hex())
	}
	if seenValue.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("callee saw value %s, want 20", seenValue)
	}
	if got := l.BalanceOf(addrB); got.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("balance B = %s, want 20", got)
	}
}

func TestCallToPlainAddressIsTransfer(t *testing.T) {
	l := NewLedger(1)
	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(50))
	})

	mustApply(t, l, func(tx *Tx) error {
		out, err := tx.Call(addrA, addrC, []byte("ignored"), big.NewInt(15))
		if err != nil {
			return err
		}
		if out != nil {
			t.Errorf("plain transfer returned %q, want nil", out)
		}
		return nil
	})

	if got := l.BalanceOf(addrC); got.Cmp(big.NewInt(15)) != 0 {
		t.Errorf("balance C = %s, want 15", got)
	}
}

func TestCalleeFailureRevertsAttachedValue(t *testing.T) {
	l := NewLedger(1)
	mustApply(t, l, func(tx *Tx) error {
		return tx.Mint(addrA, big.NewInt(50))
	})
	l.RegisterCallee(addrB, CalleeFunc(func(tx *Tx, caller common.Address, input []byte, value *big.Int) ([]byte, error) {
		return nil, errors.New("callee rejected")
	}))

	err := l.Apply(func(tx *Tx) error {
		_, err := tx.Call(addrA, addrB, nil, big.NewInt(20))
		return err
	})
	if err == nil {
		t.Fatal("expected callee error")
	}
	if got := l.BalanceOf(addrA); got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("balance A = %s, want 50 after revert", got)
	}
	if got := l.BalanceOf(addrB); got.Sign() != 0 {
		t.Errorf("balance B = %s, want 0 after revert", got)
	}
}

func TestAdvanceBlock(t *testing.T) {
	l := NewLedger(100)
	if got := l.Height(); got != 100 {
		t.Fatalf("height = %d, want 100", got)
	}
	if got := l.AdvanceBlock(5); got != 105 {
		t.Fatalf("AdvanceBlock = %d, want 105", got)
	}
	if got := l.Height(); got != 105 {
		t.Fatalf("height = %d, want 105", got)
	}
}

func TestNamedAddressDeterministic(t *testing.T) {
	a1 := NamedAddress("exposure/registry")
	a2 := NamedAddress("exposure/registry")
	b := NamedAddress("exposure/fee-escrow")
	if a1 != a2 {
		t.Errorf("same name derived different addresses: %s vs %s", a1.Hex(), a2.Hex())
	}
	if a1 == b {
		t.Errorf("different names derived same address %s", a1.Hex())
	}
	if a1 == (common.Address{}) {
		t.Error("derived zero address")
	}
}
