package registry

import (
	"math/big"
	"testing"

	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/escrow"
	"github.com/blues/exposure/internal/vehicle"
	"github.com/ethereum/go-ethereum/common"
)

var (
	governance   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	feeRecipient = common.HexToAddress("0x0000000000000000000000000000000000000002")
	template     = common.HexToAddress("0x0000000000000000000000000000000000000e0e")
	ownerA       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	ownerB       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	target       = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newTestRegistry(t *testing.T) (*Registry, *engine.Ledger) {
	t.Helper()
	l := engine.NewLedger(10)
	r := New(engine.NamedAddress("test/registry"), governance, l,
		vehicle.Config{FeeBps: 100, DecayHorizonBlocks: 100})

	if err := r.SetImplementation(governance, template); err != nil {
		t.Fatalf("SetImplementation failed: %v", err)
	}
	fe := escrow.New(engine.NamedAddress("test/fee-escrow"), feeRecipient)
	if err := r.SetEscrow(governance, fe); err != nil {
		t.Fatalf("SetEscrow failed: %v", err)
	}
	return r, l
}

func createVehicle(t *testing.T, r *Registry, owner common.Address, values ...int64) *vehicle.Vehicle {
	t.Helper()
	targets := make([]common.Address, len(values))
	inputs := make([][]byte, len(values))
	vals := make([]*big.Int, len(values))
	for i, v := range values {
		targets[i] = target
		vals[i] = big.NewInt(v)
	}
	v, err := r.CreateVehicle(owner, 100, big.NewInt(1000), big.NewInt(500),
		big.NewInt(2000), targets, inputs, vals, "beaker")
	if err != nil {
		t.Fatalf("CreateVehicle failed: %v", err)
	}
	return v
}

func TestCreateVehicleMatchesPrecomputedAddress(t *testing.T) {
	r, _ := newTestRegistry(t)

	// 地址在部署前可推导，且与批次内容无关
	want0 := r.ComputeVehicleAddress(ownerA, 0)
	want1 := r.ComputeVehicleAddress(ownerA, 1)
	if want0 == want1 {
		t.Fatal("different nonces derived the same address")
	}

	v0 := createVehicle(t, r, ownerA, 1000)
	if v0.Address() != want0 {
		t.Errorf("vehicle 0 at %s, precomputed %s", v0.Address().Hex(), want0.Hex())
	}

	v1 := createVehicle(t, r, ownerA, 250, 250, 500) // 批次内容不同
	if v1.Address() != want1 {
		t.Errorf("vehicle 1 at %s, precomputed %s", v1.Address().Hex(), want1.Hex())
	}

	if got := r.AccountVehicles(ownerA); got != 2 {
		t.Errorf("account nonce = %d, want 2", got)
	}
	if got := r.VehicleCount(); got != 2 {
		t.Errorf("vehicle count = %d, want 2", got)
	}
}

func TestAddressSpaceSeparatedByOwner(t *testing.T) {
	r, _ := newTestRegistry(t)
	if r.ComputeVehicleAddress(ownerA, 0) == r.ComputeVehicleAddress(ownerB, 0) {
		t.Error("different owners with the same nonce derived the same address")
	}
}

func TestLookups(t *testing.T) {
	r, _ := newTestRegistry(t)
	v := createVehicle(t, r, ownerA, 1000)

	got, err := r.GetVehicle(v.ID())
	if err != nil || got != v {
		t.Errorf("GetVehicle(%d) = (%v, %v)", v.ID(), got, err)
	}
	got, err = r.GetVehicleByAddress(v.Address())
	if err != nil || got != v {
		t.Errorf("GetVehicleByAddress = (%v, %v)", got, err)
	}

	if _, err := r.GetVehicle(99); !engine.IsReason(err, engine.ReasonNotFound) {
		t.Errorf("GetVehicle(99) err = %v, want NotFound", err)
	}
	if _, err := r.GetVehicleByAddress(ownerB); !engine.IsReason(err, engine.ReasonNotFound) {
		t.Errorf("GetVehicleByAddress(unknown) err = %v, want NotFound", err)
	}

	if got := len(r.Vehicles()); got != 1 {
		t.Errorf("Vehicles() returned %d entries, want 1", got)
	}
}

func TestGovernanceGates(t *testing.T) {
	l := engine.NewLedger(10)
	r := New(engine.NamedAddress("test/registry"), governance, l, vehicle.Config{})
	stranger := ownerA

	if err := r.SetImplementation(stranger, template); !engine.IsReason(err, engine.ReasonUnauthorized) {
		t.Errorf("SetImplementation by stranger err = %v, want Unauthorized", err)
	}
	fe := escrow.New(engine.NamedAddress("test/fee-escrow"), feeRecipient)
	if err := r.SetEscrow(stranger, fe); !engine.IsReason(err, engine.ReasonUnauthorized) {
		t.Errorf("SetEscrow by stranger err = %v, want Unauthorized", err)
	}

	// 模板可轮换，托管只能设置一次
	if err := r.SetImplementation(governance, template); err != nil {
		t.Fatalf("SetImplementation failed: %v", err)
	}
	if err := r.SetImplementation(governance, ownerB); err != nil {
		t.Errorf("rotating implementation failed: %v", err)
	}
	if got := r.Implementation(); got != ownerB {
		t.Errorf("implementation = %s, want %s", got.Hex(), ownerB.Hex())
	}

	if err := r.SetEscrow(governance, fe); err != nil {
		t.Fatalf("SetEscrow failed: %v", err)
	}
	if err := r.SetEscrow(governance, fe); !engine.IsReason(err, engine.ReasonAlreadySet) {
		t.Errorf("second SetEscrow err = %v, want AlreadySet", err)
	}
}

func TestCreateRequiresEscrow(t *testing.T) {
	l := engine.NewLedger(10)
	r := New(engine.NamedAddress("test/registry"), governance, l, vehicle.Config{})

	_, err := r.CreateVehicle(ownerA, 100, big.NewInt(1000), big.NewInt(500),
		big.NewInt(2000), nil, nil, nil, "beaker")
	if !engine.IsReason(err, engine.ReasonInvalidParameters) {
		t.Errorf("err = %v, want InvalidParameters before escrow is set", err)
	}
}

func TestCreateVehicleValidation(t *testing.T) {
	r, _ := newTestRegistry(t)

	// 批次数组长度不一致
	_, err := r.CreateVehicle(ownerA, 100, big.NewInt(1000), big.NewInt(500),
		big.NewInt(2000), []common.Address{target}, nil, nil, "beaker")
	if !engine.IsReason(err, engine.ReasonMalformedBatch) {
		t.Errorf("mismatched batch err = %v, want MalformedBatch", err)
	}

	// 名称超长
	_, err = r.CreateVehicle(ownerA, 100, big.NewInt(1000), big.NewInt(500),
		big.NewInt(2000), nil, nil, nil, "a-name-that-certainly-exceeds-thirty-two-bytes")
	if !engine.IsReason(err, engine.ReasonInvalidParameters) {
		t.Errorf("long name err = %v, want InvalidParameters", err)
	}

	// 经济约束由载体校验
	_, err = r.CreateVehicle(ownerA, 100, big.NewInt(1000), big.NewInt(1001),
		big.NewInt(2000), nil, nil, nil, "beaker")
	if !engine.IsReason(err, engine.ReasonInvalidParameters) {
		t.Errorf("floor above goal err = %v, want InvalidParameters", err)
	}

	// 失败的创建不占用盐
	if got := r.AccountVehicles(ownerA); got != 0 {
		t.Errorf("account nonce = %d, want 0 after failed creates", got)
	}
}

func TestCreateVehicleEmitsEvent(t *testing.T) {
	r, l := newTestRegistry(t)
	ch := l.Subscribe(4)

	v := createVehicle(t, r, ownerA, 1000)
	select {
	case e := <-ch:
		if e.Name != engine.EventVehicleCreated {
			t.Errorf("event = %s, want %s", e.Name, engine.EventVehicleCreated)
		}
		if e.Address != v.Address() {
			t.Errorf("event address = %s, want %s", e.Address.Hex(), v.Address().Hex())
		}
		if e.Attrs["owner"] != ownerA.Hex() {
			t.Errorf("event owner = %s, want %s", e.Attrs["owner"], ownerA.Hex())
		}
	default:
		t.Fatal("VehicleCreated event not delivered")
	}
}
