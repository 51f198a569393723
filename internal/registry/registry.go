package registry

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/blues/exposure/internal/batch"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/escrow"
	"github.com/blues/exposure/internal/vehicle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Registry 载体工厂：确定性地部署载体实例，按账户与全局两个
// 维度建立索引，并持有实现模板与手续费托管的引用。
// 进程内单例，启动时构造一次，治理操作之外不可变。
type Registry struct {
	addr       common.Address
	governance common.Address
	ledger     *engine.Ledger
	cfg        vehicle.Config

	mu        sync.RWMutex
	template  common.Address            // 实现模板地址，可轮换，只影响后续部署
	feeEscrow *escrow.FeeEscrow         // 一次性设置
	byID      []*vehicle.Vehicle        // 全局索引，下标即id
	byAddr    map[common.Address]*vehicle.Vehicle
	nonces    map[common.Address]uint64 // 每账户部署计数，用作盐
}

// New 创建注册表
func New(addr, governance common.Address, l *engine.Ledger, cfg vehicle.Config) *Registry {
	return &Registry{
		addr:       addr,
		governance: governance,
		ledger:     l,
		cfg:        cfg,
		byAddr:     make(map[common.Address]*vehicle.Vehicle),
		nonces:     make(map[common.Address]uint64),
	}
}

// Address 注册表地址
func (r *Registry) Address() common.Address { return r.addr }

// Governance 治理账户
func (r *Registry) Governance() common.Address { return r.governance }

// SetImplementation 轮换实现模板，仅治理账户可调用。
// 只影响此后的部署，已部署载体不受影响。
func (r *Registry) SetImplementation(caller, template common.Address) error {
	if caller != r.governance {
		return engine.Errf(engine.ReasonUnauthorized, "只有治理账户可以设置实现模板")
	}
	if template == (common.Address{}) {
		return engine.Errf(engine.ReasonInvalidParameters, "实现模板地址为空")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.template = template
	return nil
}

// SetEscrow 设置手续费托管，一次性字段，重复设置返回AlreadySet
func (r *Registry) SetEscrow(caller common.Address, fe *escrow.FeeEscrow) error {
	if caller != r.governance {
		return engine.Errf(engine.ReasonUnauthorized, "只有治理账户可以设置手续费托管")
	}
	if fe == nil {
		return engine.Errf(engine.ReasonInvalidParameters, "手续费托管为空")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.feeEscrow != nil {
		return engine.Errf(engine.ReasonAlreadySet, "手续费托管已设置为%s", r.feeEscrow.Address().Hex())
	}
	r.feeEscrow = fe
	return nil
}

// Escrow 当前手续费托管引用
func (r *Registry) Escrow() *escrow.FeeEscrow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeEscrow
}

// Implementation 当前实现模板地址
func (r *Registry) Implementation() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.template
}

// ComputeVehicleAddress 纯函数：由(注册表地址, 账户, 每账户盐)
// 计算未来载体的确定性地址。刻意不含批次内容，调用方因此可以
// 在提交创建之前把自己未来的地址写进批次参数里。
func (r *Registry) ComputeVehicleAddress(account common.Address, nonce uint64) common.Address {
	r.mu.RLock()
	template := r.template
	r.mu.RUnlock()
	return computeAddress(r.addr, template, account, nonce)
}

// computeAddress CREATE2风格的地址推导
func computeAddress(registry, template, account common.Address, nonce uint64) common.Address {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	salt := crypto.Keccak256(account.Bytes(), nonceBytes[:])
	h := crypto.Keccak256([]byte{0xff}, registry.Bytes(), salt, template.Bytes())
	return common.BytesToAddress(h[12:])
}

// CreateVehicle 部署一个新载体：校验批次形状与经济约束，按
// (账户, 当前盐)推导地址，初始化实例并登记索引。
// 副作用：一个新的Funding状态载体，账户盐自增。
func (r *Registry) CreateVehicle(
	owner common.Address,
	endBlock uint64,
	goal, floor, initialBuyoutPrice *big.Int,
	targets []common.Address,
	inputs [][]byte,
	values []*big.Int,
	name string,
) (*vehicle.Vehicle, error) {

	b, err := batch.New(targets, inputs, values)
	if err != nil {
		return nil, err
	}
	name32, err := vehicle.FormatName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.feeEscrow == nil {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "手续费托管未设置，注册表未就绪")
	}

	nonce := r.nonces[owner]
	addr := computeAddress(r.addr, r.template, owner, nonce)
	id := int64(len(r.byID))

	v, err := vehicle.New(id, addr, vehicle.Params{
		Owner:              owner,
		Name:               name32,
		EndBlock:           endBlock,
		Goal:               goal,
		Floor:              floor,
		InitialBuyoutPrice: initialBuyoutPrice,
	}, b, r.cfg, r.ledger, r.feeEscrow)
	if err != nil {
		return nil, err
	}

	err = r.ledger.Apply(func(tx *engine.Tx) error {
		tx.Emit(addr, engine.EventVehicleCreated, map[string]string{
			"id":                   big.NewInt(id).String(),
			"owner":                owner.Hex(),
			"name":                 name,
			"goal":                 goal.String(),
			"floor":                floor.String(),
			"end_block":            new(big.Int).SetUint64(endBlock).String(),
			"initial_buyout_price": initialBuyoutPrice.String(),
			"state":                string(vehicle.StatusFunding),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.byID = append(r.byID, v)
	r.byAddr[addr] = v
	r.nonces[owner] = nonce + 1

	return v, nil
}

// VehicleCount 已部署载体总数
func (r *Registry) VehicleCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID))
}

// GetVehicle 按全局id取载体
func (r *Registry) GetVehicle(id int64) (*vehicle.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= int64(len(r.byID)) {
		return nil, engine.Errf(engine.ReasonNotFound, "载体id=%d不存在", id)
	}
	return r.byID[id], nil
}

// GetVehicleByAddress 按地址取载体
func (r *Registry) GetVehicleByAddress(addr common.Address) (*vehicle.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.byAddr[addr]; ok {
		return v, nil
	}
	return nil, engine.Errf(engine.ReasonNotFound, "载体%s不存在", addr.Hex())
}

// AccountVehicles 账户当前的部署计数（下一次部署的盐）
func (r *Registry) AccountVehicles(account common.Address) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nonces[account]
}

// Vehicles 全部载体的快照列表
func (r *Registry) Vehicles() []*vehicle.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*vehicle.Vehicle, len(r.byID))
	copy(out, r.byID)
	return out
}
