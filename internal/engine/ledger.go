package engine

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Callee 注册在某个地址上的可调用能力。
// 台账不理解input的含义，只负责转移附带价值并转发调用。
type Callee interface {
	Call(tx *Tx, caller common.Address, input []byte, value *big.Int) ([]byte, error)
}

// CalleeFunc 函数形式的Callee
type CalleeFunc func(tx *Tx, caller common.Address, input []byte, value *big.Int) ([]byte, error)

func (f CalleeFunc) Call(tx *Tx, caller common.Address, input []byte, value *big.Int) ([]byte, error) {
	return f(tx, caller, input, value)
}

// Ledger 单一共享台账：账户余额、区块高度、被调用方注册表。
// 所有变更操作通过Apply串行执行，要么全部生效要么全部回滚。
type Ledger struct {
	mu       sync.RWMutex
	height   uint64
	balances map[common.Address]*big.Int
	callees  map[common.Address]Callee
	subs     []chan Event
}

// NewLedger 创建台账
func NewLedger(startHeight uint64) *Ledger {
	return &Ledger{
		height:   startHeight,
		balances: make(map[common.Address]*big.Int),
		callees:  make(map[common.Address]Callee),
	}
}

// Height 当前台账高度
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.height
}

// AdvanceBlock 推进台账高度
func (l *Ledger) AdvanceBlock(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height += n
	return l.height
}

// BalanceOf 查询账户余额（返回副本）
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// RegisterCallee 在地址上注册可调用能力
func (l *Ledger) RegisterCallee(addr common.Address, c Callee) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callees[addr] = c
}

// Subscribe 订阅提交后的台账事件
func (l *Ledger) Subscribe(buf int) <-chan Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan Event, buf)
	l.subs = append(l.subs, ch)
	return ch
}

// Apply 以独占事务执行fn。fn返回错误时，事务内的所有变更
// 按逆序回滚且不发布任何事件；成功时事件在提交后发布。
func (l *Ledger) Apply(fn func(tx *Tx) error) error {
	l.mu.Lock()
	tx := &Tx{ledger: l}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		l.mu.Unlock()
		return err
	}
	events := tx.events
	l.mu.Unlock()

	for _, e := range events {
		l.publish(e)
	}
	return nil
}

// View 在读锁内执行fn，保证多字段读取的一致性。
// fn收到锁内一致的台账高度，回调中不得再调用台账方法。
func (l *Ledger) View(fn func(height uint64)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.height)
}

// publish 向所有订阅者投递事件，订阅者缓冲满时丢弃
func (l *Ledger) publish(e Event) {
	l.mu.RLock()
	subs := l.subs
	l.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Tx 一次台账事务。余额与外部状态的每个变更都登记撤销动作，
// 事务失败时逆序执行。
type Tx struct {
	ledger *Ledger
	undo   []func()
	events []Event
}

// Height 事务可见的台账高度
func (tx *Tx) Height() uint64 {
	return tx.ledger.height
}

// BalanceOf 事务内查询余额（返回副本）
func (tx *Tx) BalanceOf(addr common.Address) *big.Int {
	if b, ok := tx.ledger.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// OnRevert 登记事务回滚时需要执行的撤销动作
func (tx *Tx) OnRevert(fn func()) {
	tx.undo = append(tx.undo, fn)
}

// Emit 在事务内记录事件，提交后才对订阅者可见
func (tx *Tx) Emit(addr common.Address, name string, attrs map[string]string) {
	tx.events = append(tx.events, Event{
		Address:  addr,
		Name:     name,
		BlockNum: tx.ledger.height,
		Attrs:    attrs,
	})
}

// Mint 凭空铸造余额（仅限水龙头/创世注资）
func (tx *Tx) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return Errf(ReasonInvalidParameters, "注资金额非法")
	}
	tx.setBalance(to, new(big.Int).Add(tx.BalanceOf(to), amount))
	return nil
}

// Transfer 在账户间转移价值，余额不足则失败
func (tx *Tx) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return Errf(ReasonInvalidParameters, "转账金额非法")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBal := tx.BalanceOf(from)
	if fromBal.Cmp(amount) < 0 {
		return Errf(ReasonInsufficientBalance, "账户 %s 余额不足: 持有 %s, 需要 %s",
			from.Hex(), fromBal.String(), amount.String())
	}
	tx.setBalance(from, fromBal.Sub(fromBal, amount))
	tx.setBalance(to, new(big.Int).Add(tx.BalanceOf(to), amount))
	return nil
}

// Call 向目标地址发起一次调用：先转移附带价值，再转发给
// 注册的Callee。目标未注册能力时等同于纯转账。
func (tx *Tx) Call(caller, target common.Address, input []byte, value *big.Int) ([]byte, error) {
	if value != nil && value.Sign() > 0 {
		if err := tx.Transfer(caller, target, value); err != nil {
			return nil, err
		}
	}
	callee, ok := tx.ledger.callees[target]
	if !ok {
		return nil, nil
	}
	if value == nil {
		value = new(big.Int)
	}
	return callee.Call(tx, caller, input, value)
}

// setBalance 写入余额并登记撤销动作
func (tx *Tx) setBalance(addr common.Address, amount *big.Int) {
	prev, had := tx.ledger.balances[addr]
	tx.OnRevert(func() {
		if had {
			tx.ledger.balances[addr] = prev
		} else {
			delete(tx.ledger.balances, addr)
		}
	})
	tx.ledger.balances[addr] = amount
}

// NamedAddress 由名称派生确定性地址，用于注册表等系统账户
func NamedAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name))[12:])
}
