package batch

import (
	"fmt"
	"math/big"

	"github.com/blues/exposure/internal/engine"
	"github.com/ethereum/go-ethereum/common"
)

// Step 一步外部调用：目标地址、编码后的调用数据、附带价值
type Step struct {
	Target common.Address
	Input  []byte
	Value  *big.Int
}

// Batch 有序、不可变的调用批次。载体finalize时原子执行，
// 批次本身只校验形状，不理解各步调用的语义。
type Batch struct {
	steps []Step
}

// New 由三个等长序列构造批次，长度不一致返回MalformedBatch
func New(targets []common.Address, inputs [][]byte, values []*big.Int) (*Batch, error) {
	if len(targets) != len(inputs) || len(targets) != len(values) {
		return nil, engine.Errf(engine.ReasonMalformedBatch,
			"批次数组长度不一致: targets=%d inputs=%d values=%d",
			len(targets), len(inputs), len(values))
	}
	steps := make([]Step, len(targets))
	for i := range targets {
		v := values[i]
		if v == nil {
			v = new(big.Int)
		}
		if v.Sign() < 0 {
			return nil, engine.Errf(engine.ReasonMalformedBatch, "第%d步附带价值为负", i)
		}
		input := make([]byte, len(inputs[i]))
		copy(input, inputs[i])
		steps[i] = Step{
			Target: targets[i],
			Input:  input,
			Value:  new(big.Int).Set(v),
		}
	}
	return &Batch{steps: steps}, nil
}

// Len 批次步数
func (b *Batch) Len() int {
	return len(b.steps)
}

// Steps 返回各步的副本
func (b *Batch) Steps() []Step {
	out := make([]Step, len(b.steps))
	for i, s := range b.steps {
		input := make([]byte, len(s.Input))
		copy(input, s.Input)
		out[i] = Step{Target: s.Target, Input: input, Value: new(big.Int).Set(s.Value)}
	}
	return out
}

// TotalValue 各步附带价值之和
func (b *Batch) TotalValue() *big.Int {
	total := new(big.Int)
	for _, s := range b.steps {
		total.Add(total, s.Value)
	}
	return total
}

// Execute 以from为调用方按序执行每一步，第一步失败即整体中止。
// 原子性由外层事务的回滚保证，这里只负责顺序与传播失败。
func (b *Batch) Execute(tx *engine.Tx, from common.Address) error {
	for i, s := range b.steps {
		if _, err := tx.Call(from, s.Target, s.Input, s.Value); err != nil {
			return fmt.Errorf("批次第%d步执行失败: %w", i, err)
		}
	}
	return nil
}
