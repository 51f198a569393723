package vehicle

import "math/big"

// PriceAt 计算买断价格：从finalize区块起由initial线性衰减，
// 经过horizon个区块降至floor，此后恒为floor。
// 对任意高度满足 floor <= price <= initial，且随高度单调不增。
func PriceAt(initial, floor *big.Int, finalizeBlock, horizon, height uint64) *big.Int {
	if height <= finalizeBlock {
		return new(big.Int).Set(initial)
	}
	elapsed := height - finalizeBlock
	if horizon == 0 || elapsed >= horizon {
		return new(big.Int).Set(floor)
	}

	// price = initial - (initial - floor) * elapsed / horizon
	span := new(big.Int).Sub(initial, floor)
	decay := new(big.Int).Mul(span, new(big.Int).SetUint64(elapsed))
	decay.Div(decay, new(big.Int).SetUint64(horizon))
	return new(big.Int).Sub(initial, decay)
}
