package vehicle

import (
	"math/big"
	"testing"
)

func TestPriceAt(t *testing.T) {
	initial := big.NewInt(2000)
	floor := big.NewInt(1000)

	tests := []struct {
		name          string
		finalizeBlock uint64
		horizon       uint64
		height        uint64
		want          int64
	}{
		{"before finalize", 100, 10, 50, 2000},
		{"at finalize block", 100, 10, 100, 2000},
		{"one block in", 100, 10, 101, 1900},
		{"halfway", 100, 10, 105, 1500},
		{"last decaying block", 100, 10, 109, 1100},
		{"horizon reached", 100, 10, 110, 1000},
		{"far past horizon", 100, 10, 10000, 1000},
		{"zero horizon drops to floor", 100, 0, 101, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceAt(initial, floor, tt.finalizeBlock, tt.horizon, tt.height)
			if got.Cmp(big.NewInt(tt.want)) != 0 {
				t.Errorf("PriceAt(h=%d) = %s, want %d", tt.height, got, tt.want)
			}
		})
	}
}

func TestPriceAtMonotoneWithinBounds(t *testing.T) {
	initial := big.NewInt(777777)
	floor := big.NewInt(123)
	const finalizeBlock, horizon = 50, 97

	prev := PriceAt(initial, floor, finalizeBlock, horizon, finalizeBlock)
	for h := uint64(finalizeBlock + 1); h <= finalizeBlock+horizon+10; h++ {
		cur := PriceAt(initial, floor, finalizeBlock, horizon, h)
		if cur.Cmp(prev) > 0 {
			t.Fatalf("price increased at height %d: %s -> %s", h, prev, cur)
		}
		if cur.Cmp(floor) < 0 || cur.Cmp(initial) > 0 {
			t.Fatalf("price %s at height %d outside [floor, initial]", cur, h)
		}
		prev = cur
	}
	if prev.Cmp(floor) != 0 {
		t.Errorf("price after horizon = %s, want floor %s", prev, floor)
	}
}
