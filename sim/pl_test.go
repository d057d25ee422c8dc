package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPnL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		side     Side
		entry    float64
		price    float64
		size     float64
		expected string
	}{
		{name: "long_profit", side: Long, entry: 100, price: 110, size: 2, expected: "20"},
		{name: "long_loss", side: Long, entry: 10000, price: 9950, size: 0.1, expected: "-5"},
		{name: "short_profit", side: Short, entry: 100, price: 95, size: 3, expected: "15"},
		{name: "short_loss", side: Short, entry: 100, price: 104, size: 1, expected: "-4"},
		{name: "zero_size", side: Long, entry: 100, price: 150, size: 0, expected: "0"},
		{name: "unchanged_price", side: Short, entry: 100, price: 100, size: 5, expected: "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, PnL(tt.side, tt.entry, tt.price, tt.size).String())
		})
	}
}

func TestPnLSymmetry(t *testing.T) {
	t.Parallel()

	for _, price := range []float64{80, 99.5, 100, 100.25, 130} {
		long := PnL(Long, 100, price, 1.5)
		short := PnL(Short, 100, price, 1.5)
		assert.True(t, long.Neg().Equal(short), "price %v: long %s short %s", price, long, short)
	}
}

func TestPnLNonFinite(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.NotPanics(t, func() {
			assert.True(t, PnL(Long, 100, v, 1).IsZero())
			assert.True(t, PnL(Short, v, 100, 1).IsZero())
			assert.True(t, PnL(Long, 100, 101, v).IsZero())
		})
	}
}
