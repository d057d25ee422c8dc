package sim

import (
	"math"

	"github.com/shopspring/decimal"
)

// PnL of a position of size opened at entry and valued at price.
// Long: (price-entry)*size, short: (entry-price)*size. A NaN or infinite
// input has no decimal value and yields zero.
func PnL(side Side, entry, price, size float64) decimal.Decimal {
	if !finite(entry) || !finite(price) || !finite(size) {
		return decimal.Zero
	}
	diff := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(entry))
	return diff.Mul(decimal.NewFromFloat(size)).Mul(decimal.NewFromInt(side.sign()))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
