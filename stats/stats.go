// Package stats derives summary statistics from a backtest's equity curve
// and trade log. Degenerate inputs yield zero values, never NaN or Inf.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// TradingDaysPerYear annualizes the Sharpe ratio.
const TradingDaysPerYear = 252

const negligibleDev = 1e-12

// TotalReturn is (final-initial)/initial, or 0 when initial is zero.
func TotalReturn(initial, final decimal.Decimal) float64 {
	if initial.IsZero() {
		return 0
	}
	r, _ := final.Sub(initial).Div(initial).Float64()
	return r
}

// Returns is the fractional change between consecutive samples of curve.
// The first sample produces no return. Pairs whose previous value is zero
// have no defined change and are skipped.
func Returns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, curve[i]/prev-1)
	}
	return out
}

// SharpeRatio is sqrt(252) * mean / sample standard deviation, with a zero
// risk-free rate. It is 0 for fewer than two returns, zero volatility or a
// non-finite result. A deviation below 1e-12 of the mean is rounding noise
// from a constant series and counts as zero volatility.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := sampleStdDev(returns, m)
	if !finite(sd) || sd <= negligibleDev*math.Abs(m) {
		return 0
	}
	s := math.Sqrt(TradingDaysPerYear) * m / sd
	if !finite(s) {
		return 0
	}
	return s
}

// MaxDrawdown is the minimum of equity/runningMax - 1 over curve, a
// non-positive fraction. An empty curve, or one that never falls below its
// prior peak, returns 0.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0]
	worst := 0.0
	for _, eq := range curve {
		if eq > peak {
			peak = eq
		}
		if peak <= 0 {
			continue
		}
		if dd := eq/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStdDev uses the n-1 denominator.
func sampleStdDev(vals []float64, m float64) float64 {
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
