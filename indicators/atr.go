package indicators

import (
	"fmt"
	"math"
)

// ATR is a streaming Average True Range. The first value is the mean of
// period true ranges, later values use Wilder smoothing.
type ATR struct {
	period    int
	count     int
	warmupSum float64
	atr       float64
	prevClose float64
	hasPrev   bool
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Warmup is period+1 bars: the first bar only supplies a previous close.
func (a *ATR) Warmup() int { return a.period + 1 }

func (a *ATR) Reset() {
	*a = ATR{period: a.period}
}

// Update consumes one bar's high, low and close.
func (a *ATR) Update(high, low, last float64) {
	if !a.hasPrev {
		a.prevClose = last
		a.hasPrev = true
		return
	}
	tr := TrueRange(high, low, a.prevClose)
	a.prevClose = last
	if a.period <= 0 {
		return
	}

	a.count++
	switch {
	case a.count < a.period:
		a.warmupSum += tr
	case a.count == a.period:
		a.warmupSum += tr
		a.atr = a.warmupSum / float64(a.period)
	default:
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}
}

func (a *ATR) Ready() bool { return a.period > 0 && a.count >= a.period }

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// TrueRange is the largest of high-low, |high-prevClose| and |low-prevClose|.
func TrueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
