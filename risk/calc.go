package risk

import "math"

// PlannedRisk is the absolute loss if a position of units is stopped out.
func PlannedRisk(units, entry, stop float64) float64 {
	return math.Abs(units) * math.Abs(entry-stop)
}

// RR is the reward-to-risk multiple of a trade plan, 0 without a stop distance.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

// RiskPct is plannedRisk as a fraction of balance.
func RiskPct(plannedRisk, balance float64) float64 {
	if balance <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / balance
}
