package sim

import "github.com/rustyeddy/cryptobot/market"

func stopHit(p OpenPosition, b market.Bar) bool {
	if p.Side == Long {
		return b.Low <= p.StopLoss
	}
	return b.High >= p.StopLoss
}

func takeHit(p OpenPosition, b market.Bar) bool {
	if p.TakeProfit == nil {
		return false
	}
	if p.Side == Long {
		return b.High >= *p.TakeProfit
	}
	return b.Low <= *p.TakeProfit
}

// exitFor models stop/take touches within a bar using its high and low.
// If both are touched on the same bar the stop is assumed to fill first.
func exitFor(p OpenPosition, b market.Bar) (price float64, reason string, hit bool) {
	stop := stopHit(p, b)
	take := takeHit(p, b)

	switch {
	case stop && take:
		return p.StopLoss, ReasonStopAndTake, true
	case stop:
		return p.StopLoss, ReasonStop, true
	case take:
		return *p.TakeProfit, ReasonTake, true
	}
	return 0, "", false
}
