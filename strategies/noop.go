package strategies

import "github.com/rustyeddy/cryptobot/market"

// NoopStrategy never trades.
type NoopStrategy struct{}

func (NoopStrategy) Update(market.Bar) error { return nil }

func (NoopStrategy) GenerateSignal(market.Bar) Signal { return HoldSignal() }
