package strategies

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/indicators"
	"github.com/rustyeddy/cryptobot/market"
)

const (
	DefaultFastPeriod = 10
	DefaultSlowPeriod = 30
	DefaultATRPeriod  = 14
	DefaultStopATR    = 2.0
	DefaultRR         = 2.0
)

// EMACross signals only on the bar where the fast EMA crosses the slow EMA.
// The stop sits StopATR average true ranges from the close and the target at
// RR times the stop distance.
type EMACross struct {
	FastPeriod int
	SlowPeriod int
	StopATR    float64
	RR         float64

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA
	atr  *indicators.ATR

	lastDiff     float64
	haveLastDiff bool
	cross        int // +1 bull, -1 bear, 0 none on the latest bar
}

// NewEMACross returns an EMACross strategy; zero periods take the defaults.
func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast == 0 {
		fast = DefaultFastPeriod
	}
	if slow == 0 {
		slow = DefaultSlowPeriod
	}
	if fast < 0 || slow < 0 || fast >= slow {
		return nil, fmt.Errorf("ema-cross: need 0 < fast (%d) < slow (%d)", fast, slow)
	}
	return &EMACross{
		FastPeriod: fast,
		SlowPeriod: slow,
		StopATR:    DefaultStopATR,
		RR:         DefaultRR,
		fast:       indicators.NewEMA(fast),
		slow:       indicators.NewEMA(slow),
		atr:        indicators.NewATR(DefaultATRPeriod),
	}, nil
}

func (s *EMACross) Update(bar market.Bar) error {
	s.fast.Update(bar.Close)
	s.slow.Update(bar.Close)
	s.atr.Update(bar.High, bar.Low, bar.Close)

	s.cross = 0
	if !s.slow.Ready() {
		return nil
	}
	diff := s.fast.Value() - s.slow.Value()
	if s.haveLastDiff {
		switch {
		case diff > 0 && s.lastDiff <= 0:
			s.cross = 1
		case diff < 0 && s.lastDiff >= 0:
			s.cross = -1
		}
	}
	s.lastDiff = diff
	s.haveLastDiff = true
	return nil
}

func (s *EMACross) GenerateSignal(bar market.Bar) Signal {
	if s.cross == 0 || !s.atr.Ready() {
		return HoldSignal()
	}
	dist := s.atr.Value() * s.StopATR
	if dist <= 0 {
		return HoldSignal()
	}

	price := bar.Close
	meta := map[string]any{
		"fast_ema": s.fast.Value(),
		"slow_ema": s.slow.Value(),
		"atr":      s.atr.Value(),
	}
	if s.cross > 0 {
		stop := price - dist
		if stop <= 0 {
			return HoldSignal()
		}
		return Signal{
			Action:     Buy,
			Entry:      price,
			StopLoss:   stop,
			TakeProfit: Target(price + dist*s.RR),
			Metadata:   meta,
		}
	}

	sig := Signal{
		Action:   Sell,
		Entry:    price,
		StopLoss: price + dist,
		Metadata: meta,
	}
	if tp := price - dist*s.RR; tp > 0 {
		sig.TakeProfit = Target(tp)
	}
	return sig
}

// Reset drops all accumulated history.
func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.atr.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
	s.cross = 0
}
