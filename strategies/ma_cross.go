package strategies

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/indicators"
	"github.com/rustyeddy/cryptobot/market"
)

const (
	DefaultShortPeriod = 10
	DefaultLongPeriod  = 20
)

// MACross goes long while the short SMA is above the long SMA and short while
// it is below. Stops sit 5% beyond the extreme close of the short window and
// targets at twice the stop distance.
//
// The strategy signals on every bar where the averages differ; the engine
// ignores entries while a position is open.
type MACross struct {
	ShortPeriod int
	LongPeriod  int

	short  *indicators.SimpleMA
	long   *indicators.SimpleMA
	closes *indicators.Window
}

// NewMACross returns an MACross strategy; zero periods take the defaults.
func NewMACross(short, long int) (*MACross, error) {
	if short == 0 {
		short = DefaultShortPeriod
	}
	if long == 0 {
		long = DefaultLongPeriod
	}
	if short < 0 || long < 0 || short >= long {
		return nil, fmt.Errorf("ma-cross: need 0 < short (%d) < long (%d)", short, long)
	}

	return &MACross{
		ShortPeriod: short,
		LongPeriod:  long,
		short:       indicators.NewMA(short),
		long:        indicators.NewMA(long),
		closes:      indicators.NewWindow(long * 2),
	}, nil
}

func (s *MACross) Update(bar market.Bar) error {
	s.short.Update(bar.Close)
	s.long.Update(bar.Close)
	s.closes.Push(bar.Close)
	return nil
}

func (s *MACross) GenerateSignal(bar market.Bar) Signal {
	if !s.long.Ready() {
		return HoldSignal()
	}

	shortMA := s.short.Value()
	longMA := s.long.Value()
	recent := s.closes.Last(s.ShortPeriod)
	price := recent[len(recent)-1]

	meta := map[string]any{
		"short_ma": shortMA,
		"long_ma":  longMA,
	}

	switch {
	case shortMA > longMA:
		stop := indicators.Min(recent) * 0.95
		return Signal{
			Action:     Buy,
			Entry:      price,
			StopLoss:   stop,
			TakeProfit: Target(price + (price-stop)*2),
			Metadata:   meta,
		}
	case shortMA < longMA:
		stop := indicators.Max(recent) * 1.05
		sig := Signal{
			Action:   Sell,
			Entry:    price,
			StopLoss: stop,
			Metadata: meta,
		}
		// a wide stop can push the mirrored target below zero
		if tp := price - (stop-price)*2; tp > 0 {
			sig.TakeProfit = Target(tp)
		}
		return sig
	}
	return HoldSignal()
}

// Reset drops all accumulated history.
func (s *MACross) Reset() {
	s.short.Reset()
	s.long.Reset()
	s.closes.Reset()
}
