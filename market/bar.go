package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidBar is returned for bars with non-finite, non-positive or
	// inverted prices.
	ErrInvalidBar = errors.New("invalid bar")

	// ErrOutOfOrder is returned when a series is not strictly increasing in time.
	ErrOutOfOrder = errors.New("bars out of order")
)

// Bar is one OHLCV observation for a fixed interval.
type Bar struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate checks the price invariants of a single bar.
func (b Bar) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	} {
		if !finite(p.v) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidBar, p.name)
		}
		if p.v <= 0 {
			return fmt.Errorf("%w: %s %v must be positive", ErrInvalidBar, p.name, p.v)
		}
	}
	if !finite(b.Volume) || b.Volume < 0 {
		return fmt.Errorf("%w: volume %v", ErrInvalidBar, b.Volume)
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: low %v > high %v", ErrInvalidBar, b.Low, b.High)
	}
	return nil
}

// CheckOrder returns ErrOutOfOrder unless next is strictly after prev.
func CheckOrder(prev, next Bar) error {
	if !next.Time.After(prev.Time) {
		return fmt.Errorf("%w: %s is not after %s", ErrOutOfOrder,
			next.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339))
	}
	return nil
}

// ValidateSeries checks every bar and the ordering of the whole series.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
		if i > 0 {
			if err := CheckOrder(bars[i-1], b); err != nil {
				return fmt.Errorf("bar %d: %w", i, err)
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
