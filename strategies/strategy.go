package strategies

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rustyeddy/cryptobot/market"
)

// ErrInvalidSignal marks a signal that breaks the entry/stop ordering rules.
var ErrInvalidSignal = errors.New("invalid signal")

// Action is the trading intent carried by a Signal.
type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Signal is what a strategy wants to do on the current bar. Prices are only
// meaningful when Action is not Hold.
type Signal struct {
	Action     Action         `json:"action"`
	Entry      float64        `json:"entry_price,omitempty"`
	StopLoss   float64        `json:"stop_loss,omitempty"`
	TakeProfit *float64       `json:"take_profit,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HoldSignal is the "no action" signal.
func HoldSignal() Signal { return Signal{Action: Hold} }

// Target is a convenience for building the optional take-profit.
func Target(v float64) *float64 { return &v }

// Validate enforces stop < entry for BUY and stop > entry for SELL.
func (s Signal) Validate() error {
	switch s.Action {
	case Hold:
		return nil
	case Buy, Sell:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidSignal, s.Action)
	}

	if !positive(s.Entry) {
		return fmt.Errorf("%w: %s entry %v must be positive and finite", ErrInvalidSignal, s.Action, s.Entry)
	}
	if !positive(s.StopLoss) {
		return fmt.Errorf("%w: %s stop %v must be positive and finite", ErrInvalidSignal, s.Action, s.StopLoss)
	}
	if s.TakeProfit != nil && !positive(*s.TakeProfit) {
		return fmt.Errorf("%w: %s take profit %v must be positive and finite", ErrInvalidSignal, s.Action, *s.TakeProfit)
	}

	if s.Action == Buy && s.StopLoss >= s.Entry {
		return fmt.Errorf("%w: BUY stop %v must be below entry %v", ErrInvalidSignal, s.StopLoss, s.Entry)
	}
	if s.Action == Sell && s.StopLoss <= s.Entry {
		return fmt.Errorf("%w: SELL stop %v must be above entry %v", ErrInvalidSignal, s.StopLoss, s.Entry)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Strategy is the signal source driven by the backtest engine. Update is
// called once per bar before GenerateSignal; a strategy may keep rolling
// history between calls and must be deterministic for a given history.
type Strategy interface {
	Update(bar market.Bar) error
	GenerateSignal(bar market.Bar) Signal
}

// Params carries the tunables understood by the built-in strategies.
type Params struct {
	ShortPeriod int
	LongPeriod  int
}

// Factory builds a fresh strategy instance.
type Factory func(p Params) (Strategy, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a strategy available to ByName. Names are case-insensitive.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(strings.TrimSpace(name))] = f
}

// ByName returns a new strategy instance registered under name.
func ByName(name string, p Params) (Strategy, error) {
	mu.RLock()
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

// Names lists the registered strategy names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	noop := func(Params) (Strategy, error) { return NoopStrategy{}, nil }
	Register("noop", noop)
	Register("none", noop)

	cross := func(p Params) (Strategy, error) { return NewMACross(p.ShortPeriod, p.LongPeriod) }
	Register("ma-cross", cross)
	Register("macross", cross)

	ema := func(p Params) (Strategy, error) { return NewEMACross(p.ShortPeriod, p.LongPeriod) }
	Register("ema-cross", ema)
	Register("emacross", ema)
}
