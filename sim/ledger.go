package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/pkg/id"
	"github.com/rustyeddy/cryptobot/risk"
	"github.com/rustyeddy/cryptobot/strategies"
)

var (
	// ErrPositionOpen is returned by Open while a position is already open.
	ErrPositionOpen = errors.New("position already open")

	// ErrNoPosition is returned by Close when the ledger is flat.
	ErrNoPosition = errors.New("no open position")

	// ErrInvalidPrice is returned by Close for a non-positive or non-finite
	// exit price.
	ErrInvalidPrice = errors.New("invalid price")
)

// Ledger owns the single position, the running balance and the trade log of
// one backtest run. The balance only changes in Close.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	balance decimal.Decimal
	state   State
	trades  []TradeRecord
	newID   func(time.Time) string
}

// NewLedger returns a flat ledger holding initial.
func NewLedger(initial decimal.Decimal) *Ledger {
	return &Ledger{
		balance: initial,
		state:   Flat{},
		newID:   id.NewAt,
	}
}

func (l *Ledger) Balance() decimal.Decimal { return l.balance }

func (l *Ledger) State() State { return l.state }

// IsOpen reports whether a position is open.
func (l *Ledger) IsOpen() bool {
	_, ok := l.state.(OpenPosition)
	return ok
}

// Position returns the open position, if any.
func (l *Ledger) Position() (OpenPosition, bool) {
	p, ok := l.state.(OpenPosition)
	return p, ok
}

// Trades returns a copy of the trade log.
func (l *Ledger) Trades() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Open records a new position from sig sized at size units. The balance is
// not touched.
func (l *Ledger) Open(sig strategies.Signal, size float64, t time.Time) (TradeRecord, error) {
	if l.IsOpen() {
		return TradeRecord{}, ErrPositionOpen
	}
	if err := sig.Validate(); err != nil {
		return TradeRecord{}, err
	}
	side, err := SideOf(sig.Action)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("%w: %w", strategies.ErrInvalidSignal, err)
	}
	if err := (risk.Result{Units: size}).CheckUnits(); err != nil || size == 0 {
		return TradeRecord{}, fmt.Errorf("%w: open needs a positive size, got %v", risk.ErrInvalidSize, size)
	}

	var tp *float64
	if sig.TakeProfit != nil {
		v := *sig.TakeProfit
		tp = &v
	}
	l.state = OpenPosition{
		Side:       side,
		Entry:      sig.Entry,
		Size:       size,
		StopLoss:   sig.StopLoss,
		TakeProfit: tp,
		OpenTime:   t,
	}

	rec := TradeRecord{
		ID:    l.newID(t),
		Time:  t,
		Kind:  KindOpen,
		Side:  side,
		Price: sig.Entry,
		Size:  size,
		PnL:   decimal.Zero,
	}
	l.trades = append(l.trades, rec)
	return rec, nil
}

// MarkToMarket is the unrealized PnL of the open position at price, zero when
// flat or when price is not finite.
func (l *Ledger) MarkToMarket(price float64) decimal.Decimal {
	switch s := l.state.(type) {
	case OpenPosition:
		return PnL(s.Side, s.Entry, price, s.Size)
	case Flat:
		return decimal.Zero
	}
	return decimal.Zero
}

// Equity is the balance plus unrealized PnL at price.
func (l *Ledger) Equity(price float64) decimal.Decimal {
	return l.balance.Add(l.MarkToMarket(price))
}

// ShouldClose reports whether bar touches the stop-loss or take-profit of
// the open position.
func (l *Ledger) ShouldClose(bar market.Bar) bool {
	_, _, hit := l.Exit(bar)
	return hit
}

// Exit resolves the fill price for a bar that touches a trigger. When both
// the stop and the target are inside the bar's range the stop wins.
func (l *Ledger) Exit(bar market.Bar) (price float64, reason string, hit bool) {
	switch s := l.state.(type) {
	case OpenPosition:
		return exitFor(s, bar)
	case Flat:
		return 0, "", false
	}
	return 0, "", false
}

// Close realizes the open position at price, adds the PnL to the balance and
// returns the CLOSE record.
func (l *Ledger) Close(price float64, t time.Time, reason string) (TradeRecord, error) {
	p, ok := l.state.(OpenPosition)
	if !ok {
		return TradeRecord{}, ErrNoPosition
	}
	if !finite(price) || price <= 0 {
		return TradeRecord{}, fmt.Errorf("%w: close at %v", ErrInvalidPrice, price)
	}

	pnl := PnL(p.Side, p.Entry, price, p.Size)
	l.balance = l.balance.Add(pnl)
	l.state = Flat{}

	rec := TradeRecord{
		ID:     l.newID(t),
		Time:   t,
		Kind:   KindClose,
		Side:   p.Side,
		Price:  price,
		Size:   p.Size,
		PnL:    pnl,
		Reason: reason,
	}
	l.trades = append(l.trades, rec)
	return rec, nil
}
