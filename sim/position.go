package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cryptobot/strategies"
)

// Side of an open position.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// SideOf maps a BUY/SELL action to a position side.
func SideOf(a strategies.Action) (Side, error) {
	switch a {
	case strategies.Buy:
		return Long, nil
	case strategies.Sell:
		return Short, nil
	}
	return "", fmt.Errorf("no position side for action %q", a)
}

// sign is +1 for long, -1 for short.
func (s Side) sign() int64 {
	if s == Short {
		return -1
	}
	return 1
}

// State is the ledger's position state: either Flat or OpenPosition.
// Switch on it with a type switch; no other implementations exist.
type State interface {
	isState()
}

// Flat means no position is open.
type Flat struct{}

func (Flat) isState() {}

// OpenPosition is the single position a ledger can hold.
type OpenPosition struct {
	Side       Side      `json:"side"`
	Entry      float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit *float64  `json:"take_profit,omitempty"`
	OpenTime   time.Time `json:"open_time"`
}

func (OpenPosition) isState() {}
