package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells an opening record from a closing one.
type Kind string

const (
	KindOpen  Kind = "OPEN"
	KindClose Kind = "CLOSE"
)

// Close reasons.
const (
	ReasonStop        = "STOP"
	ReasonTake        = "TAKE"
	ReasonStopAndTake = "STOP&TAKE"
	ReasonEnd         = "END"
)

// TradeRecord is one append-only entry of the trade log. PnL is zero for OPEN
// records.
type TradeRecord struct {
	ID     string          `json:"id"`
	Time   time.Time       `json:"timestamp"`
	Kind   Kind            `json:"kind"`
	Side   Side            `json:"side"`
	Price  float64         `json:"price"`
	Size   float64         `json:"size"`
	PnL    decimal.Decimal `json:"pnl"`
	Reason string          `json:"reason,omitempty"`
}
