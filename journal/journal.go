// Package journal persists finished backtest runs: the run summary, the
// trade log and the equity and balance curves.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Curve names accepted by RecordCurve.
const (
	CurveEquity  = "equity"
	CurveBalance = "balance"
)

// TradeRecord is one OPEN or CLOSE entry of a run's trade log.
type TradeRecord struct {
	RunID   string
	TradeID string
	Time    time.Time
	Kind    string
	Side    string
	Price   float64
	Size    float64
	PnL     decimal.Decimal
	Reason  string
}

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time

	Strategy   string
	Instrument string
	Dataset    string
	Config     []byte // strategy parameters as JSON

	RiskPct        float64 // 0.02 = 2% of balance per trade
	MaxPositionPct float64 // notional cap as a fraction of balance

	Start time.Time
	End   time.Time
	Bars  int

	// Records counts OPEN and CLOSE entries; Trades counts closed trades.
	Records int
	Trades  int
	Wins    int
	Losses  int

	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	NetPL        decimal.Decimal
	UnrealizedPL decimal.Decimal

	ReturnPct    float64
	WinRate      float64 // fraction of closed trades
	ProfitFactor float64
	MaxDDPct     float64 // non-positive
	Sharpe       float64

	OrgPath string
	Notes   []string
}

// Journal is the write side shared by every backend.
type Journal interface {
	RecordRun(BacktestRun) error
	RecordTrade(TradeRecord) error
	RecordCurve(runID, curve string, values []float64) error
	Close() error
}
