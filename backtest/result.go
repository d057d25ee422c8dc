package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/cryptobot/sim"
	"github.com/rustyeddy/cryptobot/stats"
)

// Result is a snapshot of a finished (or aborted) run. It shares no state
// with the engine and is safe to serialize.
type Result struct {
	RunID string `json:"run_id"`

	Trades       []sim.TradeRecord `json:"trades"`
	EquityCurve  []float64         `json:"equity_curve"`
	BalanceCurve []float64         `json:"balance_curve"`

	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`

	// TotalTrades counts OPEN and CLOSE records alike.
	TotalTrades int `json:"total_trades"`

	InitialBalance decimal.Decimal `json:"initial_balance"`
	FinalBalance   decimal.Decimal `json:"final_balance"`

	Bars  int       `json:"bars"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Open is the trailing position, if any. Its PnL is not in FinalBalance.
	Open          *sim.OpenPosition `json:"open_position,omitempty"`
	UnrealizedPnL decimal.Decimal   `json:"unrealized_pnl"`

	TradeStats stats.TradeStats `json:"trade_stats"`
}

// ClosedPnL returns the realized PnL of every CLOSE record in order.
func (r Result) ClosedPnL() []decimal.Decimal {
	var out []decimal.Decimal
	for _, t := range r.Trades {
		if t.Kind == sim.KindClose {
			out = append(out, t.PnL)
		}
	}
	return out
}

func (e *Engine) result(r *run) Result {
	trades := r.ledger.Trades()
	final := r.ledger.Balance()

	res := Result{
		RunID:          r.id,
		Trades:         trades,
		EquityCurve:    append([]float64(nil), r.equity...),
		BalanceCurve:   append([]float64(nil), r.balance...),
		TotalReturn:    stats.TotalReturn(e.cfg.InitialBalance, final),
		SharpeRatio:    stats.SharpeRatio(stats.Returns(r.equity)),
		MaxDrawdown:    stats.MaxDrawdown(r.equity),
		TotalTrades:    len(trades),
		InitialBalance: e.cfg.InitialBalance,
		FinalBalance:   final,
		Bars:           r.bars,
		Start:          r.start,
		End:            r.end,
		UnrealizedPnL:  decimal.Zero,
	}
	if p, ok := r.ledger.Position(); ok {
		res.Open = &p
		res.UnrealizedPnL = r.ledger.MarkToMarket(r.last.Close)
	}
	res.TradeStats = stats.Trades(res.ClosedPnL())
	return res
}
