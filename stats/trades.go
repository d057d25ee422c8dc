package stats

import "github.com/shopspring/decimal"

// TradeStats summarizes realized PnL of closed trades.
type TradeStats struct {
	Closed      int             `json:"closed"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	WinRate     float64         `json:"win_rate"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	GrossLoss   decimal.Decimal `json:"gross_loss"`
	NetPnL      decimal.Decimal `json:"net_pnl"`
	Best        decimal.Decimal `json:"best"`
	Worst       decimal.Decimal `json:"worst"`

	// ProfitFactor is GrossProfit/|GrossLoss|; 0 when there are no losses.
	ProfitFactor float64 `json:"profit_factor"`
}

// Trades rolls up the realized PnL of each closed trade. A zero PnL counts
// as neither a win nor a loss.
func Trades(pnls []decimal.Decimal) TradeStats {
	st := TradeStats{
		Closed:      len(pnls),
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		NetPnL:      decimal.Zero,
		Best:        decimal.Zero,
		Worst:       decimal.Zero,
	}
	for i, p := range pnls {
		st.NetPnL = st.NetPnL.Add(p)
		switch p.Sign() {
		case 1:
			st.Wins++
			st.GrossProfit = st.GrossProfit.Add(p)
		case -1:
			st.Losses++
			st.GrossLoss = st.GrossLoss.Add(p)
		}
		if i == 0 || p.GreaterThan(st.Best) {
			st.Best = p
		}
		if i == 0 || p.LessThan(st.Worst) {
			st.Worst = p
		}
	}

	if st.Closed > 0 {
		st.WinRate = float64(st.Wins) / float64(st.Closed)
	}
	if !st.GrossLoss.IsZero() {
		st.ProfitFactor, _ = st.GrossProfit.Div(st.GrossLoss.Abs()).Float64()
	}
	return st
}
