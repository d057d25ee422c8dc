package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cryptobot/journal"
)

// Meta describes a run for the journal. None of it affects the simulation.
type Meta struct {
	Strategy       string
	Instrument     string
	Dataset        string
	Config         []byte
	RiskPct        float64
	MaxPositionPct float64
	OrgPath        string
	Notes          []string
}

// Summarize flattens res and meta into a journal row.
func Summarize(res Result, meta Meta) journal.BacktestRun {
	return journal.BacktestRun{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Strategy:       meta.Strategy,
		Instrument:     meta.Instrument,
		Dataset:        meta.Dataset,
		Config:         meta.Config,
		RiskPct:        meta.RiskPct,
		MaxPositionPct: meta.MaxPositionPct,
		Start:          res.Start,
		End:            res.End,
		Bars:           res.Bars,
		Records:        res.TotalTrades,
		Trades:         res.TradeStats.Closed,
		Wins:           res.TradeStats.Wins,
		Losses:         res.TradeStats.Losses,
		StartBalance:   res.InitialBalance,
		EndBalance:     res.FinalBalance,
		NetPL:          res.FinalBalance.Sub(res.InitialBalance),
		UnrealizedPL:   res.UnrealizedPnL,
		ReturnPct:      res.TotalReturn * 100,
		WinRate:        res.TradeStats.WinRate,
		ProfitFactor:   res.TradeStats.ProfitFactor,
		MaxDDPct:       res.MaxDrawdown * 100,
		Sharpe:         res.SharpeRatio,
		OrgPath:        meta.OrgPath,
		Notes:          meta.Notes,
	}
}

// JournalTrades converts the trade log of res to journal records.
func JournalTrades(res Result) []journal.TradeRecord {
	out := make([]journal.TradeRecord, 0, len(res.Trades))
	for _, t := range res.Trades {
		out = append(out, journal.TradeRecord{
			RunID:   res.RunID,
			TradeID: t.ID,
			Time:    t.Time,
			Kind:    string(t.Kind),
			Side:    string(t.Side),
			Price:   t.Price,
			Size:    t.Size,
			PnL:     t.PnL,
			Reason:  t.Reason,
		})
	}
	return out
}

// Persist writes the run summary, every trade record and both curves to j.
// The run row goes first so backends with foreign keys accept the rest.
func Persist(j journal.Journal, res Result, meta Meta) error {
	if err := j.RecordRun(Summarize(res, meta)); err != nil {
		return fmt.Errorf("persist %s: %w", res.RunID, err)
	}
	for _, t := range JournalTrades(res) {
		if err := j.RecordTrade(t); err != nil {
			return fmt.Errorf("persist %s: %w", res.RunID, err)
		}
	}
	if err := j.RecordCurve(res.RunID, journal.CurveEquity, res.EquityCurve); err != nil {
		return fmt.Errorf("persist %s: %w", res.RunID, err)
	}
	if err := j.RecordCurve(res.RunID, journal.CurveBalance, res.BalanceCurve); err != nil {
		return fmt.Errorf("persist %s: %w", res.RunID, err)
	}
	return nil
}
