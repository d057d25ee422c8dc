// Package backtest replays a bar series through a strategy and a sizer,
// driving a single-position ledger and collecting equity and balance traces.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/pkg/id"
	"github.com/rustyeddy/cryptobot/risk"
	"github.com/rustyeddy/cryptobot/sim"
	"github.com/rustyeddy/cryptobot/strategies"
)

var (
	// ErrContractViolation wraps a collaborator output that breaks the
	// engine's rules: an invalid signal or an invalid position size.
	ErrContractViolation = errors.New("backtest: contract violation")

	// ErrDataIntegrity wraps a malformed or out-of-order bar.
	ErrDataIntegrity = errors.New("backtest: data integrity")
)

// Config holds the run settings. It is resolved before NewEngine and is
// never read from the environment during a run.
type Config struct {
	InitialBalance decimal.Decimal

	// SampleEquityWhenFlat appends the balance to the equity curve on bars
	// with no open position, so equity and balance curves line up by index.
	// By default equity is sampled only while a position is open.
	SampleEquityWhenFlat bool

	// CloseAtEnd closes a trailing position at the last bar's close with
	// reason END. The close counts as part of the last bar.
	CloseAtEnd bool
}

type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l.With().Str("component", "backtest").Logger()
	}
}

// WithRunID fixes the run ID instead of generating one per Run.
func WithRunID(runID string) Option {
	return func(e *Engine) { e.runID = runID }
}

// Engine runs backtests. Each call to Run starts from a fresh ledger; the
// strategy is shared, so reset it between runs if it carries state.
type Engine struct {
	cfg   Config
	strat strategies.Strategy
	sizer risk.Sizer
	log   zerolog.Logger
	runID string
}

func NewEngine(cfg Config, strat strategies.Strategy, sizer risk.Sizer, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		strat: strat,
		sizer: sizer,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the mutable state of one Run call.
type run struct {
	id      string
	ledger  *sim.Ledger
	equity  []float64
	balance []float64
	bars    int
	start   time.Time
	end     time.Time
	last    market.Bar
}

// Run replays bars in order. On error it returns the result as of the last
// fully processed bar together with the error. Cancelling ctx stops the run
// between bars with ctx.Err().
func (e *Engine) Run(ctx context.Context, bars []market.Bar) (Result, error) {
	if e.strat == nil {
		return Result{}, fmt.Errorf("backtest: strategy is required")
	}
	if e.sizer == nil {
		return Result{}, fmt.Errorf("backtest: sizer is required")
	}
	if !e.cfg.InitialBalance.IsPositive() {
		return Result{}, fmt.Errorf("backtest: initial balance must be positive, got %s", e.cfg.InitialBalance)
	}

	r := &run{
		id:      e.runID,
		ledger:  sim.NewLedger(e.cfg.InitialBalance),
		equity:  make([]float64, 0, len(bars)),
		balance: make([]float64, 0, len(bars)),
	}
	if r.id == "" {
		r.id = id.New()
	}
	log := e.log.With().Str("run_id", r.id).Logger()

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("bar", i).Msg("run cancelled")
			return e.result(r), err
		}
		if err := e.step(r, i, bar, log); err != nil {
			log.Error().Err(err).Int("bar", i).Msg("run aborted")
			return e.result(r), err
		}
	}

	if e.cfg.CloseAtEnd && r.ledger.IsOpen() {
		rec, err := r.ledger.Close(r.last.Close, r.last.Time, sim.ReasonEnd)
		if err != nil {
			return e.result(r), fmt.Errorf("%w: %w", ErrContractViolation, err)
		}
		r.balance[len(r.balance)-1] = r.ledger.Balance().InexactFloat64()
		logTrade(log, rec)
	}

	res := e.result(r)
	log.Info().
		Int("bars", res.Bars).
		Int("trades", res.TotalTrades).
		Str("final_balance", res.FinalBalance.String()).
		Float64("total_return", res.TotalReturn).
		Float64("sharpe", res.SharpeRatio).
		Float64("max_drawdown", res.MaxDrawdown).
		Msg("run complete")
	return res, nil
}

// step processes one bar. Every check that can fail runs before the ledger
// is touched, so a failed bar leaves no trace in the result.
func (e *Engine) step(r *run, i int, bar market.Bar, log zerolog.Logger) error {
	if err := bar.Validate(); err != nil {
		return fmt.Errorf("%w: bar %d: %w", ErrDataIntegrity, i, err)
	}
	if r.bars > 0 {
		if err := market.CheckOrder(r.last, bar); err != nil {
			return fmt.Errorf("%w: bar %d: %w", ErrDataIntegrity, i, err)
		}
	}

	if err := e.strat.Update(bar); err != nil {
		return err
	}
	sig := e.strat.GenerateSignal(bar)
	if sig.Action != strategies.Hold {
		if err := sig.Validate(); err != nil {
			return fmt.Errorf("%w: bar %d: %w", ErrContractViolation, i, err)
		}
	}

	var size risk.Result
	enter := sig.Action != strategies.Hold && !r.ledger.IsOpen()
	balance := r.ledger.Balance().InexactFloat64()
	if enter {
		var err error
		size, err = e.sizer.Size(balance, sig.Entry, sig.StopLoss)
		if err != nil {
			return err
		}
		if err := size.CheckUnits(); err != nil {
			return fmt.Errorf("%w: bar %d: %w", ErrContractViolation, i, err)
		}
		if size.Units == 0 {
			log.Debug().Time("time", bar.Time).Str("action", string(sig.Action)).Msg("sizer declined trade")
			enter = false
		} else if size.Capped {
			log.Debug().Time("time", bar.Time).Float64("units", size.Units).Msg("position capped")
		}
	}

	if enter {
		rec, err := r.ledger.Open(sig, size.Units, bar.Time)
		if err != nil {
			return fmt.Errorf("%w: bar %d: %w", ErrContractViolation, i, err)
		}
		logTrade(log, rec)
		logPlan(log, sig, size, balance)
	}

	if r.ledger.IsOpen() {
		r.equity = append(r.equity, r.ledger.Equity(bar.Close).InexactFloat64())
		if price, reason, hit := r.ledger.Exit(bar); hit {
			rec, err := r.ledger.Close(price, bar.Time, reason)
			if err != nil {
				return fmt.Errorf("%w: bar %d: %w", ErrContractViolation, i, err)
			}
			logTrade(log, rec)
		}
	} else if e.cfg.SampleEquityWhenFlat {
		r.equity = append(r.equity, r.ledger.Balance().InexactFloat64())
	}
	r.balance = append(r.balance, r.ledger.Balance().InexactFloat64())

	if r.bars == 0 {
		r.start = bar.Time
	}
	r.end = bar.Time
	r.last = bar
	r.bars++
	return nil
}

func logTrade(log zerolog.Logger, rec sim.TradeRecord) {
	ev := log.Debug().
		Str("id", rec.ID).
		Time("time", rec.Time).
		Str("kind", string(rec.Kind)).
		Str("side", string(rec.Side)).
		Float64("price", rec.Price).
		Float64("size", rec.Size)
	if rec.Kind == sim.KindClose {
		ev = ev.Str("pnl", rec.PnL.String()).Str("reason", rec.Reason)
	}
	ev.Msg("trade")
}

// logPlan records the planned risk of a new position at Debug.
func logPlan(log zerolog.Logger, sig strategies.Signal, size risk.Result, balance float64) {
	planned := risk.PlannedRisk(size.Units, sig.Entry, sig.StopLoss)
	ev := log.Debug().
		Float64("planned_risk", planned).
		Float64("risk_pct", risk.RiskPct(planned, balance)).
		Float64("notional", size.Notional)
	if sig.TakeProfit != nil {
		ev = ev.Float64("rr", risk.RR(sig.Entry, sig.StopLoss, *sig.TakeProfit))
	}
	ev.Msg("position plan")
}
