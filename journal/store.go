package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by GetRun for an unknown run ID.
var ErrNotFound = errors.New("journal: not found")

type options struct {
	log zerolog.Logger
}

// Option configures a journal backend.
type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(component string, opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With().Str("component", component).Logger()
	return o
}

// store is the database/sql code shared by SQLite and Postgres. rebind
// rewrites ? placeholders for drivers that want another style.
type store struct {
	db     *sql.DB
	rebind func(string) string
	log    zerolog.Logger
}

func (s *store) q(query string) string {
	if s.rebind == nil {
		return query
	}
	return s.rebind(query)
}

func (s *store) RecordRun(r BacktestRun) error {
	_, err := s.db.Exec(s.q(`
		INSERT INTO backtest_runs
		(run_id, created, strategy, instrument, dataset, config, risk_pct, max_position_pct,
		 start_time, end_time, bars, records, trades, wins, losses,
		 start_balance, end_balance, net_pl, unrealized_pl,
		 return_pct, win_rate, profit_factor, max_dd_pct, sharpe, org_path, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.RunID, r.Created.UTC(), r.Strategy, r.Instrument, r.Dataset, string(r.Config), r.RiskPct, r.MaxPositionPct,
		r.Start.UTC(), r.End.UTC(), r.Bars, r.Records, r.Trades, r.Wins, r.Losses,
		r.StartBalance, r.EndBalance, r.NetPL, r.UnrealizedPL,
		r.ReturnPct, r.WinRate, r.ProfitFactor, r.MaxDDPct, r.Sharpe, r.OrgPath, strings.Join(r.Notes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	s.log.Debug().Str("run_id", r.RunID).Msg("run recorded")
	return nil
}

func (s *store) RecordTrade(t TradeRecord) error {
	_, err := s.db.Exec(s.q(`
		INSERT INTO trades
		(trade_id, run_id, time, kind, side, price, size, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.TradeID, t.RunID, t.Time.UTC(), t.Kind, t.Side, t.Price, t.Size, t.PnL, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", t.TradeID, err)
	}
	return nil
}

// RecordCurve writes every sample of one curve in a single transaction.
func (s *store) RecordCurve(runID, curve string, values []float64) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(s.q(`INSERT INTO curves (run_id, curve, idx, value) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range values {
		if _, err = stmt.Exec(runID, curve, i, v); err != nil {
			return fmt.Errorf("record %s curve %s[%d]: %w", runID, curve, i, err)
		}
	}
	return tx.Commit()
}

// GetRun loads one run summary.
func (s *store) GetRun(ctx context.Context, runID string) (BacktestRun, error) {
	var (
		r      BacktestRun
		config string
		notes  string
	)
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT run_id, created, strategy, instrument, dataset, config, risk_pct, max_position_pct,
		       start_time, end_time, bars, records, trades, wins, losses,
		       start_balance, end_balance, net_pl, unrealized_pl,
		       return_pct, win_rate, profit_factor, max_dd_pct, sharpe, org_path, notes
		FROM backtest_runs
		WHERE run_id = ?`), runID)

	err := row.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Instrument, &r.Dataset, &config, &r.RiskPct, &r.MaxPositionPct,
		&r.Start, &r.End, &r.Bars, &r.Records, &r.Trades, &r.Wins, &r.Losses,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.UnrealizedPL,
		&r.ReturnPct, &r.WinRate, &r.ProfitFactor, &r.MaxDDPct, &r.Sharpe, &r.OrgPath, &notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return BacktestRun{}, err
	}
	if config != "" {
		r.Config = []byte(config)
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// ListTrades returns a run's trade log in time order.
func (s *store) ListTrades(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT trade_id, run_id, time, kind, side, price, size, pnl, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY time ASC, trade_id ASC`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.TradeID, &t.RunID, &t.Time, &t.Kind, &t.Side, &t.Price, &t.Size, &t.PnL, &t.Reason); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCurve returns the samples of one curve in index order.
func (s *store) ListCurve(ctx context.Context, runID, curve string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT value FROM curves
		WHERE run_id = ? AND curve = ?
		ORDER BY idx ASC`), runID, curve)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// dollarBind rewrites ? placeholders as $1, $2, ... for lib/pq.
func dollarBind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
