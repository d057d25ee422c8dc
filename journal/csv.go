package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// File names written by CSVJournal.
const (
	RunsFile   = "runs.csv"
	TradesFile = "trades.csv"
	CurvesFile = "curves.csv"
)

var (
	runsHeader   = []string{"run_id", "created", "strategy", "instrument", "dataset", "start", "end", "bars", "records", "trades", "wins", "losses", "start_balance", "end_balance", "net_pl", "unrealized_pl", "return_pct", "win_rate", "profit_factor", "max_dd_pct", "sharpe"}
	tradesHeader = []string{"run_id", "trade_id", "time", "kind", "side", "price", "size", "pnl", "reason"}
	curvesHeader = []string{"run_id", "curve", "idx", "value"}
)

// CSVJournal writes runs, trades and curves as three CSV files in one
// directory. Existing files are truncated.
type CSVJournal struct {
	files   []*os.File
	runs    *csv.Writer
	trades  *csv.Writer
	curves  *csv.Writer
	options options
}

func NewCSV(dir string, opts ...Option) (*CSVJournal, error) {
	o := buildOptions("journal.csv", opts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSVJournal{options: o}
	writers := make([]*csv.Writer, 0, 3)
	for _, file := range []struct {
		name   string
		header []string
	}{
		{RunsFile, runsHeader},
		{TradesFile, tradesHeader},
		{CurvesFile, curvesHeader},
	} {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		if err := w.Write(file.header); err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		writers = append(writers, w)
	}
	j.runs, j.trades, j.curves = writers[0], writers[1], writers[2]

	o.log.Debug().Str("dir", dir).Msg("csv journal opened")
	return j, nil
}

func (j *CSVJournal) RecordRun(r BacktestRun) error {
	return j.write(j.runs, []string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Strategy,
		r.Instrument,
		r.Dataset,
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		strconv.Itoa(r.Records),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		r.StartBalance.String(),
		r.EndBalance.String(),
		r.NetPL.String(),
		r.UnrealizedPL.String(),
		f(r.ReturnPct),
		f(r.WinRate),
		f(r.ProfitFactor),
		f(r.MaxDDPct),
		f(r.Sharpe),
	})
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Time.UTC().Format(time.RFC3339),
		t.Kind,
		t.Side,
		f(t.Price),
		f(t.Size),
		t.PnL.String(),
		t.Reason,
	})
}

func (j *CSVJournal) RecordCurve(runID, curve string, values []float64) error {
	for i, v := range values {
		if err := j.curves.Write([]string{runID, curve, strconv.Itoa(i), f(v)}); err != nil {
			return err
		}
	}
	j.curves.Flush()
	return j.curves.Error()
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	var errs []error
	for _, w := range []*csv.Writer{j.runs, j.trades, j.curves} {
		w.Flush()
		errs = append(errs, w.Error())
	}
	errs = append(errs, j.closeFiles())
	return errors.Join(errs...)
}

func (j *CSVJournal) closeFiles() error {
	var errs []error
	for _, fh := range j.files {
		errs = append(errs, fh.Close())
	}
	j.files = nil
	return errors.Join(errs...)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
