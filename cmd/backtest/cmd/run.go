package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/journal"
	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/risk"
	"github.com/rustyeddy/cryptobot/strategies"
)

type runOptions struct {
	dataPath   string
	configPath string

	strategy    string
	short, long int
	balance     float64
	risk        float64
	maxPosition float64

	journalType string
	dbPath      string
	dir         string
	dsn         string

	orgPath  string
	jsonPath string

	sampleFlat bool
	closeEnd   bool
}

func newRunCmd() *cobra.Command {
	var o runOptions

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a CSV bar file",
		Long: `Run replays bars from a CSV file (timestamp,open,high,low,close[,volume])
through the selected strategy.

Settings come from the defaults, then --config, then the environment
(RISK_PER_TRADE, MAX_POSITION_SIZE, INITIAL_BALANCE, LOG_LEVEL, DATABASE_URL),
then any flag given on the command line.

Supported strategies:
  - noop:      never trades (baseline)
  - ma-cross:  simple moving average crossover
  - ema-cross: exponential moving average crossover with ATR stops

Example:
  backtest run --data data/BTC_USDT_1h.csv --strategy ma-cross --short 10 --long 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, o)
		},
	}

	f := runCmd.Flags()
	f.StringVar(&o.dataPath, "data", "", "path to OHLCV CSV (required)")
	f.StringVarP(&o.configPath, "config", "c", "", "YAML or JSON config file")
	f.StringVarP(&o.strategy, "strategy", "s", "", "strategy name (noop, ma-cross, ema-cross)")
	f.IntVar(&o.short, "short", 0, "short (fast) average period")
	f.IntVar(&o.long, "long", 0, "long (slow) average period")
	f.Float64VarP(&o.balance, "balance", "b", 0, "initial balance")
	f.Float64Var(&o.risk, "risk", 0, "risk per trade (0.02 = 2%)")
	f.Float64Var(&o.maxPosition, "max-position", 0, "max position notional as a fraction of balance")
	f.StringVar(&o.journalType, "journal", "", "journal backend (none, csv, sqlite, postgres)")
	f.StringVar(&o.dbPath, "db", "", "sqlite journal path")
	f.StringVar(&o.dir, "dir", "", "csv journal directory")
	f.StringVar(&o.dsn, "dsn", "", "postgres journal DSN")
	f.StringVar(&o.orgPath, "org", "", "write an Org-mode report to this path")
	f.StringVar(&o.jsonPath, "json", "", "write the full result as JSON to this path")
	f.BoolVar(&o.sampleFlat, "sample-flat", false, "sample equity on every bar, not only while a position is open")
	f.BoolVar(&o.closeEnd, "close-end", false, "close a trailing position at the last bar's close")
	_ = runCmd.MarkFlagRequired("data")

	return runCmd
}

// resolveConfig layers defaults, the config file, the environment and
// explicitly set flags.
func resolveConfig(cmd *cobra.Command, o runOptions) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("strategy", func() { cfg.Strategy.Name = o.strategy })
	set("short", func() { cfg.Strategy.ShortPeriod = o.short })
	set("long", func() { cfg.Strategy.LongPeriod = o.long })
	set("balance", func() { cfg.Account.Balance = o.balance })
	set("risk", func() { cfg.Risk.RiskPerTrade = o.risk })
	set("max-position", func() { cfg.Risk.MaxPositionSize = o.maxPosition })
	set("journal", func() { cfg.Journal.Type = o.journalType })
	set("db", func() { cfg.Journal.DBPath = o.dbPath })
	set("dir", func() { cfg.Journal.Dir = o.dir })
	set("dsn", func() { cfg.Journal.DSN = o.dsn })
	set("sample-flat", func() { cfg.Backtest.SampleEquityWhenFlat = o.sampleFlat })
	set("close-end", func() { cfg.Backtest.CloseAtEnd = o.closeEnd })
	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBacktest(cmd *cobra.Command, o runOptions) error {
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		return err
	}
	logPath, _ := cmd.Flags().GetString("log-file")
	logFile, err := openLogFile(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	var logger zerolog.Logger
	if logFile != nil {
		defer logFile.Close()
		logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, logFile)
	} else {
		logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, nil)
	}

	bars, err := market.LoadCSV(o.dataPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if err := market.ValidateSeries(bars); err != nil {
		return fmt.Errorf("%s: %w", o.dataPath, err)
	}
	logger.Info().Str("data", o.dataPath).Int("bars", len(bars)).Msg("bars loaded")

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.Strategy.Params())
	if err != nil {
		return err
	}
	sizer, err := risk.NewManager(cfg.Risk.RiskPerTrade, cfg.Risk.MaxPositionSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := backtest.NewEngine(backtest.Config{
		InitialBalance:       decimal.NewFromFloat(cfg.Account.Balance),
		SampleEquityWhenFlat: cfg.Backtest.SampleEquityWhenFlat,
		CloseAtEnd:           cfg.Backtest.CloseAtEnd,
	}, strat, sizer, backtest.WithLogger(logger))

	res, runErr := engine.Run(ctx, bars)
	backtest.PrintResult(cmd.OutOrStdout(), res)
	if runErr != nil {
		// the partial result above is still worth keeping on disk
		logger.Error().Err(runErr).Msg("backtest stopped early")
	}

	params, _ := json.Marshal(cfg.Strategy)
	meta := backtest.Meta{
		Strategy:       cfg.Strategy.Name,
		Instrument:     cfg.Instrument,
		Dataset:        filepath.Base(o.dataPath),
		Config:         params,
		RiskPct:        cfg.Risk.RiskPerTrade,
		MaxPositionPct: cfg.Risk.MaxPositionSize,
		OrgPath:        o.orgPath,
	}
	if runErr != nil {
		meta.Notes = append(meta.Notes, "run stopped early: "+runErr.Error())
	}

	if err := writeOutputs(ctx, cfg, o, res, meta, logger); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func writeOutputs(ctx context.Context, cfg *config.Config, o runOptions, res backtest.Result, meta backtest.Meta, logger zerolog.Logger) error {
	if o.jsonPath != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := os.WriteFile(o.jsonPath, data, 0644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		logger.Info().Str("path", o.jsonPath).Msg("result written")
	}

	if o.orgPath != "" {
		run := backtest.Summarize(res, meta)
		if err := journal.WriteOrgFile(run, backtest.JournalTrades(res)); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		logger.Info().Str("path", o.orgPath).Msg("org report written")
	}

	j, err := openJournal(ctx, cfg.Journal, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return nil
	}
	if err := backtest.Persist(j, res, meta); err != nil {
		_ = j.Close()
		return err
	}
	logger.Info().Str("journal", cfg.Journal.Type).Str("run_id", res.RunID).Msg("run journaled")
	return j.Close()
}

// openJournal returns nil when journaling is disabled.
func openJournal(ctx context.Context, jc config.JournalConfig, logger zerolog.Logger) (journal.Journal, error) {
	opt := journal.WithLogger(logger)
	switch jc.Type {
	case config.JournalCSV:
		return journal.NewCSV(jc.Dir, opt)
	case config.JournalSQLite:
		return journal.NewSQLite(jc.DBPath, opt)
	case config.JournalPostgres:
		return journal.NewPostgres(ctx, jc.DSN, opt)
	case "", config.JournalNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", jc.Type)
}
