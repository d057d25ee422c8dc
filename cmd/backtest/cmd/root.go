package cmd

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical bars through a trading strategy",
		Long: `Backtest replays an OHLCV price series through a trading strategy and a
risk-based position sizer, holding at most one position at a time.

It provides tools for:
  - Running backtests from CSV bar data
  - Reporting total return, Sharpe ratio and maximum drawdown
  - Journaling runs to CSV, SQLite or PostgreSQL
  - Generating and validating configuration files`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error); defaults to config or LOG_LEVEL")
	root.PersistentFlags().String("log-file", "", "also append JSON logs to this file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger writes human-readable logs to w and, when file is non-nil, JSON
// lines to file. Unknown or empty levels fall back to info.
func newLogger(w io.Writer, level string, file io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var output io.Writer = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stderr}
	if file != nil {
		output = zerolog.MultiLevelWriter(output, file)
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// openLogFile appends to path, creating it if needed. An empty path means no
// log file.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
