package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/cryptobot/strategies"
)

// Journal backends.
const (
	JournalNone     = "none"
	JournalCSV      = "csv"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
)

// Config represents the complete backtest configuration
type Config struct {
	Account    AccountConfig  `json:"account" yaml:"account"`
	Instrument string         `json:"instrument" yaml:"instrument"`
	Risk       RiskConfig     `json:"risk" yaml:"risk"`
	Strategy   StrategyConfig `json:"strategy" yaml:"strategy"`
	Backtest   BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal    JournalConfig  `json:"journal" yaml:"journal"`
	Log        LogConfig      `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// RiskConfig sizes positions: RiskPerTrade of the balance is lost when the
// stop is hit, and the notional never exceeds MaxPositionSize of the balance.
type RiskConfig struct {
	RiskPerTrade    float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	MaxPositionSize float64 `json:"max_position_size" yaml:"max_position_size"`
}

// StrategyConfig selects a registered strategy and its parameters
type StrategyConfig struct {
	Name        string `json:"name" yaml:"name"`
	ShortPeriod int    `json:"short_period" yaml:"short_period"`
	LongPeriod  int    `json:"long_period" yaml:"long_period"`
}

func (s StrategyConfig) Params() strategies.Params {
	return strategies.Params{ShortPeriod: s.ShortPeriod, LongPeriod: s.LongPeriod}
}

// BacktestConfig contains simulation switches
type BacktestConfig struct {
	SampleEquityWhenFlat bool `json:"sample_equity_when_flat" yaml:"sample_equity_when_flat"`
	CloseAtEnd           bool `json:"close_at_end" yaml:"close_at_end"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // none, csv, sqlite or postgres
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a file (YAML, or JSON as a fallback)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Instrument == "" {
		return fmt.Errorf("instrument is required")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 1 {
		return fmt.Errorf("risk.risk_per_trade must be between 0 and 1")
	}
	if c.Risk.MaxPositionSize < 0 {
		return fmt.Errorf("risk.max_position_size must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if _, err := strategies.ByName(c.Strategy.Name, c.Strategy.Params()); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	switch c.Journal.Type {
	case "", JournalNone:
	case JournalCSV:
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case JournalSQLite:
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case JournalPostgres:
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be one of none, csv, sqlite, postgres")
	}
	return nil
}

// ApplyEnv overrides settings from RISK_PER_TRADE, MAX_POSITION_SIZE,
// INITIAL_BALANCE, LOG_LEVEL and DATABASE_URL. DATABASE_URL only supplies the
// postgres DSN; the journal type comes from the config file or flags.
func (c *Config) ApplyEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"RISK_PER_TRADE", &c.Risk.RiskPerTrade},
		{"MAX_POSITION_SIZE", &c.Risk.MaxPositionSize},
		{"INITIAL_BALANCE", &c.Account.Balance},
	}
	for _, f := range floats {
		v, ok := os.LookupEnv(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", f.key, err)
		}
		*f.dst = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Journal.DSN = v
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "BT-001",
			Currency: "USDT",
			Balance:  10000,
		},
		Instrument: "BTC/USDT",
		Risk: RiskConfig{
			RiskPerTrade:    0.02,
			MaxPositionSize: 0.1,
		},
		Strategy: StrategyConfig{
			Name:        "ma-cross",
			ShortPeriod: 10,
			LongPeriod:  20,
		},
		Journal: JournalConfig{
			Type: JournalNone,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
