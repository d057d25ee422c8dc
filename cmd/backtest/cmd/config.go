package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  backtest config init -o backtest.yaml
  backtest config validate -f backtest.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  backtest run --config %s --data bars.csv\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "backtest.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account: %s (%.2f %s)\n", cfg.Account.ID, cfg.Account.Balance, cfg.Account.Currency)
			fmt.Fprintf(out, "  Instrument: %s\n", cfg.Instrument)
			fmt.Fprintf(out, "  Strategy: %s (Risk: %.1f%%, Max position: %.1f%%)\n",
				cfg.Strategy.Name, cfg.Risk.RiskPerTrade*100, cfg.Risk.MaxPositionSize*100)
			fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	configCmd.AddCommand(initCmd, validateCmd)
	return configCmd
}
