package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  `Display the current version of the backtest CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtest version %s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "Single-position crypto backtesting engine")
		},
	}
}
