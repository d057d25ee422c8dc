package backtest

import (
	"fmt"
	"io"
	"time"
)

const rule = "--------------------------------------------------"

// PrintResult writes a plain-text summary of res.
func PrintResult(w io.Writer, res Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", res.RunID)
	fmt.Fprintf(w, "Bars:          %d\n", res.Bars)
	if res.Bars > 0 {
		fmt.Fprintf(w, "Start:         %s\n", res.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", res.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Records:       %d\n", res.TotalTrades)
	fmt.Fprintf(w, "Closed:        %d\n", res.TradeStats.Closed)
	fmt.Fprintf(w, "Wins:          %d\n", res.TradeStats.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", res.TradeStats.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", res.TradeStats.WinRate*100)
	if res.TradeStats.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", res.TradeStats.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Start Balance: %s\n", res.InitialBalance.StringFixed(2))
	fmt.Fprintf(w, "End Balance:   %s\n", res.FinalBalance.StringFixed(2))
	fmt.Fprintf(w, "Net P/L:       %s\n", res.FinalBalance.Sub(res.InitialBalance).StringFixed(2))
	fmt.Fprintf(w, "Return:        %.2f%%\n", res.TotalReturn*100)
	fmt.Fprintf(w, "Sharpe:        %.4f\n", res.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", res.MaxDrawdown*100)

	if res.Open != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Position")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Side:          %s\n", res.Open.Side)
		fmt.Fprintf(w, "Entry:         %.2f\n", res.Open.Entry)
		fmt.Fprintf(w, "Size:          %g\n", res.Open.Size)
		fmt.Fprintf(w, "Stop Loss:     %.2f\n", res.Open.StopLoss)
		if res.Open.TakeProfit != nil {
			fmt.Fprintf(w, "Take Profit:   %.2f\n", *res.Open.TakeProfit)
		}
		fmt.Fprintf(w, "Unrealized:    %s\n", res.UnrealizedPnL.StringFixed(2))
	}

	fmt.Fprintln(w)
}
