package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(BacktestOrgTemplate))

// WriteOrg renders run as an Org-mode entry.
func WriteOrg(w io.Writer, run BacktestRun) error {
	return orgTemplate.Execute(w, run)
}

// WriteOrgFile renders run, followed by trades, to run.OrgPath.
func WriteOrgFile(run BacktestRun, trades []TradeRecord) error {
	if run.OrgPath == "" {
		return fmt.Errorf("journal: run %s has no org path", run.RunID)
	}
	buf := new(bytes.Buffer)
	if err := WriteOrg(buf, run); err != nil {
		return err
	}
	if len(trades) > 0 {
		buf.WriteString("\n** Trades\n")
		buf.WriteString(FormatTradesOrg(trades))
		buf.WriteString("\n")
	}
	return os.WriteFile(run.OrgPath, buf.Bytes(), 0o644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}} {{.Instrument}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_BAL:   {{.StartBalance.StringFixed 2}}
:END_BAL:     {{.EndBalance.StringFixed 2}}
:NET_PL:      {{.NetPL.StringFixed 2}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:SHARPE:      {{printf "%.4f" .Sharpe}}
:RECORDS:     {{.Records}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter          | Value |
|--------------------+-------|
| Config             | {{printf "%s" .Config}} |
| Risk per Trade %   | {{printf "%.2f" (mul100 .RiskPct)}} |
| Max Position %     | {{printf "%.2f" (mul100 .MaxPositionPct)}} |

** Performance Summary
- Net P/L:          *{{.NetPL.StringFixed 2}}*
- Unrealized P/L:   *{{.UnrealizedPL.StringFixed 2}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Sharpe:           *{{printf "%.4f" .Sharpe}}*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

// FormatTradeOrg renders one trade record as an Org heading whose facts sit
// in a PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** %s %s @ %.2f (%s)\n", t.Kind, t.Side, t.Price, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SIZE: %g\n", t.Size)
	fmt.Fprintf(&b, ":PRICE: %.5f\n", t.Price)
	if t.Kind == "CLOSE" {
		fmt.Fprintf(&b, ":PNL: %s\n", t.PnL.StringFixed(2))
		fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	}
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple records separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
