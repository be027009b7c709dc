package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/ladder/backtest"
)

// RunRecord summarizes one backtest run.
type RunRecord struct {
	RunID         string
	Created       time.Time
	Symbol        string
	Timeframe     string
	Strategy      string
	Start         time.Time
	End           time.Time
	Bars          int
	InitialEquity float64
	Metrics       map[string]float64
}

// NewRunRecord summarizes res.
func NewRunRecord(res *backtest.Result) RunRecord {
	m := make(map[string]float64, len(res.Metrics))
	for k, v := range res.Metrics {
		m[k] = v
	}
	return RunRecord{
		RunID:         res.RunID,
		Created:       time.Now().UTC(),
		Symbol:        res.Symbol,
		Timeframe:     res.Timeframe,
		Strategy:      res.Strategy,
		Start:         res.Start,
		End:           res.End,
		Bars:          res.Bars,
		InitialEquity: res.InitialEquity,
		Metrics:       m,
	}
}

// Metric returns a metric or 0.
func (r RunRecord) Metric(name string) float64 {
	return r.Metrics[name]
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders the run with its trades as an Org-mode section.
func FormatRunOrg(r RunRecord, trades []TradeRecord) (string, error) {
	buf := new(bytes.Buffer)
	err := runOrg.Execute(buf, struct {
		RunRecord
		Trades []TradeRecord
	}{r, trades})
	if err != nil {
		return "", fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	buf.WriteString(FormatTradesOrg(trades))
	return buf.String(), nil
}

// WriteRunOrg writes FormatRunOrg output to path.
func WriteRunOrg(path string, r RunRecord, trades []TradeRecord) error {
	s, err := FormatRunOrg(r, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:TIMEFRAME:   {{.Timeframe}}
:SYMBOL:      {{.Symbol}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_EQ:    {{printf "%.2f" .InitialEquity}}
:END_EQ:      {{printf "%.2f" (.Metric "final_equity")}}
:NET_PL:      {{printf "%.2f" (.Metric "total_pnl")}}
:TRADES:      {{printf "%.0f" (.Metric "num_trades")}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Return:           *{{printf "%.2f" (mul100 (.Metric "total_return"))}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 (.Metric "max_drawdown"))}}%*
- Win Rate:         *{{printf "%.2f" (mul100 (.Metric "win_rate"))}}%*
- Profit Factor:    *{{printf "%.2f" (.Metric "profit_factor")}}*
- Sharpe:           *{{printf "%.2f" (.Metric "sharpe_ratio")}}*
- Sortino:          *{{printf "%.2f" (.Metric "sortino_ratio")}}*
- Calmar:           *{{printf "%.2f" (.Metric "calmar_ratio")}}*

** Trades
`
