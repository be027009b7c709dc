package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/optimizer"
)

// OptimizationRecord is one ranked row of a grid search. Failed parameter
// sets carry Error and rank after every successful one.
type OptimizationRecord struct {
	Rank      int
	Params    string
	Objective float64
	Metrics   map[string]float64
	Error     string
}

// OptimizationRecords flattens a report in rank order. Failed sets
// follow every successful one.
func OptimizationRecords(rep *optimizer.Report) []OptimizationRecord {
	ranked := optimizer.Rank(rep.All, rep.Objective)
	out := make([]OptimizationRecord, len(ranked))
	for i, r := range ranked {
		out[i] = OptimizationRecord{
			Rank:   i + 1,
			Params: r.Params.String(),
		}
		if r.OK() {
			out[i].Objective = r.Metrics[rep.Objective]
			out[i].Metrics = r.Metrics
		} else {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// WriteOptimizationCSV writes one row per parameter set in rank order with
// a column per parameter and per metric.
func WriteOptimizationCSV(w io.Writer, rep *optimizer.Report) error {
	var names []string
	if len(rep.All) > 0 {
		names = rep.All[0].Params.Names()
	}

	cw := csv.NewWriter(w)
	header := append([]string{"rank"}, names...)
	header = append(header, backtest.MetricNames...)
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range optimizer.Rank(rep.All, rep.Objective) {
		row := []string{fmt.Sprint(i + 1)}
		for _, v := range r.Params.Values() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, m := range backtest.MetricNames {
			if !r.OK() {
				row = append(row, "")
				continue
			}
			row = append(row, f(r.Metrics[m]))
		}
		errText := ""
		if !r.OK() {
			errText = r.Err.Error()
		}
		row = append(row, errText)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveOptimizationCSV writes the report to path.
func SaveOptimizationCSV(path string, rep *optimizer.Report) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOptimizationCSV(fh, rep); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

type resultJSON struct {
	RunID         string             `json:"run_id"`
	Symbol        string             `json:"symbol"`
	Timeframe     string             `json:"timeframe"`
	Strategy      string             `json:"strategy"`
	InitialEquity float64            `json:"initial_equity"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	Bars          int                `json:"bars"`
	Ignored       int                `json:"ignored_signals"`
	Metrics       map[string]float64 `json:"metrics"`
	Trades        []TradeRecord      `json:"trades"`
}

// WriteResultJSON writes the run summary, metrics and trades as indented JSON.
func WriteResultJSON(w io.Writer, res *backtest.Result) error {
	out := resultJSON{
		RunID:         res.RunID,
		Symbol:        res.Symbol,
		Timeframe:     res.Timeframe,
		Strategy:      res.Strategy,
		InitialEquity: res.InitialEquity,
		Start:         res.Start.UTC().Format("2006-01-02T15:04:05Z07:00"),
		End:           res.End.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Bars:          res.Bars,
		Ignored:       res.Ignored,
		Metrics:       res.Metrics,
		Trades:        make([]TradeRecord, 0, len(res.Trades)),
	}
	for _, t := range res.Trades {
		out.Trades = append(out.Trades, NewTradeRecord(res.RunID, res.Symbol, t))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
