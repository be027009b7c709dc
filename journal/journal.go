// Package journal persists backtest and optimization results: SQLite for
// querying runs, CSV and JSON for spreadsheets and scripts, Org for notes.
package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/risk"
)

// TradeRecord is one closed trade of a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Size       float64
	EntryPrice float64
	ExitPrice  float64 // size weighted over all exits
	StopLoss   float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
	Exits      []ExitRecord

	// Derived from size, entry and stop.
	PlannedRisk float64
	RMultiple   float64
}

// withRisk fills PlannedRisk and RMultiple.
func (t TradeRecord) withRisk() TradeRecord {
	t.PlannedRisk = risk.PlannedRisk(t.Size, t.EntryPrice, t.StopLoss)
	t.RMultiple = 0
	if t.PlannedRisk > 0 {
		t.RMultiple = t.RealizedPL / t.PlannedRisk
	}
	return t
}

// ExitRecord is one fill of a trade.
type ExitRecord struct {
	Seq      int
	Time     time.Time
	Price    float64
	Size     float64
	Fraction float64
	PnL      float64
	Reason   string
	Level    int
}

// EquitySnapshot is the account at the close of one bar.
type EquitySnapshot struct {
	RunID   string
	Time    time.Time
	Balance float64
	Equity  float64
}

// Journal receives the trades and equity curve of a run.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// RunRecorder is implemented by journals that also store run summaries.
type RunRecorder interface {
	RecordRun(RunRecord) error
}

// NewTradeRecord converts a backtest trade.
func NewTradeRecord(runID, symbol string, t backtest.Trade) TradeRecord {
	rec := TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Symbol:     symbol,
		Size:       t.Size,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice(),
		StopLoss:   t.StopLoss,
		OpenTime:   t.EntryTime,
		CloseTime:  t.ExitTime,
		RealizedPL: t.PnL,
		Reason:     string(t.Reason()),
	}
	for i, x := range t.Exits {
		rec.Exits = append(rec.Exits, ExitRecord{
			Seq:      i + 1,
			Time:     x.Time,
			Price:    x.Price,
			Size:     x.Size,
			Fraction: x.Fraction,
			PnL:      x.PnL,
			Reason:   x.Label(),
			Level:    x.Level,
		})
	}
	return rec.withRisk()
}

// Record writes a whole result to j: the run summary when j is a
// RunRecorder, then every trade and equity point.
func Record(j Journal, res *backtest.Result) error {
	if rr, ok := j.(RunRecorder); ok {
		if err := rr.RecordRun(NewRunRecord(res)); err != nil {
			return fmt.Errorf("record run %s: %w", res.RunID, err)
		}
	}
	for _, t := range res.Trades {
		if err := j.RecordTrade(NewTradeRecord(res.RunID, res.Symbol, t)); err != nil {
			return fmt.Errorf("record trade %s: %w", t.ID, err)
		}
	}
	for _, p := range res.Equity {
		if err := j.RecordEquity(EquitySnapshot{RunID: res.RunID, Time: p.Time, Balance: p.Balance, Equity: p.Equity}); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
	}
	return nil
}
