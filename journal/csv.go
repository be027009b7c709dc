package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// CSVJournal writes trades and equity to two CSV files. Exits are
// flattened into the trade row.
type CSVJournal struct {
	tradesFile *os.File
	equityFile *os.File

	trades *csv.Writer
	equity *csv.Writer
}

var (
	tradesHeader = []string{
		"run_id", "trade_id", "symbol",
		"open_time", "close_time",
		"size", "entry_price", "stop_loss", "exit_price",
		"realized_pl", "r_multiple", "reason", "exits",
	}
	equityHeader = []string{"run_id", "time", "balance", "equity"}
)

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}

	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSVJournal{
		tradesFile: tf,
		equityFile: ef,
		trades:     csv.NewWriter(tf),
		equity:     csv.NewWriter(ef),
	}

	if err := j.trades.Write(tradesHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.equity.Write(equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.TradeID,
		t.Symbol,
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.Size),
		f(t.EntryPrice),
		f(t.StopLoss),
		f(t.ExitPrice),
		f(t.RealizedPL),
		f(t.RMultiple),
		t.Reason,
		formatExits(t.Exits),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.UTC().Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	err1 := j.tradesFile.Close()
	err2 := j.equityFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// formatExits renders exits as "reason@price*fraction" joined by ';'.
func formatExits(xs []ExitRecord) string {
	s := ""
	for i, x := range xs {
		if i > 0 {
			s += ";"
		}
		s += fmt.Sprintf("%s@%s*%s", x.Reason, f(x.Price), f(x.Fraction))
	}
	return s
}

func f(v float64) string {
	return fmt.Sprintf("%.10f", v)
}
