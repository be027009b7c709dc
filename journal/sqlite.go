package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, symbol, timeframe, strategy, start_time, end_time, bars, initial_equity, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.Created.Unix(),
		r.Symbol,
		r.Timeframe,
		r.Strategy,
		r.Start.Unix(),
		r.End.Unix(),
		r.Bars,
		r.InitialEquity,
		string(metrics),
	)
	return err
}

// RecordTrade stores the trade with its exits in one transaction.
func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO trades
		(trade_id, run_id, symbol, size, entry_price, exit_price, stop_loss, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID,
		t.RunID,
		t.Symbol,
		t.Size,
		t.EntryPrice,
		t.ExitPrice,
		t.StopLoss,
		t.OpenTime.Unix(),
		t.CloseTime.Unix(),
		t.RealizedPL,
		t.Reason,
	)
	if err != nil {
		return err
	}

	for _, x := range t.Exits {
		_, err = tx.Exec(`
			INSERT OR REPLACE INTO exits
			(run_id, trade_id, seq, time, price, size, fraction, pnl, reason, level)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.RunID, t.TradeID, x.Seq, x.Time.Unix(), x.Price, x.Size, x.Fraction, x.PnL, x.Reason, x.Level,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, balance, equity)
		VALUES (?, ?, ?, ?)`,
		e.RunID,
		e.Time.Unix(),
		e.Balance,
		e.Equity,
	)
	return err
}

// RecordOptimization stores every row of a study.
func (j *SQLiteJournal) RecordOptimization(studyID string, rows []OptimizationRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rows {
		metrics, err := json.Marshal(r.Metrics)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT OR REPLACE INTO optimization (study_id, rank, params, objective, metrics, error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			studyID, r.Rank, r.Params, r.Objective, string(metrics), r.Error,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
