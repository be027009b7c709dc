package journal

import (
	"database/sql"
	"encoding/json"
	"time"
)

func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT run_id, created, symbol, timeframe, strategy, start_time, end_time, bars, initial_equity, metrics
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (j *SQLiteJournal) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, symbol, timeframe, strategy, start_time, end_time, bars, initial_equity, metrics
		FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r                   RunRecord
		created, start, end int64
		metrics             string
	)
	err := s.Scan(&r.RunID, &created, &r.Symbol, &r.Timeframe, &r.Strategy,
		&start, &end, &r.Bars, &r.InitialEquity, &metrics)
	if err != nil {
		return r, err
	}
	r.Created = time.Unix(created, 0).UTC()
	r.Start = time.Unix(start, 0).UTC()
	r.End = time.Unix(end, 0).UTC()
	if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
		return r, err
	}
	return r, nil
}

func (j *SQLiteJournal) GetTrade(runID, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, run_id, symbol, size, entry_price, exit_price, stop_loss, open_time, close_time, realized_pl, reason
		FROM trades WHERE run_id = ? AND trade_id = ?`, runID, tradeID)

	t, err := scanTrade(row)
	if err != nil {
		return t, err
	}
	t.Exits, err = j.listExits(runID, tradeID)
	return t, err
}

// ListTradesByRunID returns the trades of a run in entry order.
func (j *SQLiteJournal) ListTradesByRunID(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, size, entry_price, exit_price, stop_loss, open_time, close_time, realized_pl, reason
		FROM trades WHERE run_id = ?
		ORDER BY open_time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}

	var out []TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Exits, err = j.listExits(runID, out[i].TradeID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListTradesClosedBetween returns trades of any run closed in [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, size, entry_price, exit_price, stop_loss, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		t               TradeRecord
		openTS, closeTS int64
	)
	err := s.Scan(&t.TradeID, &t.RunID, &t.Symbol, &t.Size, &t.EntryPrice, &t.ExitPrice,
		&t.StopLoss, &openTS, &closeTS, &t.RealizedPL, &t.Reason)
	if err != nil {
		return t, err
	}
	t.OpenTime = time.Unix(openTS, 0).UTC()
	t.CloseTime = time.Unix(closeTS, 0).UTC()
	return t.withRisk(), nil
}

func (j *SQLiteJournal) listExits(runID, tradeID string) ([]ExitRecord, error) {
	rows, err := j.db.Query(`
		SELECT seq, time, price, size, fraction, pnl, reason, level
		FROM exits WHERE run_id = ? AND trade_id = ?
		ORDER BY seq ASC`, runID, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExitRecord
	for rows.Next() {
		var (
			x  ExitRecord
			ts int64
		)
		if err := rows.Scan(&x.Seq, &ts, &x.Price, &x.Size, &x.Fraction, &x.PnL, &x.Reason, &x.Level); err != nil {
			return nil, err
		}
		x.Time = time.Unix(ts, 0).UTC()
		out = append(out, x)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) ListEquityByRunID(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, balance, equity
		FROM equity WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var (
			e  EquitySnapshot
			ts int64
		)
		if err := rows.Scan(&e.RunID, &ts, &e.Balance, &e.Equity); err != nil {
			return nil, err
		}
		e.Time = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListOptimization returns a study ordered by rank.
func (j *SQLiteJournal) ListOptimization(studyID string) ([]OptimizationRecord, error) {
	rows, err := j.db.Query(`
		SELECT rank, params, objective, metrics, error
		FROM optimization WHERE study_id = ?
		ORDER BY rank ASC`, studyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OptimizationRecord
	for rows.Next() {
		var (
			r       OptimizationRecord
			metrics sql.NullString
		)
		if err := rows.Scan(&r.Rank, &r.Params, &r.Objective, &metrics, &r.Error); err != nil {
			return nil, err
		}
		if metrics.Valid && metrics.String != "null" {
			if err := json.Unmarshal([]byte(metrics.String), &r.Metrics); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
