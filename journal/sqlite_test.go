package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteRecordAndQueryRun(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	res := sampleResult()
	require.NoError(t, Record(j, res))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "BTC/USDT", runs[0].Symbol)
	assert.Equal(t, "ha-trend", runs[0].Strategy)
	assert.Equal(t, 25, runs[0].Bars)
	assert.True(t, runs[0].Start.Equal(t0))
	assert.InDelta(t, 9996.2, runs[0].Metric("final_equity"), 1e-9)

	got, err := j.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, runs[0].Metrics, got.Metrics)
}

func TestSQLiteTradesWithExits(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	require.NoError(t, Record(j, sampleResult()))

	trades, err := j.ListTradesByRunID("run-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, "run-1-trade-0001", tr.TradeID)
	assert.Equal(t, "stop_loss", tr.Reason)
	assert.InDelta(t, -3.8, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 8.0, tr.PlannedRisk, 1e-9)
	assert.InDelta(t, -0.475, tr.RMultiple, 1e-9)
	assert.InDelta(t, (103*0.6+96*1.4)/2, tr.ExitPrice, 1e-9)
	require.Len(t, tr.Exits, 2)
	assert.Equal(t, "take_profit(1)", tr.Exits[0].Reason)
	assert.Equal(t, 1, tr.Exits[0].Level)
	assert.Equal(t, 2, tr.Exits[1].Seq)
	assert.True(t, tr.Exits[1].Time.Equal(t0.Add(20*time.Hour)))

	one, err := j.GetTrade("run-1", "run-1-trade-0001")
	require.NoError(t, err)
	assert.Equal(t, tr, one)

	_, err = j.GetTrade("run-1", "missing")
	assert.Error(t, err)
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	require.NoError(t, Record(j, sampleResult()))

	in, err := j.ListTradesClosedBetween(t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, in, 1)

	out, err := j.ListTradesClosedBetween(t0, t0.Add(20*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteEquity(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	require.NoError(t, Record(j, sampleResult()))

	eq, err := j.ListEquityByRunID("run-1")
	require.NoError(t, err)
	require.Len(t, eq, 3)
	assert.Equal(t, 10000.0, eq[0].Equity)
	assert.Equal(t, 9996.2, eq[2].Balance)

	none, err := j.ListEquityByRunID("other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteOptimization(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	rows := OptimizationRecords(sampleReport())
	require.NoError(t, j.RecordOptimization("study-1", rows))

	got, err := j.ListOptimization("study-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rows[0].Params, got[0].Params)
	assert.Equal(t, 2.0, got[0].Objective)
	assert.Equal(t, 2.0, got[0].Metrics["sharpe_ratio"])
	assert.NotEmpty(t, got[2].Error)
	assert.Nil(t, got[2].Metrics)
}
