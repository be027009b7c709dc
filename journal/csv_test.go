package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tp := filepath.Join(dir, "trades.csv")
	ep := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tp, ep)
	require.NoError(t, err)
	require.NoError(t, Record(j, sampleResult()))
	require.NoError(t, j.Close())

	trades := readCSV(t, tp)
	require.Len(t, trades, 2)
	assert.Equal(t, tradesHeader, trades[0])
	assert.Equal(t, "run-1", trades[1][0])
	assert.Equal(t, "run-1-trade-0001", trades[1][1])
	assert.Equal(t, "2024-03-01T10:00:00Z", trades[1][3])
	assert.Equal(t, "-0.4750000000", trades[1][10])
	assert.Equal(t, "stop_loss", trades[1][11])
	assert.True(t, strings.HasPrefix(trades[1][12], "take_profit(1)@103."))
	assert.Contains(t, trades[1][12], ";stop_loss@96.")

	equity := readCSV(t, ep)
	require.Len(t, equity, 4)
	assert.Equal(t, equityHeader, equity[0])
	assert.Equal(t, "10001.0000000000", equity[2][3])
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "t.csv"), filepath.Join(dir, "e.csv"))
	assert.Error(t, err)

	_, err = NewCSV(filepath.Join(dir, "t.csv"), filepath.Join(dir, "missing", "e.csv"))
	assert.Error(t, err)
}
