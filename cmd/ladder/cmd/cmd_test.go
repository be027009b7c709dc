package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ladder/config"
)

func TestParseAxis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		name    string
		values  []float64
		wantErr bool
	}{
		{in: "sma_length=20,50", name: "sma_length", values: []float64{20, 50}},
		{in: " adx_threshold = 25 ", name: "adx_threshold", values: []float64{25}},
		{in: "sma_length", wantErr: true},
		{in: "=1,2", wantErr: true},
		{in: "sma_length=", wantErr: true},
		{in: "sma_length=1,x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, vs, err := parseAxis(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.values, vs)
		})
	}
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	start, end, err := dayBounds(time.UTC, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(time.UTC, "15/01/2024")
	assert.Error(t, err)
}

func TestOpenJournalNone(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Journal.Type = "none"
	j, err := openJournal(cfg)
	require.NoError(t, err)
	assert.Nil(t, j)
}
