package market

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/ladder/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBars(n int) BarSet {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := BarSet{Symbol: "BTC/USDT", Timeframe: "1h"}
	for i := 0; i < n; i++ {
		p := 100 + float64(i)
		bs.Bars = append(bs.Bars, Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   p,
			High:   p + 2,
			Low:    p - 1,
			Close:  p + 1,
			Volume: 1000 + float64(i),
		})
	}
	return bs
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(bs *BarSet)
		wantErr error
	}{
		{"valid", func(bs *BarSet) {}, nil},
		{"empty", func(bs *BarSet) { bs.Bars = nil }, errs.ErrInsufficientData},
		{"duplicate time", func(bs *BarSet) { bs.Bars[2].Time = bs.Bars[1].Time }, errs.ErrConfiguration},
		{"high below low", func(bs *BarSet) { bs.Bars[1].High = 1 }, errs.ErrConfiguration},
		{"zero close", func(bs *BarSet) { bs.Bars[3].Close = 0 }, errs.ErrConfiguration},
		{"negative volume", func(bs *BarSet) { bs.Bars[0].Volume = -1 }, errs.ErrConfiguration},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bs := testBars(5)
			tt.mutate(&bs)
			err := bs.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := `time,open,high,low,close,volume
2024-01-01T00:00:00Z,100,102,99,101,10
1704070800000,101,103,100,102,11
`
	bs, err := ReadCSV(strings.NewReader(in), "ETH/USDT", "1h")
	require.NoError(t, err)
	require.Equal(t, 2, bs.Len())
	assert.Equal(t, "ETH/USDT", bs.Symbol)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), bs.Bars[1].Time)
	assert.InDelta(t, 102.0, bs.Bars[1].Close, 1e-12)
}

func TestReadCSVBadRow(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("2024-01-01T00:00:00Z,100,abc,99,101,10\n"), "X", "1h")
	assert.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	bs := testBars(10)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, bs))

	got, err := ReadCSV(&buf, bs.Symbol, bs.Timeframe)
	require.NoError(t, err)
	assert.Equal(t, bs.Bars, got.Bars)
	assert.Equal(t, bs.Fingerprint(), got.Fingerprint())
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	bs := testBars(25)
	path := filepath.Join(t.TempDir(), "bars", "btc.parquet")
	require.NoError(t, WriteParquet(path, bs))

	got, err := Load(path, bs.Symbol, bs.Timeframe)
	require.NoError(t, err)
	require.Equal(t, bs.Len(), got.Len())
	for i := range bs.Bars {
		assert.True(t, bs.Bars[i].Time.Equal(got.Bars[i].Time))
		assert.InDelta(t, bs.Bars[i].Close, got.Bars[i].Close, 1e-12)
		assert.InDelta(t, bs.Bars[i].Volume, got.Bars[i].Volume, 1e-12)
	}
}

func TestFingerprintChanges(t *testing.T) {
	t.Parallel()

	a := testBars(5)
	b := testBars(5)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Bars[4].Close += 0.5
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
