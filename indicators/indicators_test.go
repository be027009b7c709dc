package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walk returns n bars following a deterministic wave with drift.
func walk(n int) market.BarSet {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := market.BarSet{Symbol: "BTC/USDT", Timeframe: "1h"}
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.2*float64(i) + 5*math.Sin(float64(i)/3)
		bs.Bars = append(bs.Bars, market.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   prev,
			High:   math.Max(prev, c) + 0.5,
			Low:    math.Min(prev, c) - 0.5,
			Close:  c,
			Volume: 1000 + 100*math.Cos(float64(i)/2),
		})
		prev = c
	}
	return bs
}

func TestSimpleMAStreaming(t *testing.T) {
	t.Parallel()

	closes := []float64{102, 105, 106, 108, 110}

	ma := NewSMA(3)
	assert.Equal(t, "SMA(3)", ma.Name())
	assert.Equal(t, 3, ma.Warmup())
	assert.False(t, ma.Ready())
	assert.Equal(t, 0.0, ma.Value())

	ma.Update(closes[0])
	ma.Update(closes[1])
	assert.False(t, ma.Ready())

	ma.Update(closes[2])
	require.True(t, ma.Ready())
	assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 1e-9)

	ma.Update(closes[3])
	assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 1e-9)

	ma.Reset()
	assert.False(t, ma.Ready())
	assert.Equal(t, 0.0, ma.Value())

	series, err := SMA(closes, 3)
	require.NoError(t, err)
	require.Len(t, series, len(closes))
	assert.False(t, series[0].OK)
	assert.False(t, series[1].OK)
	assert.True(t, series[2].OK)
	assert.InDelta(t, (106.0+108.0+110.0)/3.0, series[4].V, 1e-9)

	_, err = SMA(closes, 0)
	assert.Error(t, err)
}

func TestRSI(t *testing.T) {
	t.Parallel()

	t.Run("gains then a loss", func(t *testing.T) {
		t.Parallel()
		series, err := RSISeries([]float64{1, 2, 3, 2}, 2)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, true, true}, defined(series))
		assert.InDelta(t, 100.0, series[2].V, 1e-9)
		// avgGain = avgLoss = 0.5
		assert.InDelta(t, 50.0, series[3].V, 1e-9)
	})

	t.Run("flat prices", func(t *testing.T) {
		t.Parallel()
		series, err := RSISeries([]float64{5, 5, 5, 5, 5}, 3)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, series[4].V, 1e-9)
	})

	t.Run("only losses", func(t *testing.T) {
		t.Parallel()
		series, err := RSISeries([]float64{5, 4, 3, 2}, 3)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, series[3].V, 1e-9)
	})
}

func TestATR(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []market.Bar{
		{Time: start, Open: 9, High: 10, Low: 8, Close: 9},
		{Time: start.Add(time.Hour), Open: 9, High: 11, Low: 9, Close: 10},
		{Time: start.Add(2 * time.Hour), Open: 10, High: 12, Low: 9, Close: 11},
		{Time: start.Add(3 * time.Hour), Open: 11, High: 13, Low: 11, Close: 12},
	}

	atr := NewATR(2)
	assert.Equal(t, "ATR(2)", atr.Name())
	assert.Equal(t, 3, atr.Warmup())

	series, err := ATRSeries(bars, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, true}, defined(series))
	// TR: 2, 3 then Wilder with TR 2
	assert.InDelta(t, 2.5, series[2].V, 1e-9)
	assert.InDelta(t, 2.25, series[3].V, 1e-9)
}

func TestADX(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trend := make([]market.Bar, 12)
	flat := make([]market.Bar, 12)
	for i := range trend {
		p := 100 + float64(i)
		trend[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: p, High: p + 1, Low: p - 1, Close: p + 0.5}
		flat[i] = market.Bar{Time: trend[i].Time, Open: 100, High: 100, Low: 100, Close: 100}
	}

	adx := NewADX(3)
	assert.Equal(t, "ADX(3)", adx.Name())
	assert.Equal(t, 7, adx.Warmup())

	series, err := ADXSeries(trend, 3)
	require.NoError(t, err)
	for i, v := range series {
		assert.Equal(t, i >= 6, v.OK, "index %d", i)
	}
	assert.InDelta(t, 100.0, series[6].V, 1e-9)
	assert.InDelta(t, 100.0, series[11].V, 1e-9)

	series, err = ADXSeries(flat, 3)
	require.NoError(t, err)
	require.True(t, series[6].OK)
	assert.Equal(t, 0.0, series[6].V)
}

func TestHeikinAshiSeries(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 13, Low: 10.5, Close: 12.5},
		{Open: 12.5, High: 12.6, Low: 9, Close: 9.5},
	}
	ha := HeikinAshiSeries(bars)
	require.Len(t, ha, 3)

	assert.InDelta(t, 10.5, ha[0].Open, 1e-9)
	assert.InDelta(t, 10.5, ha[0].Close, 1e-9)
	assert.Equal(t, 12.0, ha[0].High)
	assert.Equal(t, 9.0, ha[0].Low)

	assert.InDelta(t, 10.5, ha[1].Open, 1e-9)
	assert.InDelta(t, 11.75, ha[1].Close, 1e-9)
	assert.True(t, ha[1].Bullish())
	assert.True(t, ha[1].NoLowerWick())

	assert.InDelta(t, 11.125, ha[2].Open, 1e-9)
	assert.True(t, ha[2].Bearish())
	assert.False(t, ha[2].NoLowerWick())
}

func TestLengthsWarmup(t *testing.T) {
	t.Parallel()

	l := Lengths{SMA: 20, VolumeSMA: 20, RSI: 14, ATR: 14, ADX: 14}
	assert.Equal(t, 29, l.Warmup())

	l = Lengths{SMA: 50, VolumeSMA: 60, RSI: 14, ATR: 14, ADX: 5}
	assert.Equal(t, 60, l.Warmup())
}

func TestCalculateErrors(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(Lengths{SMA: 5, VolumeSMA: 5, RSI: 5, ATR: 5, ADX: -1}, nil)
	_, err := calc.Calculate(walk(50))
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	calc = NewCalculator(Lengths{SMA: 5, VolumeSMA: 5, RSI: 5, ATR: 5, ADX: 5}, nil)
	_, err = calc.Calculate(walk(10))
	assert.ErrorIs(t, err, errs.ErrInsufficientData)

	_, err = calc.Calculate(market.BarSet{})
	assert.ErrorIs(t, err, errs.ErrInsufficientData)
}

func TestCalculateWarmupMarkers(t *testing.T) {
	t.Parallel()

	l := Lengths{SMA: 4, VolumeSMA: 6, RSI: 3, ATR: 5, ADX: 2}
	rows, err := NewCalculator(l, nil).Calculate(walk(30))
	require.NoError(t, err)
	require.Len(t, rows, 30)

	for i, r := range rows {
		assert.Equal(t, i >= 3, r.SMA.OK, "sma %d", i)
		assert.Equal(t, i >= 5, r.VolumeSMA.OK, "volume sma %d", i)
		assert.Equal(t, i >= 3, r.RSI.OK, "rsi %d", i)
		assert.Equal(t, i >= 5, r.ATR.OK, "atr %d", i)
		assert.Equal(t, i >= 4, r.ADX.OK, "adx %d", i)
	}
	for i := l.Warmup() - 1; i < len(rows); i++ {
		r := rows[i]
		assert.True(t, r.SMA.OK && r.VolumeSMA.OK && r.RSI.OK && r.ATR.OK && r.ADX.OK)
	}
}

func TestCalculateIsCausal(t *testing.T) {
	t.Parallel()

	l := Lengths{SMA: 5, VolumeSMA: 5, RSI: 4, ATR: 4, ADX: 3}
	full := walk(60)
	calc := NewCalculator(l, nil)
	all, err := calc.Calculate(full)
	require.NoError(t, err)

	for _, n := range []int{l.Warmup(), 20, 37, 59} {
		prefix := full
		prefix.Bars = full.Bars[:n]
		rows, err := calc.Calculate(prefix)
		require.NoError(t, err)
		assert.Equal(t, all[:n], rows, "prefix %d", n)
	}
}

func TestCalculateWithCache(t *testing.T) {
	t.Parallel()

	cache := NewCache(0)
	l := Lengths{SMA: 5, VolumeSMA: 5, RSI: 4, ATR: 4, ADX: 3}
	bs := walk(40)

	plain, err := NewCalculator(l, nil).Calculate(bs)
	require.NoError(t, err)

	cached, err := NewCalculator(l, cache).Calculate(bs)
	require.NoError(t, err)
	assert.Equal(t, plain, cached)
	assert.Equal(t, 5, cache.Len())

	// Same close SMA length and new RSI length only adds the RSI column.
	l.RSI = 6
	_, err = NewCalculator(l, cache).Calculate(bs)
	require.NoError(t, err)
	assert.Equal(t, 6, cache.Len())

	// Another dataset never reuses columns.
	_, err = NewCalculator(l, cache).Calculate(walk(41))
	require.NoError(t, err)
	assert.Equal(t, 11, cache.Len())

	cache.Flush()
	assert.Equal(t, 0, cache.Len())
}

func defined(vs []Value) []bool {
	out := make([]bool, len(vs))
	for i, v := range vs {
		out[i] = v.OK
	}
	return out
}
