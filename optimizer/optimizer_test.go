package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wave(n int) market.BarSet {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := market.BarSet{Symbol: "BTC/USDT", Timeframe: "1h"}
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.3*float64(i) + 6*math.Sin(float64(i)/4)
		bs.Bars = append(bs.Bars, market.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   prev,
			High:   math.Max(prev, c) + 0.4,
			Low:    math.Min(prev, c) - 0.4,
			Close:  c,
			Volume: 1000 + 400*math.Sin(float64(i)/2),
		})
		prev = c
	}
	return bs
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.Strategy.SMALength = 10
	cfg.Strategy.VolumeSMALength = 10
	cfg.Strategy.ADXLength = 5
	cfg.Strategy.ADXThreshold = 10
	cfg.Strategy.VolumeMultiplier = 0.5
	cfg.Strategy.RSIEntryMin = 40
	cfg.Strategy.RSIEntryMax = 100
	cfg.Strategy.RSIExit = 100
	return cfg
}

func TestGridCombinations(t *testing.T) {
	t.Parallel()

	g := Grid{
		"sma_length":    {20, 10, 20},
		"adx_threshold": {25, 15},
	}
	require.NoError(t, g.Validate())
	assert.Equal(t, 4, g.Size())

	got := g.Combinations()
	want := []string{
		"adx_threshold=15 sma_length=10",
		"adx_threshold=15 sma_length=20",
		"adx_threshold=25 sma_length=10",
		"adx_threshold=25 sma_length=20",
	}
	require.Len(t, got, len(want))
	for i, ps := range got {
		assert.Equal(t, want[i], ps.String())
		if i > 0 {
			assert.Negative(t, got[i-1].Compare(ps))
		}
	}

	v, ok := got[1].Get("sma_length")
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestGridValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Grid{}.Validate(), errs.ErrConfiguration)
	assert.ErrorIs(t, Grid{"leverage": {2}}.Validate(), errs.ErrConfiguration)
	assert.ErrorIs(t, Grid{"sma_length": {}}.Validate(), errs.ErrConfiguration)
	assert.ErrorIs(t, Grid{"rsi_exit": {math.NaN()}}.Validate(), errs.ErrConfiguration)
}

func TestParamSetIsImmutable(t *testing.T) {
	t.Parallel()

	ps := NewParamSet(map[string]float64{"b": 2, "a": 1})
	assert.Equal(t, []string{"a", "b"}, ps.Names())

	params := ps.Params()
	params[0].Value = 99
	v, _ := ps.Get("a")
	assert.Equal(t, 1.0, v)
}

func TestRank(t *testing.T) {
	t.Parallel()

	ps := func(v float64) ParamSet { return NewParamSet(map[string]float64{"sma_length": v}) }
	metrics := func(v float64) map[string]float64 { return map[string]float64{"sharpe_ratio": v} }

	in := []Result{
		{Params: ps(40), Err: errs.ErrInsufficientData},
		{Params: ps(30), Metrics: metrics(1)},
		{Params: ps(20), Metrics: metrics(2)},
		{Params: ps(10), Metrics: metrics(1)},
		{Params: ps(5), Err: errs.ErrConfiguration},
	}
	got := Rank(in, "sharpe_ratio")

	order := make([]string, len(got))
	for i, r := range got {
		order[i] = r.Params.String()
	}
	assert.Equal(t, []string{
		"sma_length=20", "sma_length=10", "sma_length=30", "sma_length=5", "sma_length=40",
	}, order)
	assert.Equal(t, "sma_length=40", in[0].Params.String(), "input untouched")
}

func TestRunSequentialEqualsParallel(t *testing.T) {
	t.Parallel()

	bs := wave(300)
	grid := Grid{
		"sma_length":    {8, 10, 14},
		"adx_threshold": {5, 10, 20},
		"atr_length":    {7, 14},
	}

	seq := &Optimizer{Base: baseConfig(), Workers: 1, TopN: 5}
	par := &Optimizer{Base: baseConfig(), Workers: 6, TopN: 5}

	a, err := seq.Run(context.Background(), bs, grid)
	require.NoError(t, err)
	b, err := par.Run(context.Background(), bs, grid)
	require.NoError(t, err)

	assert.Equal(t, 18, a.Total)
	assert.Len(t, a.All, 18)
	assert.False(t, a.Canceled)
	assert.Equal(t, a.All, b.All)
	assert.Equal(t, a.Top, b.Top)
	assert.Len(t, a.Top, 5)
	assert.Equal(t, DefaultObjective, a.Objective)

	for i := 1; i < len(a.All); i++ {
		assert.GreaterOrEqual(t, a.All[i-1].Metrics[a.Objective], a.All[i].Metrics[a.Objective])
	}

	again, err := par.Run(context.Background(), bs, grid)
	require.NoError(t, err)
	assert.Equal(t, b.All, again.All)
}

func TestRunRecordsFailures(t *testing.T) {
	t.Parallel()

	bs := wave(120)
	grid := Grid{
		"sma_length":    {10, 500},
		"rsi_entry_min": {40, 100.5},
	}
	o := &Optimizer{Base: baseConfig(), Workers: 2, Objective: backtest.MetricTotalReturn}
	rep, err := o.Run(context.Background(), bs, grid)
	require.NoError(t, err)

	require.Len(t, rep.All, 4)
	assert.Equal(t, 3, rep.Failed())

	best, ok := rep.Best()
	require.True(t, ok)
	assert.Equal(t, "rsi_entry_min=40 sma_length=10", best.Params.String())

	var insufficient, invalid int
	for _, r := range rep.All[1:] {
		require.False(t, r.OK())
		switch {
		case errors.Is(r.Err, errs.ErrInsufficientData):
			insufficient++
			assert.Equal(t, "insufficient_data", r.Failure)
		case errors.Is(r.Err, errs.ErrConfiguration):
			invalid++
			assert.Equal(t, "configuration", r.Failure)
		}
	}
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 2, invalid)
	assert.Len(t, rep.Top, 1)
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()

	o := &Optimizer{Base: baseConfig()}
	_, err := o.Run(context.Background(), wave(100), Grid{"leverage": {1, 2}})
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	o.Objective = "luck"
	_, err = o.Run(context.Background(), wave(100), Grid{"sma_length": {10}})
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &Optimizer{Base: baseConfig(), Workers: 2}
	rep, err := o.Run(ctx, wave(200), Grid{"sma_length": {8, 10, 12}})
	require.NoError(t, err)
	assert.True(t, rep.Canceled)
	assert.Empty(t, rep.All)
	assert.Equal(t, 3, rep.Total)
}

func TestRunCanceledKeepsCompletedResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []Result
	o := &Optimizer{
		Base:    baseConfig(),
		Workers: 1,
		OnResult: func(r Result) {
			seen = append(seen, r)
			cancel()
		},
	}
	rep, err := o.Run(ctx, wave(200), Grid{"sma_length": {8, 10, 12, 14}})
	require.NoError(t, err)

	assert.True(t, rep.Canceled)
	require.Len(t, rep.All, 1)
	assert.Equal(t, seen, rep.All)
	assert.Equal(t, "sma_length=8", rep.All[0].Params.String())
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Optimizer.Workers = 3
	cfg.Optimizer.TopN = 2
	cfg.Optimizer.Objective = backtest.MetricCalmar

	o := FromConfig(cfg, nil)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, 2, o.TopN)
	assert.Equal(t, backtest.MetricCalmar, o.Objective)
}
