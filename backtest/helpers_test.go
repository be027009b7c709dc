package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/indicators"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/pkg/id"
	"github.com/rustyeddy/ladder/strategies"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// flatRow is a quiet bar on which the trend strategy does nothing.
func flatRow(i int) indicators.Row {
	var r indicators.Row
	r.Time = t0.Add(time.Duration(i) * time.Hour)
	r.Open, r.High, r.Low, r.Close = 100, 100.5, 99.5, 100
	r.Volume = 1000
	r.HA = indicators.HeikinAshi{Open: 100, High: 100.5, Low: 99.5, Close: 100}
	r.SMA = indicators.Defined(99)
	r.VolumeSMA = indicators.Defined(1000)
	r.RSI = indicators.Defined(55)
	r.ATR = indicators.Defined(2)
	r.ADX = indicators.Defined(10)
	return r
}

func flatRows(n int) []indicators.Row {
	rows := make([]indicators.Row, n)
	for i := range rows {
		rows[i] = flatRow(i)
	}
	return rows
}

func testConfig(levels ...config.TakeProfitLevel) config.Config {
	cfg := config.Default()
	cfg.InitialEquity = 10000
	cfg.Risk.RiskPerTrade = 1
	cfg.Risk.StopMultiplier = 2
	cfg.Risk.TakeProfitLevels = levels
	return cfg
}

// scripted emits fixed signals by bar index.
type scripted map[int]strategies.Signal

func (scripted) Name() string { return "scripted" }

func (s scripted) Signal(i int, _ []indicators.Row) strategies.Signal {
	return s[i]
}

func newTestEngine(cfg config.Config, opts ...Option) *Engine {
	opts = append([]Option{WithIDs(id.Sequence("run"), id.Sequence("trade"))}, opts...)
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// trending returns bars with a rising wave that gives the trend strategy
// some entries and exits.
func trending(n int) market.BarSet {
	bs := market.BarSet{Symbol: "BTC/USDT", Timeframe: "1h"}
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.3*float64(i) + 6*math.Sin(float64(i)/4)
		bs.Bars = append(bs.Bars, market.Bar{
			Time:   t0.Add(time.Duration(i) * time.Hour),
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
