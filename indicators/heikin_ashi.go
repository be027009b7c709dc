package indicators

import (
	"math"

	"github.com/rustyeddy/ladder/market"
)

// HeikinAshi is a smoothed candle.
type HeikinAshi struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Bullish reports a candle that closed above its open.
func (h HeikinAshi) Bullish() bool {
	return h.Close > h.Open
}

// Bearish reports a candle that closed below its open.
func (h HeikinAshi) Bearish() bool {
	return h.Close < h.Open
}

// NoLowerWick reports a candle whose open is its low, within a relative
// tolerance of 1e-9.
func (h HeikinAshi) NoLowerWick() bool {
	return math.Abs(h.Open-h.Low) <= 1e-9*math.Max(1, math.Abs(h.Open))
}

// HeikinAshiSeries transforms bars into Heikin-Ashi candles. The first candle
// opens at the midpoint of the first bar's open and close.
func HeikinAshiSeries(bars []market.Bar) []HeikinAshi {
	out := make([]HeikinAshi, len(bars))
	for i, b := range bars {
		c := (b.Open + b.High + b.Low + b.Close) / 4
		o := (b.Open + b.Close) / 2
		if i > 0 {
			o = (out[i-1].Open + out[i-1].Close) / 2
		}
		out[i] = HeikinAshi{
			Open:  o,
			High:  math.Max(b.High, math.Max(o, c)),
			Low:   math.Min(b.Low, math.Min(o, c)),
			Close: c,
		}
	}
	return out
}
