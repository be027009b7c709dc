package indicators

import (
	"fmt"

	"github.com/rustyeddy/ladder/errs"
	"github.com/rustyeddy/ladder/market"
)

// Lengths holds the lookback of every indicator the strategy consumes.
type Lengths struct {
	SMA       int
	VolumeSMA int
	RSI       int
	ATR       int
	ADX       int
}

// Validate rejects non-positive lengths.
func (l Lengths) Validate() error {
	checks := []struct {
		name string
		n    int
	}{
		{"sma_length", l.SMA},
		{"volume_sma_length", l.VolumeSMA},
		{"rsi_length", l.RSI},
		{"atr_length", l.ATR},
		{"adx_length", l.ADX},
	}
	for _, c := range checks {
		if c.n <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", errs.ErrConfiguration, c.name, c.n)
		}
	}
	return nil
}

// Warmup is the number of bars after which every column, and the SMA slope,
// is defined.
func (l Lengths) Warmup() int {
	return max(
		l.SMA+1,
		l.VolumeSMA,
		l.RSI+1,
		l.ATR+1,
		2*l.ADX+1,
	)
}

// Row is one bar augmented with its indicator readings.
type Row struct {
	market.Bar
	HA        HeikinAshi
	SMA       Value
	VolumeSMA Value
	RSI       Value
	ATR       Value
	ADX       Value
}

// Calculator derives indicator rows from raw bars.
type Calculator struct {
	Lengths Lengths

	// Cache is optional.
	Cache *Cache
}

// NewCalculator returns a calculator for the given lengths.
func NewCalculator(l Lengths, cache *Cache) *Calculator {
	return &Calculator{Lengths: l, Cache: cache}
}

// Calculate returns one Row per bar. Readings are undefined until their
// indicator has seen enough history.
func (c *Calculator) Calculate(bs market.BarSet) ([]Row, error) {
	if err := c.Lengths.Validate(); err != nil {
		return nil, err
	}
	if err := bs.Validate(); err != nil {
		return nil, err
	}
	if need := c.Lengths.Warmup(); bs.Len() < need {
		return nil, fmt.Errorf("%w: %d bars, need at least %d", errs.ErrInsufficientData, bs.Len(), need)
	}

	bars := bs.Bars
	fp := bs.Fingerprint()

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	l := c.Lengths
	sma := c.Cache.column(fmt.Sprintf("close:SMA(%d)", l.SMA), fp, func() []Value {
		return ScalarSeries(NewSMA(l.SMA), closes)
	})
	vol := c.Cache.column(fmt.Sprintf("volume:SMA(%d)", l.VolumeSMA), fp, func() []Value {
		return ScalarSeries(NewSMA(l.VolumeSMA), volumes)
	})
	rsi := c.Cache.column(fmt.Sprintf("close:RSI(%d)", l.RSI), fp, func() []Value {
		return ScalarSeries(NewRSI(l.RSI), closes)
	})
	atr := c.Cache.column(fmt.Sprintf("ATR(%d)", l.ATR), fp, func() []Value {
		return BarSeries(NewATR(l.ATR), bars)
	})
	adx := c.Cache.column(fmt.Sprintf("ADX(%d)", l.ADX), fp, func() []Value {
		return BarSeries(NewADX(l.ADX), bars)
	})
	ha := HeikinAshiSeries(bars)

	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = Row{
			Bar:       b,
			HA:        ha[i],
			SMA:       sma[i],
			VolumeSMA: vol[i],
			RSI:       rsi[i],
			ATR:       atr[i],
			ADX:       adx[i],
		}
	}
	return rows, nil
}
