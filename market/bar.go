// Package market holds the bar types consumed by the simulation and the
// loaders that read them from disk.
package market

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/rustyeddy/ladder/errs"
)

// Bar is one OHLCV candle. Bars are immutable once loaded.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSet is an ordered bar sequence for a single symbol and timeframe.
// Symbol and Timeframe are passed through to results; the simulation does not
// interpret them.
type BarSet struct {
	Symbol    string
	Timeframe string
	Bars      []Bar
}

// Len returns the number of bars.
func (bs BarSet) Len() int {
	return len(bs.Bars)
}

// Start returns the time of the first bar or the zero time.
func (bs BarSet) Start() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[0].Time
}

// End returns the time of the last bar or the zero time.
func (bs BarSet) End() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[len(bs.Bars)-1].Time
}

// Validate checks ordering and sanity of every bar.
func (bs BarSet) Validate() error {
	if len(bs.Bars) == 0 {
		return fmt.Errorf("%w: empty bar set", errs.ErrInsufficientData)
	}
	for i, b := range bs.Bars {
		if err := b.validate(); err != nil {
			return fmt.Errorf("bar %d (%s): %w", i, b.Time.Format(time.RFC3339), err)
		}
		if i > 0 && !b.Time.After(bs.Bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d timestamp %s not after %s", errs.ErrConfiguration,
				i, b.Time.Format(time.RFC3339), bs.Bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

func (b Bar) validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", errs.ErrConfiguration)
		}
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: prices must be positive", errs.ErrConfiguration)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.8f below low %.8f", errs.ErrConfiguration, b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume", errs.ErrConfiguration)
	}
	return nil
}

// Fingerprint returns a stable hash of the bar data. It keys caches that
// must not mix different datasets.
func (bs BarSet) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(u uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(u >> (8 * i))
		}
		h.Write(buf[:])
	}
	put(uint64(len(bs.Bars)))
	for _, b := range bs.Bars {
		put(uint64(b.Time.UnixNano()))
		put(math.Float64bits(b.Open))
		put(math.Float64bits(b.High))
		put(math.Float64bits(b.Low))
		put(math.Float64bits(b.Close))
		put(math.Float64bits(b.Volume))
	}
	return h.Sum64()
}
