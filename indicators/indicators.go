// Package indicators provides technical analysis indicators for the trend
// strategy. Every indicator is causal: the value at index i depends only on
// inputs[0..i].
package indicators

import (
	"fmt"

	"github.com/rustyeddy/ladder/market"
)

// Indicator is the streaming form shared by every indicator in the package.
// It is deterministic and safe to use in live, replay, and backtests.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, or 0 when !Ready().
	Value() float64
}

// BarIndicator consumes whole bars (ATR, ADX).
type BarIndicator interface {
	Indicator
	Update(b market.Bar)
}

// ScalarIndicator consumes one number per bar (SMA, RSI).
type ScalarIndicator interface {
	Indicator
	Update(v float64)
}

// Value is an indicator reading. OK is false while the indicator is warming
// up; callers must treat such readings as undefined, never as zero.
type Value struct {
	V  float64
	OK bool
}

// Defined returns a defined Value.
func Defined(v float64) Value {
	return Value{V: v, OK: true}
}

// Undefined is the warm-up marker.
var Undefined = Value{}

func (v Value) String() string {
	if !v.OK {
		return "undefined"
	}
	return fmt.Sprintf("%.6f", v.V)
}

func snapshot(ind Indicator) Value {
	if !ind.Ready() {
		return Undefined
	}
	return Defined(ind.Value())
}

// ScalarSeries runs a fresh scalar indicator over values and records one
// reading per input.
func ScalarSeries(ind ScalarIndicator, values []float64) []Value {
	ind.Reset()
	out := make([]Value, len(values))
	for i, v := range values {
		ind.Update(v)
		out[i] = snapshot(ind)
	}
	return out
}

// BarSeries runs a fresh bar indicator over bars and records one reading per
// bar.
func BarSeries(ind BarIndicator, bars []market.Bar) []Value {
	ind.Reset()
	out := make([]Value, len(bars))
	for i, b := range bars {
		ind.Update(b)
		out[i] = snapshot(ind)
	}
	return out
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}
