// Package strategies turns indicator rows into entry and exit signals.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/ladder/indicators"
)

// Signal is the action a strategy asks for on one bar.
type Signal int

const (
	None Signal = iota
	EnterLong
	ExitLong
)

func (s Signal) String() string {
	switch s {
	case None:
		return "none"
	case EnterLong:
		return "enter_long"
	case ExitLong:
		return "exit_long"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Strategy is a pure signal function. Signal must only read rows[0..i] and
// must not keep state between calls.
type Strategy interface {
	Name() string
	Signal(i int, rows []indicators.Row) Signal
}

// ByName returns the strategy registered under name.
func ByName(name string, p Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ha-trend", "heikin-ashi-trend":
		return HeikinAshiTrend{Params: p}, nil
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: ha-trend, noop)", name)
	}
}

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signal(int, []indicators.Row) Signal { return None }
