package strategies

import (
	"github.com/rustyeddy/ladder/indicators"
)

// Params are the thresholds of HeikinAshiTrend.
type Params struct {
	ADXThreshold     float64
	VolumeMultiplier float64
	RSIEntryMin      float64
	RSIEntryMax      float64
	RSIExit          float64
}

// HeikinAshiTrend goes long on a strong Heikin-Ashi candle inside an
// established, rising trend with volume participation and RSI momentum.
//
// Entry requires all of:
//   - a bullish Heikin-Ashi candle with no lower wick
//   - close above the SMA and the SMA not falling
//   - ADX at or above ADXThreshold
//   - volume at or above VolumeMultiplier times the volume SMA
//   - RSI within [RSIEntryMin, RSIEntryMax]
//
// Exit requires any of: close below the SMA, a bearish Heikin-Ashi candle,
// RSI at or above RSIExit. Exit is evaluated first and wins when both hold.
// A condition that needs an undefined reading is false.
type HeikinAshiTrend struct {
	Params Params
}

func (s HeikinAshiTrend) Name() string { return "ha-trend" }

func (s HeikinAshiTrend) Signal(i int, rows []indicators.Row) Signal {
	if i < 0 || i >= len(rows) {
		return None
	}
	if s.exit(rows[i]) {
		return ExitLong
	}
	if i > 0 && s.entry(rows[i-1], rows[i]) {
		return EnterLong
	}
	return None
}

func (s HeikinAshiTrend) exit(r indicators.Row) bool {
	if r.SMA.OK && r.Close < r.SMA.V {
		return true
	}
	if r.HA.Bearish() {
		return true
	}
	return r.RSI.OK && r.RSI.V >= s.Params.RSIExit
}

func (s HeikinAshiTrend) entry(prev, r indicators.Row) bool {
	p := s.Params

	if !r.HA.Bullish() || !r.HA.NoLowerWick() {
		return false
	}
	if !r.SMA.OK || !prev.SMA.OK || r.Close <= r.SMA.V || r.SMA.V < prev.SMA.V {
		return false
	}
	if !r.ADX.OK || r.ADX.V < p.ADXThreshold {
		return false
	}
	if !r.VolumeSMA.OK || r.Volume < p.VolumeMultiplier*r.VolumeSMA.V {
		return false
	}
	// No entry until the bar can be sized.
	if !r.ATR.OK || r.ATR.V <= 0 {
		return false
	}
	return r.RSI.OK && r.RSI.V >= p.RSIEntryMin && r.RSI.V <= p.RSIEntryMax
}
