package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ladder/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	adx.Update(bar)
//	if adx.Ready() && adx.Value() >= 20 { ... }
type ADX struct {
	Period int

	prev     market.Bar
	havePrev bool

	// Wilder-smoothed values after warmup
	tr    float64
	pdm   float64
	mdm   float64
	adx   float64
	dxSum float64

	// count of bars processed (including the first prev seed)
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{Period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX(%d)", a.Period)
}

// Warmup is 2*Period+1 bars: one seed bar, Period bars to initialize the
// smoothed TR/+DM/-DM, then Period DX values to initialize ADX.
func (a *ADX) Warmup() int {
	return 2*a.Period + 1
}

func (a *ADX) Reset() {
	*a = ADX{Period: a.Period}
}

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Ready() bool {
	return a.ready
}

func (a *ADX) Update(b market.Bar) {
	if !a.havePrev {
		a.prev = b
		a.havePrev = true
		a.count = 1
		return
	}

	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	tr := trueRange(b, a.prev)

	a.prev = b
	a.count++

	p := float64(a.Period)

	// Warmup phase A: simple averages of the first Period samples seed the
	// Wilder smoothing. Samples begin at count=2.
	if a.count <= a.Period+1 {
		a.tr += tr
		a.pdm += pdm
		a.mdm += mdm
		if a.count == a.Period+1 {
			a.tr /= p
			a.pdm /= p
			a.mdm /= p
		}
		return
	}

	a.tr = (a.tr*(p-1) + tr) / p
	a.pdm = (a.pdm*(p-1) + pdm) / p
	a.mdm = (a.mdm*(p-1) + mdm) / p

	dx := directionalIndex(a.tr, a.pdm, a.mdm)

	// Warmup phase B: first DX at count == Period+2, ADX seeded with the mean
	// of Period DX values at count == 2*Period+1.
	if !a.ready {
		a.dxSum += dx
		if a.count == 2*a.Period+1 {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return
	}

	a.adx = (a.adx*(p-1) + dx) / p
}

// directionalIndex returns DX in [0,100]. A flat market (no range or no
// directional movement) has DX 0.
func directionalIndex(tr, pdm, mdm float64) float64 {
	if tr == 0 {
		return 0
	}
	pdi := 100 * pdm / tr
	mdi := 100 * mdm / tr
	den := pdi + mdi
	if den == 0 {
		return 0
	}
	return 100 * math.Abs(pdi-mdi) / den
}

// ADXSeries returns the Average Directional Index series of bars.
func ADXSeries(bars []market.Bar, period int) ([]Value, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	return BarSeries(NewADX(period), bars), nil
}
