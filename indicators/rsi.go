package indicators

import "fmt"

// RSI is a streaming Relative Strength Index with Wilder smoothing.
type RSI struct {
	period  int
	prev    float64
	hasPrev bool
	count   int
	avgGain float64
	avgLoss float64
}

// NewRSI creates a new Relative Strength Index with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}

func (r *RSI) Update(v float64) {
	if !r.hasPrev {
		r.prev = v
		r.hasPrev = true
		return
	}

	change := v - r.prev
	r.prev = v

	var gain, loss float64
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	p := float64(r.period)
	if r.count < r.period {
		r.avgGain += gain
		r.avgLoss += loss
		r.count++
		if r.count == r.period {
			r.avgGain /= p
			r.avgLoss /= p
		}
		return
	}

	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
}

func (r *RSI) Ready() bool {
	return r.count >= r.period
}

// Value returns 100 when there were only gains and 50 when price did not move.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// RSISeries returns the Relative Strength Index series of values.
func RSISeries(values []float64, period int) ([]Value, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	return ScalarSeries(NewRSI(period), values), nil
}
