package indicators

import "fmt"

// SimpleMA is a streaming Simple Moving Average.
type SimpleMA struct {
	period int
	window []float64
}

// NewSMA creates a new Simple Moving Average with the given period.
func NewSMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.window = m.window[:0]
}

func (m *SimpleMA) Update(v float64) {
	m.window = append(m.window, v)
	// Keep only the last 'period' values
	if len(m.window) > m.period {
		m.window = m.window[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return len(m.window) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, v := range m.window {
		sum += v
	}
	return sum / float64(m.period)
}

// SMA returns the simple moving average series of values.
func SMA(values []float64, period int) ([]Value, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	return ScalarSeries(NewSMA(period), values), nil
}
