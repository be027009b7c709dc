package risk

import "math"

// PlannedRisk is the loss if a long position of size units entered at entry
// is stopped out at stop.
func PlannedRisk(size, entry, stop float64) float64 {
	return size * math.Abs(entry-stop)
}

// RR is the reward to risk ratio of a take-profit against a stop.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}
