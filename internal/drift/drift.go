package drift

import "fmt"

// DefaultThreshold is the relative deviation above which drift is flagged
const DefaultThreshold = 0.2

// Check compares a current-period count against the mean of a trailing window
// of per-day counts and returns a formatted alert when the relative deviation
// exceeds the threshold. Pure: the only output is the returned alert.
//
// An empty window is insufficient history, not drift. A zero mean is also no
// alert: a move from zero has no baseline to deviate from.
func Check(metric string, current float64, history []float64, threshold float64) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if len(history) == 0 {
		return "", false
	}

	sum := 0.0
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(len(history))

	if mean == 0 {
		return "", false
	}

	deviation := (current - mean) / mean
	if deviation < 0 {
		deviation = -deviation
	}

	if deviation <= threshold {
		return "", false
	}

	alert := fmt.Sprintf("[DRIFT DETECTED] %s: current=%g, rolling_avg=%.2f, deviation=%.2f%%",
		metric, current, mean, deviation*100)
	return alert, true
}
