package anomaly

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultZScoreThreshold is used when a rule's criteria carry no threshold.
const DefaultZScoreThreshold = 3.0

// ZScore flags every value whose absolute standardized deviation from the
// sample mean exceeds the threshold. Values are the non-null entries of one
// numeric column; the caller filters nulls at the source.
//
// A zero-variance column means no anomalies are possible: the result is PASS
// with score 0, never a division by zero.
func ZScore(ruleID string, values []float64, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultZScoreThreshold
	}

	result := Result{
		ID:             uuid.NewString(),
		RuleID:         ruleID,
		RecordsChecked: len(values),
		RunAt:          time.Now(),
	}

	if len(values) == 0 {
		result.Status = StatusSkipped
		return result
	}

	mean, std := meanStd(values)
	if std == 0 {
		result.Status = StatusPass
		return result
	}

	failures := 0
	maxScore := 0.0
	for _, v := range values {
		z := math.Abs((v - mean) / std)
		if z > threshold {
			failures++
		}
		if z > maxScore {
			maxScore = z
		}
	}

	result.FailuresFound = failures
	result.AnomalyScore = maxScore
	if failures > 0 {
		result.Status = StatusFail
	} else {
		result.Status = StatusPass
	}
	return result
}

// meanStd returns the sample mean and sample standard deviation. Fewer than
// two values have no defined spread, so std is 0.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return mean, 0
	}

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}
