package anomaly

import "time"

// Status is the outcome of one quality-rule execution. SKIPPED means the rule
// had no qualifying data; it is distinct from both PASS and FAIL.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
)

// Result is one quality-rule execution record. Results are append-only: every
// attempt gets its own id and a prior result is never overwritten.
type Result struct {
	ID             string    `json:"id" db:"id"`
	RuleID         string    `json:"ruleId" db:"rule_id"`
	Status         Status    `json:"status" db:"status"`
	RecordsChecked int       `json:"recordsChecked" db:"records_checked"`
	FailuresFound  int       `json:"failuresFound" db:"failures_found"`
	AnomalyScore   float64   `json:"anomalyScore" db:"anomaly_score"`
	RunAt          time.Time `json:"runAt" db:"run_at"`
}

// Rule type identifiers, matching the quality-rule catalog in the database.
const (
	RuleTypeZScore  = "ANOMALY_DETECTION"
	RuleTypeNull    = "NULL_CHECK"
	RuleTypeOutlier = "OUTLIER_MODEL"
)
