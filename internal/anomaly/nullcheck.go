package anomaly

import (
	"time"

	"github.com/google/uuid"
)

// NullCheck fails when a column holds any null values. RecordsChecked is the
// table's total row count so pass rates stay comparable across rules.
func NullCheck(ruleID string, nullCount, totalRows int) Result {
	result := Result{
		ID:             uuid.NewString(),
		RuleID:         ruleID,
		RecordsChecked: totalRows,
		FailuresFound:  nullCount,
		RunAt:          time.Now(),
	}

	switch {
	case totalRows == 0:
		result.Status = StatusSkipped
	case nullCount > 0:
		result.Status = StatusFail
	default:
		result.Status = StatusPass
	}
	return result
}
