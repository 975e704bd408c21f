package anomaly

import "testing"

func TestZScore(t *testing.T) {
	t.Run("empty column is skipped", func(t *testing.T) {
		result := ZScore("rule-1", nil, 3)
		if result.Status != StatusSkipped {
			t.Errorf("expected SKIPPED for empty column, got %s", result.Status)
		}
		if result.RecordsChecked != 0 {
			t.Errorf("expected 0 records checked, got %d", result.RecordsChecked)
		}
	})

	t.Run("zero variance passes with score zero", func(t *testing.T) {
		values := []float64{7, 7, 7, 7, 7}
		result := ZScore("rule-1", values, 3)
		if result.Status != StatusPass {
			t.Errorf("expected PASS for constant column, got %s", result.Status)
		}
		if result.AnomalyScore != 0 {
			t.Errorf("expected score 0, got %f", result.AnomalyScore)
		}
		if result.FailuresFound != 0 {
			t.Errorf("expected no failures, got %d", result.FailuresFound)
		}
	})

	t.Run("single value has no spread", func(t *testing.T) {
		result := ZScore("rule-1", []float64{42}, 3)
		if result.Status != StatusPass {
			t.Errorf("expected PASS for single value, got %s", result.Status)
		}
	})

	t.Run("outlier fails", func(t *testing.T) {
		values := make([]float64, 25)
		for i := range values {
			values[i] = 10
		}
		values[24] = 100

		result := ZScore("rule-1", values, 3)
		if result.Status != StatusFail {
			t.Errorf("expected FAIL, got %s", result.Status)
		}
		if result.FailuresFound != 1 {
			t.Errorf("expected exactly one failure, got %d", result.FailuresFound)
		}
		if result.AnomalyScore <= 3 {
			t.Errorf("expected max z above threshold, got %f", result.AnomalyScore)
		}
		if result.RecordsChecked != 25 {
			t.Errorf("expected 25 records checked, got %d", result.RecordsChecked)
		}
	})

	t.Run("normal spread passes", func(t *testing.T) {
		values := []float64{9, 10, 11, 10, 9, 11, 10, 10, 9, 11}
		result := ZScore("rule-1", values, 3)
		if result.Status != StatusPass {
			t.Errorf("expected PASS, got %s", result.Status)
		}
		if result.AnomalyScore <= 0 {
			t.Error("expected a nonzero max z for a varying column")
		}
	})

	t.Run("non-positive threshold uses default", func(t *testing.T) {
		values := make([]float64, 25)
		for i := range values {
			values[i] = 10
		}
		values[24] = 100

		result := ZScore("rule-1", values, 0)
		if result.Status != StatusFail {
			t.Errorf("expected default threshold to apply, got %s", result.Status)
		}
	})

	t.Run("unique id per run", func(t *testing.T) {
		a := ZScore("rule-1", []float64{1, 2, 3}, 3)
		b := ZScore("rule-1", []float64{1, 2, 3}, 3)
		if a.ID == b.ID {
			t.Error("each run must mint its own result id")
		}
	})
}

func TestNullCheck(t *testing.T) {
	tests := []struct {
		name   string
		nulls  int
		total  int
		status Status
	}{
		{"empty table is skipped", 0, 0, StatusSkipped},
		{"no nulls passes", 0, 100, StatusPass},
		{"any null fails", 3, 100, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NullCheck("rule-2", tt.nulls, tt.total)
			if result.Status != tt.status {
				t.Errorf("NullCheck(%d, %d) = %s, want %s", tt.nulls, tt.total, result.Status, tt.status)
			}
			if result.FailuresFound != tt.nulls {
				t.Errorf("expected %d failures, got %d", tt.nulls, result.FailuresFound)
			}
			if result.RecordsChecked != tt.total {
				t.Errorf("expected %d records checked, got %d", tt.total, result.RecordsChecked)
			}
		})
	}
}
