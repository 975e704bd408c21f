package trust

import (
	"context"
	"fmt"
	"testing"

	"github.com/neurokind/trust-engine/internal/logger"
)

type fakeMetrics struct {
	quality     QualityStats
	sensitivity SensitivityStats
	access      AccessStats
	retention   RetentionStats
	users       UserStats
	failGroups  map[string]bool
}

func (f *fakeMetrics) QualityStats(ctx context.Context, periodDays int) (QualityStats, error) {
	if f.failGroups["quality"] {
		return QualityStats{}, fmt.Errorf("quality query failed")
	}
	return f.quality, nil
}

func (f *fakeMetrics) SensitivityStats(ctx context.Context) (SensitivityStats, error) {
	if f.failGroups["sensitivity"] {
		return SensitivityStats{}, fmt.Errorf("sensitivity query failed")
	}
	return f.sensitivity, nil
}

func (f *fakeMetrics) AccessStats(ctx context.Context, periodDays int) (AccessStats, error) {
	if f.failGroups["access"] {
		return AccessStats{}, fmt.Errorf("access query failed")
	}
	return f.access, nil
}

func (f *fakeMetrics) RetentionStats(ctx context.Context) (RetentionStats, error) {
	if f.failGroups["retention"] {
		return RetentionStats{}, fmt.Errorf("retention query failed")
	}
	return f.retention, nil
}

func (f *fakeMetrics) UserStats(ctx context.Context) (UserStats, error) {
	if f.failGroups["users"] {
		return UserStats{}, fmt.Errorf("users query failed")
	}
	return f.users, nil
}

type fakeReportCache struct {
	report *Report
	sets   int
}

func (f *fakeReportCache) GetReport(ctx context.Context) (*Report, bool) {
	return f.report, f.report != nil
}

func (f *fakeReportCache) SetReport(ctx context.Context, report *Report) {
	f.report = report
	f.sets++
}

func healthyMetrics() *fakeMetrics {
	return &fakeMetrics{
		quality:     QualityStats{PassRate: 95, ActiveRules: 3, ChecksPassed: 19, ChecksFailed: 1},
		sensitivity: SensitivityStats{PHICoverageRate: 100, TotalDatasets: 12, PHIDatasets: 4},
		access:      AccessStats{AllAccessesLogged: true, TotalAccesses: 42},
		retention:   RetentionStats{PolicyCompliant: true},
		users:       UserStats{VerificationRate: 90, TotalUsers: 1000},
	}
}

func TestCollectorCollect(t *testing.T) {
	collector := NewCollector(healthyMetrics(), nil, 30, logger.Nop())

	report := collector.Collect(context.Background())

	if report.Score.Level != LevelExcellent {
		t.Errorf("expected EXCELLENT, got %s", report.Score.Level)
	}
	if len(report.Degraded) != 0 {
		t.Errorf("healthy sources must not degrade: %v", report.Degraded)
	}
	if report.PeriodDays != 30 {
		t.Errorf("expected period 30, got %d", report.PeriodDays)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
}

func TestCollectorDegradedGroups(t *testing.T) {
	source := healthyMetrics()
	source.failGroups = map[string]bool{"users": true, "retention": true}
	collector := NewCollector(source, nil, 30, logger.Nop())

	report := collector.Collect(context.Background())

	if len(report.Degraded) != 2 {
		t.Fatalf("expected 2 degraded groups, got %v", report.Degraded)
	}

	// Fallback defaults are neutral: a missing source must not tank the score.
	if report.Users.VerificationRate != 100 {
		t.Errorf("expected fallback verification rate 100, got %f", report.Users.VerificationRate)
	}
	if !report.Retention.PolicyCompliant {
		t.Error("expected fallback retention compliance")
	}
	if report.Score.Overall <= 0 {
		t.Errorf("degraded report must still carry a score, got %f", report.Score.Overall)
	}
}

func TestCollectorAllSourcesDown(t *testing.T) {
	source := &fakeMetrics{failGroups: map[string]bool{
		"quality": true, "sensitivity": true, "access": true, "retention": true, "users": true,
	}}
	collector := NewCollector(source, nil, 30, logger.Nop())

	report := collector.Collect(context.Background())

	if len(report.Degraded) != 5 {
		t.Fatalf("expected all 5 groups degraded, got %v", report.Degraded)
	}
	// All-default inputs with zero active rules: governance is the only hit.
	if report.Score.Level == "" {
		t.Error("expected a level even with every source down")
	}
}

func TestCollectorCaching(t *testing.T) {
	cache := &fakeReportCache{}
	collector := NewCollector(healthyMetrics(), cache, 30, logger.Nop())

	first := collector.Collect(context.Background())
	if cache.sets != 1 {
		t.Fatalf("expected the report to be cached, sets = %d", cache.sets)
	}

	cached := collector.CachedOrCollect(context.Background())
	if cached != first {
		t.Error("expected the cached report to be served")
	}
	if cache.sets != 1 {
		t.Errorf("cached read must not recollect, sets = %d", cache.sets)
	}
}
