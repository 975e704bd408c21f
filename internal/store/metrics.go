package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/neurokind/trust-engine/internal/trust"
)

// QualityStats summarizes quality rule runs over the trailing period
func (s *Store) QualityStats(ctx context.Context, periodDays int) (trust.QualityStats, error) {
	var stats trust.QualityStats

	ruleQuery := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_active) AS active
		FROM quality_rules`
	var rules struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := s.db.GetContext(ctx, &rules, ruleQuery); err != nil {
		return stats, fmt.Errorf("failed to count quality rules: %w", err)
	}
	stats.TotalRules = rules.Total
	stats.ActiveRules = rules.Active

	resultQuery := `
		SELECT COUNT(*) FILTER (WHERE status = 'PASS') AS passed,
		       COUNT(*) FILTER (WHERE status = 'FAIL') AS failed,
		       COALESCE(AVG(anomaly_score) FILTER (WHERE status <> 'SKIPPED'), 0) AS avg_score,
		       COALESCE(SUM(records_checked), 0) AS records,
		       COALESCE(SUM(failures_found), 0) AS failures
		FROM quality_results
		WHERE run_at > now() - make_interval(days => $1)`
	var results struct {
		Passed   int     `db:"passed"`
		Failed   int     `db:"failed"`
		AvgScore float64 `db:"avg_score"`
		Records  int     `db:"records"`
		Failures int     `db:"failures"`
	}
	if err := s.db.GetContext(ctx, &results, resultQuery, periodDays); err != nil {
		return stats, fmt.Errorf("failed to summarize quality results: %w", err)
	}

	stats.ChecksPassed = results.Passed
	stats.ChecksFailed = results.Failed
	stats.AvgAnomalyScore = results.AvgScore
	stats.RecordsChecked = results.Records
	stats.FailuresFound = results.Failures

	// No executed checks in the window is full credit, not zero: absence of
	// evidence is handled by the governance component instead.
	executed := results.Passed + results.Failed
	if executed == 0 {
		stats.PassRate = 100
	} else {
		stats.PassRate = float64(results.Passed) / float64(executed) * 100
	}

	return stats, nil
}

// SensitivityStats summarizes the dataset inventory and its scan coverage
func (s *Store) SensitivityStats(ctx context.Context) (trust.SensitivityStats, error) {
	var stats trust.SensitivityStats

	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE contains_phi) AS phi,
		       COUNT(*) FILTER (WHERE contains_pii AND NOT contains_phi) AS pii,
		       COUNT(*) FILTER (WHERE contains_phi AND phi_scan_enabled) AS covered
		FROM dataset_catalog`
	var row struct {
		Total   int `db:"total"`
		PHI     int `db:"phi"`
		PII     int `db:"pii"`
		Covered int `db:"covered"`
	}
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return stats, fmt.Errorf("failed to summarize dataset catalog: %w", err)
	}

	stats.TotalDatasets = row.Total
	stats.PHIDatasets = row.PHI
	stats.PIIDatasets = row.PII
	if row.PHI == 0 {
		stats.PHICoverageRate = 100
	} else {
		stats.PHICoverageRate = float64(row.Covered) / float64(row.PHI) * 100
	}

	return stats, nil
}

// AccessStats summarizes sensitive-data access auditing over the period
func (s *Store) AccessStats(ctx context.Context, periodDays int) (trust.AccessStats, error) {
	var stats trust.AccessStats

	query := `
		SELECT COUNT(*) AS total,
		       COUNT(DISTINCT actor_id) AS admins,
		       COUNT(*) FILTER (WHERE record_count >= 100) AS bulk,
		       COUNT(*) FILTER (WHERE actor_id IS NULL) AS unattributed
		FROM audit_logs
		WHERE action_type = 'PHI_ACCESS'
		  AND created_at > now() - make_interval(days => $1)`
	var row struct {
		Total        int `db:"total"`
		Admins       int `db:"admins"`
		Bulk         int `db:"bulk"`
		Unattributed int `db:"unattributed"`
	}
	if err := s.db.GetContext(ctx, &row, query, periodDays); err != nil {
		return stats, fmt.Errorf("failed to summarize access logs: %w", err)
	}

	stats.TotalAccesses = row.Total
	stats.UniqueAdminUsers = row.Admins
	stats.BulkAccessAlerts = row.Bulk
	stats.AllAccessesLogged = row.Unattributed == 0

	return stats, nil
}

// RetentionStats checks retention policy compliance
func (s *Store) RetentionStats(ctx context.Context) (trust.RetentionStats, error) {
	var stats trust.RetentionStats

	query := `
		SELECT (SELECT COUNT(*) FROM audit_logs
		        WHERE created_at < now() - interval '1 year') AS stale_logs,
		       (SELECT COUNT(*) FROM sessions
		        WHERE expires_at < now()) AS expired_sessions`
	var row struct {
		StaleLogs       int `db:"stale_logs"`
		ExpiredSessions int `db:"expired_sessions"`
	}
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return stats, fmt.Errorf("failed to check retention compliance: %w", err)
	}

	stats.AuditLogsOverOneYear = row.StaleLogs
	stats.ExpiredSessions = row.ExpiredSessions
	stats.PolicyCompliant = row.StaleLogs == 0 && row.ExpiredSessions == 0

	return stats, nil
}

// UserStats summarizes account verification state
func (s *Store) UserStats(ctx context.Context) (trust.UserStats, error) {
	var stats trust.UserStats

	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE email_verified) AS verified,
		       COUNT(*) FILTER (WHERE is_banned) AS banned,
		       COUNT(*) FILTER (WHERE last_active_at > now() - interval '30 days') AS active
		FROM users`
	var row struct {
		Total    int `db:"total"`
		Verified int `db:"verified"`
		Banned   int `db:"banned"`
		Active   int `db:"active"`
	}
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return stats, fmt.Errorf("failed to summarize users: %w", err)
	}

	stats.TotalUsers = row.Total
	stats.VerifiedProfiles = row.Verified
	stats.BannedUsers = row.Banned
	stats.ActiveUsers = row.Active
	if row.Total == 0 {
		stats.VerificationRate = 100
	} else {
		stats.VerificationRate = float64(row.Verified) / float64(row.Total) * 100
	}

	return stats, nil
}

// DailyCounts returns per-day row counts for a drift metric over the trailing
// window, oldest day first. Today is excluded; days with no rows count as 0.
func (s *Store) DailyCounts(ctx context.Context, metric string, days int) ([]float64, error) {
	table, ok := driftMetricTables[metric]
	if !ok {
		return nil, fmt.Errorf("unknown drift metric: %s", metric)
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(COUNT(t.created_at), 0)
		FROM generate_series(
			current_date - make_interval(days => $1),
			current_date - interval '1 day',
			interval '1 day') AS day
		LEFT JOIN %s t ON t.created_at >= day AND t.created_at < day + interval '1 day'
		GROUP BY day
		ORDER BY day`, pq.QuoteIdentifier(table))

	var counts []float64
	if err := s.db.SelectContext(ctx, &counts, query, days); err != nil {
		return nil, fmt.Errorf("failed to read daily counts for %s: %w", metric, err)
	}
	return counts, nil
}

// TodayCount reads the current day's running row count for a drift metric
func (s *Store) TodayCount(ctx context.Context, metric string) (float64, error) {
	table, ok := driftMetricTables[metric]
	if !ok {
		return 0, fmt.Errorf("unknown drift metric: %s", metric)
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE created_at >= current_date",
		pq.QuoteIdentifier(table))

	var count float64
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count today's rows for %s: %w", metric, err)
	}
	return count, nil
}

// driftMetricTables maps drift metric names to the tables they count
var driftMetricTables = map[string]string{
	"users":    "users",
	"posts":    "posts",
	"comments": "comments",
	"ingested": "ingested_records",
}
