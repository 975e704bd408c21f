package trust

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/logger"
)

// MetricSource provides the five stat groups the report aggregates. Each
// group is fetched independently so one broken query cannot sink the rest.
type MetricSource interface {
	QualityStats(ctx context.Context, periodDays int) (QualityStats, error)
	SensitivityStats(ctx context.Context) (SensitivityStats, error)
	AccessStats(ctx context.Context, periodDays int) (AccessStats, error)
	RetentionStats(ctx context.Context) (RetentionStats, error)
	UserStats(ctx context.Context) (UserStats, error)
}

// ReportCache optionally caches the assembled report between runs. Cache
// failures are never fatal.
type ReportCache interface {
	GetReport(ctx context.Context) (*Report, bool)
	SetReport(ctx context.Context, report *Report)
}

// Collector assembles trust reports from a metric source
type Collector struct {
	source     MetricSource
	cache      ReportCache
	periodDays int
	logger     *logger.Logger
}

// NewCollector creates a report collector. cache may be nil.
func NewCollector(source MetricSource, cache ReportCache, periodDays int, log *logger.Logger) *Collector {
	if periodDays <= 0 {
		periodDays = 30
	}
	return &Collector{
		source:     source,
		cache:      cache,
		periodDays: periodDays,
		logger:     log,
	}
}

// Collect gathers every stat group and aggregates the trust score. A failing
// group is replaced by its neutral default and recorded in Degraded; the
// report itself is always produced.
func (c *Collector) Collect(ctx context.Context) *Report {
	report := &Report{
		PeriodDays:  c.periodDays,
		GeneratedAt: time.Now().UTC(),
	}

	quality, err := c.source.QualityStats(ctx, c.periodDays)
	if err != nil {
		c.degrade(report, "quality", err)
		quality = QualityStats{PassRate: 100}
	}

	sensitivity, err := c.source.SensitivityStats(ctx)
	if err != nil {
		c.degrade(report, "sensitivity", err)
		sensitivity = SensitivityStats{PHICoverageRate: 100}
	}

	access, err := c.source.AccessStats(ctx, c.periodDays)
	if err != nil {
		c.degrade(report, "access", err)
		access = AccessStats{AllAccessesLogged: true}
	}

	retention, err := c.source.RetentionStats(ctx)
	if err != nil {
		c.degrade(report, "retention", err)
		retention = RetentionStats{PolicyCompliant: true}
	}

	users, err := c.source.UserStats(ctx)
	if err != nil {
		c.degrade(report, "users", err)
		users = UserStats{VerificationRate: 100}
	}

	report.Quality = quality
	report.Sensitivity = sensitivity
	report.Access = access
	report.Retention = retention
	report.Users = users
	report.Score = Aggregate(quality, sensitivity, access, retention, users)

	c.logger.AuditEvent("TRUST_REPORT_GENERATED",
		zap.Float64("overall_score", report.Score.Overall),
		zap.String("trust_level", string(report.Score.Level)),
		zap.Int("period_days", c.periodDays),
		zap.Int("degraded_sources", len(report.Degraded)),
	)

	if c.cache != nil {
		c.cache.SetReport(ctx, report)
	}

	return report
}

// CachedOrCollect returns the cached report when one is fresh, otherwise it
// collects a new one.
func (c *Collector) CachedOrCollect(ctx context.Context) *Report {
	if c.cache != nil {
		if report, ok := c.cache.GetReport(ctx); ok {
			c.logger.Debug("trust report served from cache",
				zap.Time("generated_at", report.GeneratedAt))
			return report
		}
	}
	return c.Collect(ctx)
}

func (c *Collector) degrade(report *Report, group string, err error) {
	report.Degraded = append(report.Degraded, group)
	c.logger.Warn("metric source unavailable, using fallback defaults",
		zap.String("stat_group", group),
		zap.Error(err))
}
