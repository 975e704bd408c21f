package drift

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/logger"
)

// CountSource provides trailing per-day counts for a named metric. The window
// excludes the current day.
type CountSource interface {
	DailyCounts(ctx context.Context, metric string, days int) ([]float64, error)
}

// WindowCache optionally caches the trailing window between runs. A miss just
// falls through to the source; cache failures are never fatal.
type WindowCache interface {
	GetWindow(ctx context.Context, metric string) ([]float64, bool)
	SetWindow(ctx context.Context, metric string, counts []float64)
}

// Monitor checks named metrics for drift against their rolling history
type Monitor struct {
	source    CountSource
	cache     WindowCache
	threshold float64
	window    int
	logger    *logger.Logger
}

// NewMonitor creates a drift monitor. cache may be nil.
func NewMonitor(source CountSource, cache WindowCache, threshold float64, windowDays int, log *logger.Logger) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Monitor{
		source:    source,
		cache:     cache,
		threshold: threshold,
		window:    windowDays,
		logger:    log,
	}
}

// CheckMetric gathers the trailing window for metric and evaluates drift.
// Returns the alert string, or "" when there is no drift or no baseline.
func (m *Monitor) CheckMetric(ctx context.Context, metric string, current float64) (string, error) {
	history, err := m.windowFor(ctx, metric)
	if err != nil {
		return "", fmt.Errorf("gathering history for %s: %w", metric, err)
	}

	alert, drifted := Check(metric, current, history, m.threshold)
	if drifted {
		m.logger.Warn("metric drift detected",
			zap.String("metric", metric),
			zap.Float64("current", current),
			zap.Int("window_days", len(history)))
	}
	return alert, nil
}

func (m *Monitor) windowFor(ctx context.Context, metric string) ([]float64, error) {
	if m.cache != nil {
		if counts, ok := m.cache.GetWindow(ctx, metric); ok {
			return counts, nil
		}
	}

	counts, err := m.source.DailyCounts(ctx, metric, m.window)
	if err != nil {
		return nil, err
	}

	if m.cache != nil && len(counts) > 0 {
		m.cache.SetWindow(ctx, metric, counts)
	}
	return counts, nil
}
