package drift

import (
	"context"
	"fmt"
	"testing"

	"github.com/neurokind/trust-engine/internal/logger"
)

type fakeCounts struct {
	counts map[string][]float64
	err    error
	calls  int
}

func (f *fakeCounts) DailyCounts(ctx context.Context, metric string, days int) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.counts[metric], nil
}

type fakeWindowCache struct {
	windows map[string][]float64
	sets    int
}

func (f *fakeWindowCache) GetWindow(ctx context.Context, metric string) ([]float64, bool) {
	counts, ok := f.windows[metric]
	return counts, ok
}

func (f *fakeWindowCache) SetWindow(ctx context.Context, metric string, counts []float64) {
	if f.windows == nil {
		f.windows = make(map[string][]float64)
	}
	f.windows[metric] = counts
	f.sets++
}

func TestMonitorCheckMetric(t *testing.T) {
	source := &fakeCounts{counts: map[string][]float64{
		"users": {10, 10, 10, 10, 10, 10, 10},
	}}
	monitor := NewMonitor(source, nil, 0.2, 7, logger.Nop())

	alert, err := monitor.CheckMetric(context.Background(), "users", 3)
	if err != nil {
		t.Fatalf("CheckMetric failed: %v", err)
	}
	if alert == "" {
		t.Error("expected a drift alert for a 70% drop")
	}

	alert, err = monitor.CheckMetric(context.Background(), "users", 10)
	if err != nil {
		t.Fatal(err)
	}
	if alert != "" {
		t.Errorf("expected no alert at baseline, got %q", alert)
	}
}

func TestMonitorSourceError(t *testing.T) {
	source := &fakeCounts{err: fmt.Errorf("database down")}
	monitor := NewMonitor(source, nil, 0.2, 7, logger.Nop())

	if _, err := monitor.CheckMetric(context.Background(), "users", 5); err == nil {
		t.Fatal("expected error when history is unavailable")
	}
}

func TestMonitorUsesCache(t *testing.T) {
	source := &fakeCounts{counts: map[string][]float64{
		"posts": {20, 20, 20, 20, 20, 20, 20},
	}}
	cache := &fakeWindowCache{}
	monitor := NewMonitor(source, cache, 0.2, 7, logger.Nop())

	if _, err := monitor.CheckMetric(context.Background(), "posts", 20); err != nil {
		t.Fatal(err)
	}
	if source.calls != 1 || cache.sets != 1 {
		t.Fatalf("expected one source read and one cache write, got %d/%d", source.calls, cache.sets)
	}

	// Second check hits the cached window.
	if _, err := monitor.CheckMetric(context.Background(), "posts", 20); err != nil {
		t.Fatal(err)
	}
	if source.calls != 1 {
		t.Errorf("expected cached window to serve the second check, source calls = %d", source.calls)
	}
}
