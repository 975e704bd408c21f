package anomaly

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/neurokind/trust-engine/internal/logger"
)

// clusterVectors generates a tight two-dimensional cluster around the origin
func clusterVectors(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float64, n)
	for i := range vectors {
		vectors[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
	}
	return vectors
}

func TestForestUnfitted(t *testing.T) {
	detector := NewForestDetector(DefaultForestConfig(), logger.Nop())

	if detector.Fitted() {
		t.Fatal("new detector must not be fitted")
	}

	detection := detector.Detect([][]float64{{1, 2}, {3, 4}})
	if detection.Fitted {
		t.Error("unfit detector must report Fitted=false")
	}
	for i, flagged := range detection.Flags {
		if flagged {
			t.Errorf("unfit detector flagged vector %d", i)
		}
	}

	result := detector.Evaluate("rule-3", [][]float64{{1, 2}})
	if result.Status != StatusSkipped {
		t.Errorf("expected SKIPPED from unfit detector, got %s", result.Status)
	}
}

func TestForestFitEmpty(t *testing.T) {
	detector := NewForestDetector(DefaultForestConfig(), logger.Nop())

	if err := detector.Fit(nil); err != nil {
		t.Fatalf("empty fit must be a no-op, got error: %v", err)
	}
	if detector.Fitted() {
		t.Error("empty fit must not install a model")
	}
}

func TestForestFitWidthMismatch(t *testing.T) {
	detector := NewForestDetector(DefaultForestConfig(), logger.Nop())

	err := detector.Fit([][]float64{{1, 2}, {1, 2, 3}})
	if err == nil {
		t.Fatal("expected error for inconsistent vector widths")
	}
}

func TestForestSeparatesOutlier(t *testing.T) {
	detector := NewForestDetector(ForestConfig{
		Contamination: 0.1,
		Trees:         100,
		SampleSize:    128,
		Seed:          42,
	}, logger.Nop())

	if err := detector.Fit(clusterVectors(300, 1)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !detector.Fitted() {
		t.Fatal("expected fitted detector")
	}

	inlier := []float64{0.1, -0.2}
	outlier := []float64{50, 50}
	detection := detector.Detect([][]float64{inlier, outlier})

	if !detection.Fitted {
		t.Fatal("expected Fitted=true after fit")
	}
	if !detection.Flags[1] {
		t.Errorf("far-out vector not flagged (score %f, inlier %f)",
			detection.Scores[1], detection.Scores[0])
	}
	if detection.Scores[1] <= detection.Scores[0] {
		t.Errorf("outlier score %f should exceed inlier score %f",
			detection.Scores[1], detection.Scores[0])
	}
}

func TestForestEvaluate(t *testing.T) {
	detector := NewForestDetector(DefaultForestConfig(), logger.Nop())
	if err := detector.Fit(clusterVectors(300, 2)); err != nil {
		t.Fatal(err)
	}

	t.Run("clean frame passes", func(t *testing.T) {
		result := detector.Evaluate("rule-3", [][]float64{{0.1, 0.1}, {-0.3, 0.2}})
		if result.Status == StatusSkipped {
			t.Fatal("fitted detector must not skip a non-empty frame")
		}
		if result.RecordsChecked != 2 {
			t.Errorf("expected 2 records checked, got %d", result.RecordsChecked)
		}
	})

	t.Run("frame with outlier fails", func(t *testing.T) {
		result := detector.Evaluate("rule-3", [][]float64{{0.1, 0.1}, {80, -90}})
		if result.Status != StatusFail {
			t.Errorf("expected FAIL, got %s", result.Status)
		}
		if result.FailuresFound < 1 {
			t.Error("expected at least one flagged record")
		}
		if result.AnomalyScore <= 0 {
			t.Error("expected a positive anomaly score")
		}
	})

	t.Run("empty frame is skipped", func(t *testing.T) {
		result := detector.Evaluate("rule-3", nil)
		if result.Status != StatusSkipped {
			t.Errorf("expected SKIPPED for empty frame, got %s", result.Status)
		}
	})
}

func TestForestDeterministicWithSeed(t *testing.T) {
	train := clusterVectors(200, 3)
	probe := [][]float64{{0.5, 0.5}, {30, -30}}

	a := NewForestDetector(ForestConfig{Contamination: 0.1, Trees: 50, SampleSize: 128, Seed: 7}, logger.Nop())
	b := NewForestDetector(ForestConfig{Contamination: 0.1, Trees: 50, SampleSize: 128, Seed: 7}, logger.Nop())
	if err := a.Fit(train); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(train); err != nil {
		t.Fatal(err)
	}

	da, db := a.Detect(probe), b.Detect(probe)
	for i := range probe {
		if da.Scores[i] != db.Scores[i] {
			t.Errorf("same seed produced different scores for vector %d: %f vs %f",
				i, da.Scores[i], db.Scores[i])
		}
	}
}

func TestForestConcurrentDetectDuringRefit(t *testing.T) {
	detector := NewForestDetector(DefaultForestConfig(), logger.Nop())
	if err := detector.Fit(clusterVectors(200, 4)); err != nil {
		t.Fatal(err)
	}

	probe := [][]float64{{0.1, 0.1}, {40, 40}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				detection := detector.Detect(probe)
				if !detection.Fitted {
					t.Error("detector lost its model during refit")
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			if err := detector.Fit(clusterVectors(200, int64(j))); err != nil {
				t.Errorf("refit failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}
