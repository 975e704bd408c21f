package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/logger"
)

// ForestConfig contains the multivariate outlier model parameters. These are
// configuration inputs, not constants: contamination is the expected fraction
// of outliers in the reference window.
type ForestConfig struct {
	Contamination float64
	Trees         int
	SampleSize    int
	Seed          int64
}

// DefaultForestConfig returns the stock model parameters
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Contamination: 0.1,
		Trees:         100,
		SampleSize:    256,
		Seed:          42,
	}
}

// ForestDetector is an isolation-forest outlier detector over numeric feature
// vectors. The fitted state lives in an atomic snapshot: inference reads the
// snapshot, Fit installs a new one wholesale. Refitting never mutates a model
// concurrent readers may hold.
type ForestDetector struct {
	cfg    ForestConfig
	logger *logger.Logger
	model  atomic.Pointer[forestModel]
}

// forestModel is one immutable fitted snapshot
type forestModel struct {
	trees      []*isoNode
	means      []float64
	stds       []float64
	dims       int
	sampleSize int
	boundary   float64 // scores above this are anomalous
	trainedOn  int
	fittedAt   time.Time
}

// isoNode is one isolation tree node. Leaves carry the external node size.
type isoNode struct {
	splitDim int
	splitVal float64
	left     *isoNode
	right    *isoNode
	size     int
}

// NewForestDetector creates an unfit detector. Until Fit succeeds, Detect
// marks nothing as anomalous.
func NewForestDetector(cfg ForestConfig, log *logger.Logger) *ForestDetector {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 256
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 0.5 {
		cfg.Contamination = 0.1
	}
	return &ForestDetector{cfg: cfg, logger: log}
}

// Fitted reports whether a model snapshot is installed
func (d *ForestDetector) Fitted() bool {
	return d.model.Load() != nil
}

// Fit trains a new model on a reference window of feature vectors and installs
// it atomically. An empty window is a no-op: any previous snapshot stays live.
// Fit is an explicit operation; inference never triggers it.
func (d *ForestDetector) Fit(vectors [][]float64) error {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		d.logger.Warn("outlier model fit skipped: no numeric data")
		return nil
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("inconsistent vector width at row %d: got %d, want %d", i, len(v), dims)
		}
	}

	means, stds := columnStats(vectors, dims)
	scaled := standardize(vectors, means, stds)

	n := len(scaled)
	sampleSize := d.cfg.SampleSize
	if sampleSize > n {
		sampleSize = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize) + 1)))

	rng := rand.New(rand.NewSource(d.cfg.Seed))
	trees := make([]*isoNode, d.cfg.Trees)
	for i := range trees {
		sample := rng.Perm(n)[:sampleSize]
		trees[i] = buildTree(scaled, sample, 0, maxDepth, rng)
	}

	model := &forestModel{
		trees:      trees,
		means:      means,
		stds:       stds,
		dims:       dims,
		sampleSize: sampleSize,
		trainedOn:  n,
		fittedAt:   time.Now(),
	}

	// The inlier boundary is the contamination quantile of the training
	// scores: the top fraction of the reference window is treated as outlying.
	trainScores := make([]float64, n)
	for i, v := range scaled {
		trainScores[i] = model.score(v)
	}
	model.boundary = quantile(trainScores, 1-d.cfg.Contamination)

	d.model.Store(model)

	d.logger.Info("outlier model fitted",
		zap.Int("records", n),
		zap.Int("dims", dims),
		zap.Int("trees", len(trees)),
		zap.Float64("boundary", model.boundary))

	return nil
}

// DetectResult holds per-vector outlier verdicts
type DetectResult struct {
	Flags    []bool
	Scores   []float64
	MaxScore float64
	Fitted   bool
}

// Detect scores feature vectors against the current snapshot. With no fitted
// model, an empty frame, or a width mismatch it marks nothing as anomalous
// and never returns an error.
func (d *ForestDetector) Detect(vectors [][]float64) DetectResult {
	result := DetectResult{
		Flags:  make([]bool, len(vectors)),
		Scores: make([]float64, len(vectors)),
	}

	model := d.model.Load()
	if model == nil || len(vectors) == 0 {
		return result
	}
	result.Fitted = true

	for i, v := range vectors {
		if len(v) != model.dims {
			continue
		}
		scaled := make([]float64, model.dims)
		for j, val := range v {
			scaled[j] = (val - model.means[j]) / model.stds[j]
		}
		score := model.score(scaled)
		result.Scores[i] = score
		result.Flags[i] = score > model.boundary
		if score > result.MaxScore {
			result.MaxScore = score
		}
	}

	return result
}

// Evaluate runs the detector as a quality rule over a frame of vectors.
// An unfit model or an empty frame is insufficient data, not a failure.
func (d *ForestDetector) Evaluate(ruleID string, vectors [][]float64) Result {
	result := Result{
		ID:             uuid.NewString(),
		RuleID:         ruleID,
		RecordsChecked: len(vectors),
		RunAt:          time.Now(),
	}

	detection := d.Detect(vectors)
	if !detection.Fitted || len(vectors) == 0 {
		result.Status = StatusSkipped
		return result
	}

	for _, flagged := range detection.Flags {
		if flagged {
			result.FailuresFound++
		}
	}
	result.AnomalyScore = detection.MaxScore
	if result.FailuresFound > 0 {
		result.Status = StatusFail
	} else {
		result.Status = StatusPass
	}
	return result
}

// score returns the isolation score in (0, 1]; higher is more anomalous
func (m *forestModel) score(scaled []float64) float64 {
	total := 0.0
	for _, tree := range m.trees {
		total += pathLength(scaled, tree, 0)
	}
	avgPath := total / float64(len(m.trees))
	return math.Pow(2, -avgPath/avgPathNorm(m.sampleSize))
}

// buildTree grows one isolation tree over the sampled row indices
func buildTree(data [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(idx) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(idx)}
	}

	dims := len(data[idx[0]])
	dim := rng.Intn(dims)

	lo, hi := data[idx[0]][dim], data[idx[0]][dim]
	for _, i := range idx[1:] {
		v := data[i][dim]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(idx)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []int
	for _, i := range idx {
		if data[i][dim] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isoNode{
		splitDim: dim,
		splitVal: split,
		left:     buildTree(data, left, depth+1, maxDepth, rng),
		right:    buildTree(data, right, depth+1, maxDepth, rng),
	}
}

// pathLength walks a vector down one tree, crediting leaves with the average
// unbuilt-subtree depth for their size
func pathLength(v []float64, node *isoNode, depth float64) float64 {
	if node.left == nil && node.right == nil {
		return depth + avgPathNorm(node.size)
	}
	if v[node.splitDim] < node.splitVal {
		return pathLength(v, node.left, depth+1)
	}
	return pathLength(v, node.right, depth+1)
}

// avgPathNorm is c(n), the average path length of an unsuccessful BST search,
// used to normalize isolation depths
func avgPathNorm(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
	}
}

// columnStats returns per-column mean and standard deviation, with zero
// spreads clamped to 1 so standardization never divides by zero
func columnStats(vectors [][]float64, dims int) ([]float64, []float64) {
	n := float64(len(vectors))
	means := make([]float64, dims)
	stds := make([]float64, dims)

	for _, v := range vectors {
		for j, val := range v {
			means[j] += val
		}
	}
	for j := range means {
		means[j] /= n
	}

	for _, v := range vectors {
		for j, val := range v {
			d := val - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	return means, stds
}

func standardize(vectors [][]float64, means, stds []float64) [][]float64 {
	scaled := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, val := range v {
			row[j] = (val - means[j]) / stds[j]
		}
		scaled[i] = row
	}
	return scaled
}

// quantile returns the q-th quantile of values (nearest-rank)
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
