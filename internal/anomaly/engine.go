package anomaly

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/logger"
)

// QualityRule is one active rule from the quality-rule catalog
type QualityRule struct {
	ID        string   `db:"id"`
	Name      string   `db:"name"`
	RuleType  string   `db:"rule_type"`
	TableName string   `db:"table_name"`
	FieldName string   `db:"field_name"`
	Columns   []string `db:"-"` // feature columns for the outlier model
	Threshold float64  `db:"threshold"`
	Severity  string   `db:"severity"`
}

// DataSource provides the row and aggregate reads the engine needs. The
// engine never opens connections itself.
type DataSource interface {
	ActiveRules(ctx context.Context) ([]QualityRule, error)
	NumericColumn(ctx context.Context, table, column string) ([]float64, error)
	NullCount(ctx context.Context, table, column string) (int, error)
	RowCount(ctx context.Context, table string) (int, error)
	FeatureVectors(ctx context.Context, table string, columns []string) ([][]float64, error)
}

// ResultWriter persists quality results, append-only
type ResultWriter interface {
	InsertQualityResult(ctx context.Context, result Result) error
}

// Engine executes all active quality rules against the data source. Rules run
// independently: one rule's failure is reported, never fatal to the batch.
type Engine struct {
	source   DataSource
	results  ResultWriter
	forest   *ForestDetector
	zDefault float64
	logger   *logger.Logger
}

// NewEngine creates a quality-rule engine
func NewEngine(source DataSource, results ResultWriter, forest *ForestDetector, zScoreThreshold float64, log *logger.Logger) *Engine {
	if zScoreThreshold <= 0 {
		zScoreThreshold = DefaultZScoreThreshold
	}
	return &Engine{
		source:   source,
		results:  results,
		forest:   forest,
		zDefault: zScoreThreshold,
		logger:   log,
	}
}

// RunChecks executes every active quality rule and persists one QualityResult
// row per executed rule. The returned slice holds the results in rule order.
func (e *Engine) RunChecks(ctx context.Context) ([]Result, error) {
	rules, err := e.source.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	results := make([]Result, 0, len(rules))
	for _, rule := range rules {
		result, err := e.runRule(ctx, rule)
		if err != nil {
			e.logger.Error("quality rule failed",
				zap.String("rule_id", rule.ID),
				zap.String("rule_type", rule.RuleType),
				zap.Error(err))
			continue
		}

		if err := e.results.InsertQualityResult(ctx, result); err != nil {
			e.logger.Error("failed to persist quality result",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
		}

		e.logger.AuditEvent("QUALITY_RULE_COMPLETED",
			zap.String("rule_id", rule.ID),
			zap.String("status", string(result.Status)),
			zap.Int("records_checked", result.RecordsChecked),
			zap.Int("failures_found", result.FailuresFound),
		)

		results = append(results, result)
	}

	e.logger.Info("quality checks completed",
		zap.Int("rules", len(rules)),
		zap.Int("executed", len(results)))

	return results, nil
}

// runRule routes one rule to its strategy
func (e *Engine) runRule(ctx context.Context, rule QualityRule) (Result, error) {
	switch rule.RuleType {
	case RuleTypeZScore:
		values, err := e.source.NumericColumn(ctx, rule.TableName, rule.FieldName)
		if err != nil {
			return Result{}, fmt.Errorf("fetching column %s.%s: %w", rule.TableName, rule.FieldName, err)
		}
		threshold := rule.Threshold
		if threshold <= 0 {
			threshold = e.zDefault
		}
		return ZScore(rule.ID, values, threshold), nil

	case RuleTypeNull:
		nulls, err := e.source.NullCount(ctx, rule.TableName, rule.FieldName)
		if err != nil {
			return Result{}, fmt.Errorf("counting nulls in %s.%s: %w", rule.TableName, rule.FieldName, err)
		}
		total, err := e.source.RowCount(ctx, rule.TableName)
		if err != nil {
			return Result{}, fmt.Errorf("counting rows in %s: %w", rule.TableName, err)
		}
		return NullCheck(rule.ID, nulls, total), nil

	case RuleTypeOutlier:
		if e.forest == nil {
			return Result{}, fmt.Errorf("no outlier detector configured")
		}
		vectors, err := e.source.FeatureVectors(ctx, rule.TableName, rule.Columns)
		if err != nil {
			return Result{}, fmt.Errorf("fetching feature vectors from %s: %w", rule.TableName, err)
		}
		return e.forest.Evaluate(rule.ID, vectors), nil

	default:
		return Result{}, fmt.Errorf("unknown rule type: %s", rule.RuleType)
	}
}

// FitOutlierModel refits the multivariate detector on a reference window.
// This is the only path that refits: inference never does so implicitly.
func (e *Engine) FitOutlierModel(ctx context.Context, table string, columns []string) error {
	if e.forest == nil {
		return fmt.Errorf("no outlier detector configured")
	}

	vectors, err := e.source.FeatureVectors(ctx, table, columns)
	if err != nil {
		return fmt.Errorf("fetching reference window from %s: %w", table, err)
	}

	return e.forest.Fit(vectors)
}
