package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/anomaly"
	"github.com/neurokind/trust-engine/internal/config"
	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/quarantine"
)

// Store handles all PostgreSQL reads and writes for the engine
type Store struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewStore connects to PostgreSQL and verifies the connection
func NewStore(cfg *config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	store := &Store{
		db:     db,
		logger: log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Info("store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.URL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return store, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// ActiveRules loads the enabled quality rules in catalog order
func (s *Store) ActiveRules(ctx context.Context) ([]anomaly.QualityRule, error) {
	query := `
		SELECT id, name, rule_type, table_name, field_name, feature_columns, threshold, severity
		FROM quality_rules
		WHERE is_active = true
		ORDER BY created_at, id`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load quality rules: %w", err)
	}
	defer rows.Close()

	var rules []anomaly.QualityRule
	for rows.Next() {
		var rule anomaly.QualityRule
		var columns pq.StringArray
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.RuleType, &rule.TableName,
			&rule.FieldName, &columns, &rule.Threshold, &rule.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan quality rule: %w", err)
		}
		rule.Columns = []string(columns)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// NumericColumn reads the non-null values of one numeric column
func (s *Store) NumericColumn(ctx context.Context, table, column string) ([]float64, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL",
		pq.QuoteIdentifier(column), pq.QuoteIdentifier(table), pq.QuoteIdentifier(column))

	var values []float64
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", table, column, err)
	}
	return values, nil
}

// NullCount counts null values in one column
func (s *Store) NullCount(ctx context.Context, table, column string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(column))

	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count nulls in %s.%s: %w", table, column, err)
	}
	return count, nil
}

// RowCount counts the rows of a table
func (s *Store) RowCount(ctx context.Context, table string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(table))

	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// FeatureVectors reads complete rows of the named numeric columns. Rows with
// any null feature are excluded: the outlier model has no notion of missing.
func (s *Store) FeatureVectors(ctx context.Context, table string, columns []string) ([][]float64, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no feature columns configured for %s", table)
	}

	quoted := make([]string, len(columns))
	notNull := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		notNull[i] = quoted[i] + " IS NOT NULL"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(quoted, ", "), pq.QuoteIdentifier(table), strings.Join(notNull, " AND "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature vectors from %s: %w", table, err)
	}
	defer rows.Close()

	var vectors [][]float64
	dest := make([]float64, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan feature vector: %w", err)
		}
		row := make([]float64, len(dest))
		copy(row, dest)
		vectors = append(vectors, row)
	}
	return vectors, rows.Err()
}

// InsertQualityResult appends one quality result row. Results are immutable
// history: there is no update path.
func (s *Store) InsertQualityResult(ctx context.Context, result anomaly.Result) error {
	query := `
		INSERT INTO quality_results (id, rule_id, status, records_checked, failures_found, anomaly_score, run_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		result.ID, result.RuleID, string(result.Status),
		result.RecordsChecked, result.FailuresFound, result.AnomalyScore, result.RunAt)
	if err != nil {
		return fmt.Errorf("failed to insert quality result: %w", err)
	}

	s.logger.Debug("quality result recorded",
		zap.String("rule_id", result.RuleID),
		zap.String("status", string(result.Status)))
	return nil
}

// InsertQuarantine persists one quarantined record with its raw payload
func (s *Store) InsertQuarantine(ctx context.Context, record quarantine.QuarantineRecord) error {
	payload, err := json.Marshal(record.RawPayload)
	if err != nil {
		payload = []byte(fmt.Sprintf("%q", fmt.Sprintf("%v", record.RawPayload)))
	}

	query := `
		INSERT INTO quarantine_records (raw_payload, cause, source, schema_name, quarantined_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.ExecContext(ctx, query,
		payload, record.Cause, record.Source, record.SchemaName, record.QuarantinedAt); err != nil {
		return fmt.Errorf("failed to insert quarantine record: %w", err)
	}
	return nil
}

// InsertValidated persists one validated record into the ingest landing table
func (s *Store) InsertValidated(ctx context.Context, record quarantine.ValidatedRecord) error {
	payload, err := json.Marshal(record.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal validated record: %w", err)
	}

	query := `
		INSERT INTO ingested_records (schema_name, source, payload, validated_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query,
		record.SchemaName, record.Source, payload, record.ValidatedAt); err != nil {
		return fmt.Errorf("failed to insert validated record: %w", err)
	}
	return nil
}

// maskDatabaseURL masks credentials in the connection URL for logging
func maskDatabaseURL(url string) string {
	if idx := strings.Index(url, "@"); idx != -1 {
		if start := strings.Index(url, "://"); start != -1 {
			return url[:start+3] + "***:***" + url[idx:]
		}
	}
	return url
}
