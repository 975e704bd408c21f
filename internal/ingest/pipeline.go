package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/neurokind/trust-engine/internal/config"
	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/privacy"
	"github.com/neurokind/trust-engine/internal/quarantine"
)

// Pipeline ingests dataset files through the quarantine gate. Free-text
// fields pass through the sensitivity scanner before validation so stored
// records carry masked values, never the originals.
type Pipeline struct {
	gate    *quarantine.Gate
	scanner *privacy.Scanner
	sink    Sink
	config  *config.IngestConfig
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewPipeline creates an ingestion pipeline. scanner may be nil to skip
// text scanning; writes are rate-limited when WriteRate is set.
func NewPipeline(gate *quarantine.Gate, scanner *privacy.Scanner, sink Sink, cfg *config.IngestConfig, log *logger.Logger) *Pipeline {
	limit := rate.Inf
	if cfg.WriteRate > 0 {
		limit = rate.Limit(cfg.WriteRate)
	}
	burst := cfg.WriteBurst
	if burst <= 0 {
		burst = 1
	}

	return &Pipeline{
		gate:    gate,
		scanner: scanner,
		sink:    sink,
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// ProcessFile ingests one dataset file
func (p *Pipeline) ProcessFile(ctx context.Context, filePath string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{}

	format := DetectFileFormat(filePath)
	p.logger.Info("starting ingestion",
		zap.String("file", filePath),
		zap.String("format", string(format)),
		zap.String("schema", opts.SchemaName),
		zap.String("source", opts.Source),
		zap.Int("batch_size", p.config.BatchSize),
		zap.Bool("dry_run", opts.DryRun))

	var err error
	switch format {
	case FormatCSV:
		err = p.processCSV(ctx, filePath, opts, result)
	case FormatJSON:
		err = p.processJSON(ctx, filePath, opts, result)
	case FormatParquet:
		err = p.processParquet(ctx, filePath, opts, result)
	default:
		return result, fmt.Errorf("unsupported file format: %s", filePath)
	}
	if err != nil {
		return result, err
	}

	result.Duration = time.Since(start)

	p.logger.Info("ingestion completed",
		zap.Int64("processed", result.Processed),
		zap.Int64("valid", result.Valid),
		zap.Int64("quarantined", result.Quarantined),
		zap.Int64("phi_findings", result.PHIFindings),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// malformedRecord is a line the reader could not parse. It still counts as a
// record and is quarantined with the read error as its cause.
type malformedRecord struct {
	raw   any
	cause string
}

// processCSV reads a CSV file with a header row, one record per data row
func (p *Pipeline) processCSV(ctx context.Context, filePath string, opts Options, result *Result) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	p.logger.Debug("CSV header detected", zap.Strings("columns", header))

	return p.processBatches(ctx, opts, result, func() ([]any, error) {
		var batch []any
		for len(batch) < p.config.BatchSize {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				batch = append(batch, malformedRecord{
					raw:   strings.Join(row, ","),
					cause: fmt.Sprintf("parse error: %s", err),
				})
				continue
			}
			if len(row) != len(header) {
				batch = append(batch, malformedRecord{
					raw:   strings.Join(row, ","),
					cause: fmt.Sprintf("parse error: record has %d fields, header has %d", len(row), len(header)),
				})
				continue
			}

			record := make(map[string]any, len(header))
			for i, col := range header {
				record[col] = strings.TrimSpace(row[i])
			}
			batch = append(batch, record)
		}
		return batch, nil
	})
}

// processJSON reads one JSON object per line. A malformed line is routed as
// its raw text so it surfaces as a parse-error quarantine record; it never
// stops the file or drops neighboring lines.
func (p *Pipeline) processJSON(ctx context.Context, filePath string, opts Options, result *Result) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return p.processBatches(ctx, opts, result, func() ([]any, error) {
		var batch []any
		for len(batch) < p.config.BatchSize && scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var record map[string]any
			if err := json.Unmarshal([]byte(line), &record); err != nil {
				// The gate turns an unparseable string payload into a
				// parse-error quarantine record.
				batch = append(batch, line)
				continue
			}
			batch = append(batch, record)
		}
		if err := scanner.Err(); err != nil {
			return batch, fmt.Errorf("failed to read JSON lines: %w", err)
		}
		return batch, nil
	})
}

// processParquet reads flat Parquet files, mapping leaf columns to fields
func (p *Pipeline) processParquet(ctx context.Context, filePath string, opts Options, result *Result) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	columns := leafColumnNames(reader.Schema())

	return p.processBatches(ctx, opts, result, func() ([]any, error) {
		var batch []any
		rows := make([]parquet.Row, p.config.BatchSize)
		n, err := reader.ReadRows(rows)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read Parquet rows: %w", err)
		}
		for _, row := range rows[:n] {
			batch = append(batch, rowToMap(row, columns))
		}
		return batch, nil
	})
}

// processBatches drains the reader, routing every record through the gate.
// Reads continue until an empty batch; one record's fate never affects the
// next record's.
func (p *Pipeline) processBatches(ctx context.Context, opts Options, result *Result, readBatch func() ([]any, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		for _, record := range batch {
			if err := p.processRecord(ctx, record, opts, result); err != nil {
				return err
			}
		}

		if p.config.ProgressReport > 0 && result.Processed%int64(p.config.ProgressReport) < int64(len(batch)) {
			p.reportProgress(result)
		}
	}
}

// processRecord scans, validates, and persists one record
func (p *Pipeline) processRecord(ctx context.Context, record any, opts Options, result *Result) error {
	if m, ok := record.(malformedRecord); ok {
		out := quarantine.QuarantineRecord{
			RawPayload:    m.raw,
			Cause:         m.cause,
			Source:        opts.Source,
			SchemaName:    opts.SchemaName,
			QuarantinedAt: time.Now(),
		}
		result.Processed++
		result.Quarantined++
		result.Causes = append(result.Causes, out.Cause)
		if opts.DryRun {
			return nil
		}
		return p.writeQuarantine(ctx, out, result)
	}

	if fields, ok := record.(map[string]any); ok && p.config.ScanText && p.scanner != nil {
		result.PHIFindings += int64(p.redactStrings(fields))
	}

	outcome := p.gate.Validate(opts.SchemaName, record, opts.Source)
	result.Processed++

	switch out := outcome.(type) {
	case quarantine.ValidatedRecord:
		result.Valid++
		if !opts.DryRun {
			if err := p.writeValidated(ctx, out, result); err != nil {
				return err
			}
		}
	case quarantine.QuarantineRecord:
		result.Quarantined++
		result.Causes = append(result.Causes, out.Cause)
		if !opts.DryRun {
			if err := p.writeQuarantine(ctx, out, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// redactStrings masks sensitive values in-place and returns the number of
// categories found across the record's string fields
func (p *Pipeline) redactStrings(record map[string]any) int {
	findings := 0
	for key, value := range record {
		text, ok := value.(string)
		if !ok || text == "" {
			continue
		}
		scan := p.scanner.ScanAndRedact(text)
		if len(scan.Findings) > 0 {
			record[key] = scan.Redacted
			findings += len(scan.Findings)
		}
	}
	return findings
}

func (p *Pipeline) writeValidated(ctx context.Context, record quarantine.ValidatedRecord, result *Result) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := p.sink.InsertValidated(ctx, record)
	result.DatabaseTime += time.Since(start)
	if err != nil {
		return fmt.Errorf("failed to persist validated record: %w", err)
	}
	return nil
}

func (p *Pipeline) writeQuarantine(ctx context.Context, record quarantine.QuarantineRecord, result *Result) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := p.sink.InsertQuarantine(ctx, record)
	result.DatabaseTime += time.Since(start)
	if err != nil {
		return fmt.Errorf("failed to persist quarantine record: %w", err)
	}
	return nil
}

func (p *Pipeline) reportProgress(result *Result) {
	p.logger.Info("ingestion progress",
		zap.Int64("processed", result.Processed),
		zap.Int64("valid", result.Valid),
		zap.Int64("quarantined", result.Quarantined))
}

// leafColumnNames returns the leaf field names of a flat Parquet schema in
// column order
func leafColumnNames(schema *parquet.Schema) []string {
	fields := schema.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return names
}

// rowToMap converts a flat Parquet row to a field map
func rowToMap(row parquet.Row, columns []string) map[string]any {
	record := make(map[string]any, len(columns))
	for _, value := range row {
		idx := value.Column()
		if idx < 0 || idx >= len(columns) {
			continue
		}
		record[columns[idx]] = parquetValue(value)
	}
	return record
}

func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return v.String()
	default:
		return v.String()
	}
}
