package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/neurokind/trust-engine/internal/quarantine"
)

// FileFormat represents a supported input file format
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatJSON    FileFormat = "json"
	FormatParquet FileFormat = "parquet"
	FormatUnknown FileFormat = "unknown"
)

// DetectFileFormat infers the file format from the extension
func DetectFileFormat(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// Options are the per-run ingestion parameters
type Options struct {
	SchemaName string
	Source     string
	DryRun     bool
}

// Result summarizes one ingestion run. Processed always equals Valid plus
// Quarantined: every record read ends up in exactly one of the two.
type Result struct {
	Processed    int64         `json:"processed"`
	Valid        int64         `json:"valid"`
	Quarantined  int64         `json:"quarantined"`
	PHIFindings  int64         `json:"phiFindings"`
	Causes       []string      `json:"causes,omitempty"`
	Duration     time.Duration `json:"duration"`
	DatabaseTime time.Duration `json:"databaseTime"`
}

// Sink persists ingestion outcomes. Quarantined records are kept with their
// raw payload so nothing read from a source file is ever silently dropped.
type Sink interface {
	InsertValidated(ctx context.Context, record quarantine.ValidatedRecord) error
	InsertQuarantine(ctx context.Context, record quarantine.QuarantineRecord) error
}
