package quarantine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/schema"
)

// Gate validates raw records against typed schemas and routes every record to
// exactly one of ValidatedRecord or QuarantineRecord. It never panics out of
// Validate and never retries: retry policy belongs to the caller.
type Gate struct {
	registry *schema.Registry
	validate *validator.Validate
	logger   *logger.Logger
}

// NewGate creates a quarantine gate over the given schema registry
func NewGate(registry *schema.Registry, log *logger.Logger) *Gate {
	return &Gate{
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log,
	}
}

// Validate routes one raw record. The payload may be a structured mapping or
// a serialized JSON blob; a parse failure is a quarantine cause, not an error.
func (g *Gate) Validate(schemaName string, payload any, source string) (out Outcome) {
	// Any internal fault during coercion or validation becomes a quarantine
	// record so a single bad item cannot abort the caller's batch loop.
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("validation fault recovered",
				zap.String("schema", schemaName),
				zap.Any("panic", r))
			out = g.quarantine(payload, fmt.Sprintf("internal validation fault: %v", r), source, schemaName)
		}
	}()

	sch, ok := g.registry.Lookup(schemaName)
	if !ok {
		return g.quarantine(payload, fmt.Sprintf("unknown schema: %s", schemaName), source, schemaName)
	}

	fields, cause := g.toMapping(payload)
	if cause != "" {
		return g.quarantine(payload, cause, source, schemaName)
	}

	record := sch.New()
	if err := decodeFields(fields, record); err != nil {
		return g.quarantine(payload, fmt.Sprintf("decode error: %s", err), source, schemaName)
	}

	if err := g.validate.Struct(record); err != nil {
		return g.quarantine(payload, describeViolations(err), source, schemaName)
	}

	return ValidatedRecord{
		Record:      record,
		SchemaName:  schemaName,
		Source:      source,
		ValidatedAt: time.Now(),
	}
}

// ValidateBatch routes each record independently. One record's failure is
// contained in its own quarantine outcome.
func (g *Gate) ValidateBatch(schemaName string, payloads []any, source string) BatchResult {
	result := BatchResult{
		Processed: len(payloads),
		Outcomes:  make([]Outcome, 0, len(payloads)),
	}

	for _, payload := range payloads {
		outcome := g.Validate(schemaName, payload, source)
		result.Outcomes = append(result.Outcomes, outcome)

		switch o := outcome.(type) {
		case ValidatedRecord:
			result.Valid++
		case QuarantineRecord:
			result.Quarantined++
			result.Causes = append(result.Causes, o.Cause)
		}
	}

	g.logger.Info("batch validated",
		zap.String("schema", schemaName),
		zap.String("source", source),
		zap.Int("processed", result.Processed),
		zap.Int("valid", result.Valid),
		zap.Int("quarantined", result.Quarantined))

	return result
}

// toMapping converts the incoming payload to a field mapping, parsing
// serialized text blobs first. Returns a non-empty cause on failure.
func (g *Gate) toMapping(payload any) (map[string]any, string) {
	switch p := payload.(type) {
	case map[string]any:
		return p, ""
	case string:
		return parseJSON([]byte(p))
	case []byte:
		return parseJSON(p)
	default:
		return nil, fmt.Sprintf("unsupported payload type: %T", payload)
	}
}

func parseJSON(raw []byte) (map[string]any, string) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Sprintf("parse error: %s", err)
	}
	return fields, ""
}

// decodeFields coerces a raw field mapping into the typed schema instance.
// Weak typing mirrors the loose JSON sources feeding the pipeline (numbers
// arriving as strings, bools as 0/1).
func decodeFields(fields map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

// describeViolations flattens validator output into a cause string naming
// every violated field and constraint, not just the first.
func describeViolations(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Sprintf("validation error: %s", err)
	}

	parts := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		constraint := verr.Tag()
		if verr.Param() != "" {
			constraint += "=" + verr.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: failed %q", verr.Field(), constraint))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (g *Gate) quarantine(payload any, cause, source, schemaName string) QuarantineRecord {
	g.logger.Warn("record quarantined",
		zap.String("schema", schemaName),
		zap.String("source", source),
		zap.String("cause", cause))

	return QuarantineRecord{
		RawPayload:    payload,
		Cause:         cause,
		Source:        source,
		SchemaName:    schemaName,
		QuarantinedAt: time.Now(),
	}
}
