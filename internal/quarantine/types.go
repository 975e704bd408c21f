package quarantine

import "time"

// Outcome is the result of routing one raw record through the gate. It has
// exactly two variants, ValidatedRecord and QuarantineRecord, so callers must
// handle both branches explicitly.
type Outcome interface {
	outcome()
}

// ValidatedRecord wraps a fully conforming typed entity plus validation
// metadata. Immutable once created.
type ValidatedRecord struct {
	Record      any       `json:"record"`
	SchemaName  string    `json:"schemaName"`
	Source      string    `json:"source"`
	ValidatedAt time.Time `json:"validatedAt"`
}

func (ValidatedRecord) outcome() {}

// QuarantineRecord carries the original raw payload verbatim together with a
// human-readable cause. Terminal: it is never retried automatically, only
// logged and inspected.
type QuarantineRecord struct {
	RawPayload    any       `json:"rawPayload"`
	Cause         string    `json:"cause"`
	Source        string    `json:"source"`
	SchemaName    string    `json:"schemaName"`
	QuarantinedAt time.Time `json:"quarantinedAt"`
}

func (QuarantineRecord) outcome() {}

// BatchResult summarizes routing a batch of raw records. Valid plus
// Quarantined always equals Processed.
type BatchResult struct {
	Processed   int       `json:"processed"`
	Valid       int       `json:"valid"`
	Quarantined int       `json:"quarantined"`
	Causes      []string  `json:"causes,omitempty"`
	Outcomes    []Outcome `json:"-"`
}
