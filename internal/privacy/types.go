package privacy

import "regexp"

// Rule represents a single sensitivity detection rule
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Mask    string
}

// Finding represents one detected sensitivity category in a scan
type Finding struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Confidence string `json:"confidence"`
}

// ScanResult contains the result of scanning a block of text
type ScanResult struct {
	Redacted string    `json:"redacted"`
	Findings []Finding `json:"findings"`
	Risk     RiskLevel `json:"risk"`
	TraceID  string    `json:"traceId"`
	Original string    `json:"-"` // never serialize original text
}

// ComplianceStandard tags every scan audit event
const ComplianceStandard = "HIPAA_SAFE_HARBOR"
