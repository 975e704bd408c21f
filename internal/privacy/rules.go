package privacy

import "regexp"

// DefaultRules returns the Safe Harbor identifier catalog in its fixed scan
// order. Order matters: each rule sees text already masked by earlier rules,
// so critical identifiers come first and more specific patterns precede more
// general ones (MRN before the bare numeric patterns). Every mask is inert
// against the whole catalog, which keeps re-scans of redacted output clean.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "SSN",
			Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Mask:    "XXX-XX-XXXX",
		},
		{
			Name:    "MRN",
			Pattern: regexp.MustCompile(`\bMRN:?\s*\d{6,10}\b`),
			Mask:    "MRN: [REDACTED]",
		},
		{
			Name:    "DOB",
			Pattern: regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
			Mask:    "XX/XX/XXXX",
		},
		{
			Name:    "PHONE",
			Pattern: regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			Mask:    "(XXX) XXX-XXXX",
		},
		{
			Name:    "EMAIL",
			Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			Mask:    "[REDACTED_EMAIL]",
		},
	}
}
