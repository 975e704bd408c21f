package privacy

// RiskLevel is the qualitative re-identification risk of a findings set
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// String returns the canonical label for the risk level
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// criticalCategories are identifiers whose presence alone means the text can
// re-identify an individual.
var criticalCategories = map[string]bool{
	"SSN": true,
	"MRN": true,
}

// Classify maps a findings set to a risk level. Rules apply in order, first
// match wins:
//
//  1. no findings                                  -> LOW
//  2. any critical identifier (SSN, MRN)           -> HIGH
//  3. two or more distinct categories, or total
//     occurrence count above five                  -> MEDIUM
//  4. otherwise                                    -> LOW
//
// Rule 3 uses category diversity rather than volume alone: co-occurring weak
// identifiers compound re-identification risk (the mosaic effect).
func Classify(findings []Finding) RiskLevel {
	if len(findings) == 0 {
		return RiskLow
	}

	totalCount := 0
	categories := make(map[string]bool, len(findings))
	for _, f := range findings {
		totalCount += f.Count
		categories[f.Category] = true
	}

	for category := range categories {
		if criticalCategories[category] {
			return RiskHigh
		}
	}

	if len(categories) >= 2 || totalCount > 5 {
		return RiskMedium
	}

	return RiskLow
}
