package trust

import "time"

// QualityStats summarizes quality-rule executions over the report period
type QualityStats struct {
	TotalRules      int     `json:"totalRules"`
	ActiveRules     int     `json:"activeRules"`
	ChecksPassed    int     `json:"checksPassed"`
	ChecksFailed    int     `json:"checksFailed"`
	PassRate        float64 `json:"passRate"`
	AvgAnomalyScore float64 `json:"avgAnomalyScore"`
	RecordsChecked  int     `json:"recordsChecked"`
	FailuresFound   int     `json:"failuresFound"`
}

// SensitivityStats summarizes the PHI/PII data inventory
type SensitivityStats struct {
	TotalDatasets   int     `json:"totalDatasets"`
	PHIDatasets     int     `json:"phiDatasets"`
	PIIDatasets     int     `json:"piiDatasets"`
	PHICoverageRate float64 `json:"phiCoverageRate"`
}

// AccessStats summarizes sensitive-data access auditing
type AccessStats struct {
	TotalAccesses     int  `json:"totalAccesses"`
	UniqueAdminUsers  int  `json:"uniqueAdminUsers"`
	BulkAccessAlerts  int  `json:"bulkAccessAlerts"`
	AllAccessesLogged bool `json:"allAccessesLogged"`
}

// RetentionStats summarizes data-retention policy compliance
type RetentionStats struct {
	AuditLogsOverOneYear int  `json:"auditLogsOverOneYear"`
	ExpiredSessions      int  `json:"expiredSessions"`
	PolicyCompliant      bool `json:"policyCompliant"`
}

// UserStats summarizes account verification state
type UserStats struct {
	TotalUsers       int     `json:"totalUsers"`
	VerifiedProfiles int     `json:"verifiedProfiles"`
	VerificationRate float64 `json:"verificationRate"`
	BannedUsers      int     `json:"bannedUsers"`
	ActiveUsers      int     `json:"activeUsers"`
}

// Level is the discrete trust band for a composite score
type Level string

const (
	LevelExcellent      Level = "EXCELLENT"
	LevelGood           Level = "GOOD"
	LevelNeedsAttention Level = "NEEDS_ATTENTION"
	LevelCritical       Level = "CRITICAL"
)

// Components holds the unweighted 0-100 sub-scores
type Components struct {
	Quality    float64 `json:"quality"`
	Privacy    float64 `json:"privacy"`
	Integrity  float64 `json:"integrity"`
	Governance float64 `json:"governance"`
}

// TrustScore is the weighted composite. Always recomputed from a fresh
// snapshot of the underlying metrics, never incrementally updated.
type TrustScore struct {
	Overall    float64    `json:"overall"`
	Level      Level      `json:"level"`
	Components Components `json:"components"`
}

// Report bundles the trust score with the stat snapshot it derives from.
// Degraded names stat groups whose source failed and fell back to defaults.
type Report struct {
	Score       TrustScore       `json:"score"`
	Quality     QualityStats     `json:"quality"`
	Sensitivity SensitivityStats `json:"sensitivity"`
	Access      AccessStats      `json:"access"`
	Retention   RetentionStats   `json:"retention"`
	Users       UserStats        `json:"users"`
	Degraded    []string         `json:"degraded,omitempty"`
	PeriodDays  int              `json:"periodDays"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
