package trust

// Component weights. Quality dominates: a platform that fails its own quality
// checks cannot buy back trust through governance paperwork.
const (
	weightQuality    = 0.40
	weightPrivacy    = 0.30
	weightIntegrity  = 0.20
	weightGovernance = 0.10
)

// Aggregate computes the weighted composite trust score from a metric
// snapshot. Boolean compliance signals map to fixed sub-scores rather than
// zero: an unlogged access trail halves the privacy credit, it does not erase
// it.
func Aggregate(q QualityStats, s SensitivityStats, a AccessStats, r RetentionStats, u UserStats) TrustScore {
	quality := clamp(q.PassRate)

	accessScore := 50.0
	if a.AllAccessesLogged {
		accessScore = 100
	}
	privacy := clamp((clamp(s.PHICoverageRate) + accessScore) / 2)

	retentionScore := 60.0
	if r.PolicyCompliant {
		retentionScore = 100
	}
	integrity := clamp((clamp(u.VerificationRate) + retentionScore) / 2)

	governance := 50.0
	if q.ActiveRules > 0 {
		governance = 100
	}

	overall := clamp(quality*weightQuality +
		privacy*weightPrivacy +
		integrity*weightIntegrity +
		governance*weightGovernance)

	return TrustScore{
		Overall: overall,
		Level:   LevelFor(overall),
		Components: Components{
			Quality:    quality,
			Privacy:    privacy,
			Integrity:  integrity,
			Governance: governance,
		},
	}
}

// LevelFor maps a composite score to its trust band. Lower bounds are
// inclusive: exactly 90 is EXCELLENT, exactly 75 is GOOD.
func LevelFor(score float64) Level {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 60:
		return LevelNeedsAttention
	default:
		return LevelCritical
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
