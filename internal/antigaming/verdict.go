package antigaming

// Violation names reported in a GamingVerdict.
const (
	ViolationMassChanges         = "mass_changes"
	ViolationResolveReintroduce  = "resolve_reintroduce"
	ViolationSuspiciousHighScore = "suspicious_high_score"
	ViolationWeightManipulation  = "weight_manipulation"

	// ReasonMultipleViolations is the reason when more than one check fired.
	ReasonMultipleViolations = "multiple_violations"

	auditLogPrefix = "anti_gaming_violation:"
)

// GamingVerdict is the outcome of one detection run.
type GamingVerdict struct {
	IsGaming      bool     `json:"is_gaming"`
	Reason        *string  `json:"reason"`
	Violations    []string `json:"violations"`
	PenaltyPoints int      `json:"penalty_points"`
	AuditLogs     []string `json:"audit_logs"`
}

func newVerdict(violations []string, penaltyPerViolation int) GamingVerdict {
	if len(violations) == 0 {
		return GamingVerdict{
			Violations: []string{},
			AuditLogs:  []string{},
		}
	}

	reason := ReasonMultipleViolations
	if len(violations) == 1 {
		reason = violations[0]
	}
	logs := make([]string, len(violations))
	for i, v := range violations {
		logs[i] = auditLogPrefix + v
	}
	return GamingVerdict{
		IsGaming:      true,
		Reason:        &reason,
		Violations:    violations,
		PenaltyPoints: len(violations) * penaltyPerViolation,
		AuditLogs:     logs,
	}
}

// ReasonString returns the reason, or "" when the verdict is clean.
func (v GamingVerdict) ReasonString() string {
	if v.Reason == nil {
		return ""
	}
	return *v.Reason
}

// Apply subtracts the penalty points from score, flooring at 0.
func (v GamingVerdict) Apply(score int) int {
	return max(0, score-v.PenaltyPoints)
}
