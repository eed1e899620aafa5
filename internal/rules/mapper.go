package rules

import (
	"slices"

	"github.com/google/uuid"

	"github.com/contractiq/coherence/internal/model"
)

// RuleMapping is the static metadata for one rule id.
type RuleMapping struct {
	Category    model.Category
	Severity    model.Severity
	Description string
}

// defaultSeverity applies to rule ids the mapper does not know.
const defaultSeverity = model.SeverityMedium

var ruleMappings = map[string]RuleMapping{
	RuleLegalNonCompliant: {
		Category:    model.CategoryLegal,
		Severity:    model.SeverityMedium,
		Description: "Project documents are not legally compliant",
	},
	RuleScheduleConflict: {
		Category:    model.CategoryTime,
		Severity:    model.SeverityMedium,
		Description: "Schedule milestones conflict with each other",
	},
	RuleTechnicalInconsistent: {
		Category:    model.CategoryTechnical,
		Severity:    model.SeverityMedium,
		Description: "Technical documentation is inconsistent",
	},
	RuleScheduleOverrun: {
		Category:    model.CategoryTime,
		Severity:    model.SeverityMedium,
		Description: "Schedule exceeds the contractual deadline",
	},
	RuleBudgetDeviation: {
		Category:    model.CategoryBudget,
		Severity:    model.SeverityHigh,
		Description: "Bill of materials deviates 10% or more from the contract price",
	},
	RulePenaltyWithoutMilestone: {
		Category:    model.CategoryLegal,
		Severity:    model.SeverityHigh,
		Description: "Penalty clause is not linked to a known milestone",
	},
	RuleScopeUndefined: {
		Category:    model.CategoryScope,
		Severity:    model.SeverityMedium,
		Description: "Project scope is not defined",
	},
	RuleCriticalCostOverrun: {
		Category:    model.CategoryBudget,
		Severity:    model.SeverityCritical,
		Description: "Critical cost overrun",
	},
	RuleBudgetLineUnassigned: {
		Category:    model.CategoryBudget,
		Severity:    model.SeverityMedium,
		Description: "Bill of materials item has no budget line",
	},
	RuleMissingStandard: {
		Category:    model.CategoryQuality,
		Severity:    model.SeverityHigh,
		Description: "Specification does not reference a standard",
	},
	RuleMissingCertification: {
		Category:    model.CategoryQuality,
		Severity:    model.SeverityHigh,
		Description: "Material requiring certification has no certification code",
	},
	RuleMissingApprover: {
		Category:    model.CategoryLegal,
		Severity:    model.SeverityHigh,
		Description: "Approver is missing or unnamed",
	},
}

// Lookup returns the mapping for ruleID. Unknown ids map to CategoryUnknown
// with a medium severity and ok=false.
func Lookup(ruleID string) (mapping RuleMapping, ok bool) {
	mapping, ok = ruleMappings[ruleID]
	if !ok {
		return RuleMapping{Category: model.CategoryUnknown, Severity: defaultSeverity}, false
	}
	return mapping, true
}

// CategoryFor returns the category owning ruleID.
func CategoryFor(ruleID string) model.Category {
	m, _ := Lookup(ruleID)
	return m.Category
}

// SeverityFor returns the default severity of ruleID.
func SeverityFor(ruleID string) model.Severity {
	m, _ := Lookup(ruleID)
	return m.Severity
}

// KnownRuleIDs returns every mapped rule id in numeric order.
func KnownRuleIDs() []string {
	ids := make([]string, 0, len(ruleMappings))
	for id := range ruleMappings {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareRuleIDs)
	return ids
}

// BuildAlert creates an alert for ruleID with the mapper's category and
// default severity.
func BuildAlert(ruleID, message string, affected []uuid.UUID) model.Alert {
	m, _ := Lookup(ruleID)
	if affected == nil {
		affected = []uuid.UUID{}
	}
	return model.Alert{
		RuleID:           ruleID,
		Title:            "Alert " + ruleID,
		Message:          message,
		Severity:         m.Severity,
		Category:         m.Category,
		AffectedEntities: affected,
		Metadata:         map[string]any{},
	}
}

// compareRuleIDs orders "R2" before "R10".
func compareRuleIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
