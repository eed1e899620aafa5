// Package rules provides the deterministic coherence rule sets and the alert
// mapper that gives every rule id its category and default severity.
package rules

// Rule identifiers.
const (
	RuleLegalNonCompliant       = "R1"
	RuleScheduleConflict        = "R2"
	RuleTechnicalInconsistent   = "R3"
	RuleScheduleOverrun         = "R5"
	RuleBudgetDeviation         = "R6"
	RulePenaltyWithoutMilestone = "R8"
	RuleScopeUndefined          = "R11"
	RuleCriticalCostOverrun     = "R14"
	RuleBudgetLineUnassigned    = "R15"
	RuleMissingStandard         = "R17"
	RuleMissingCertification    = "R18"
	RuleMissingApprover         = "R20"
)

// Metadata keys attached to aggregated alerts.
const (
	MetaMissingMilestoneCount     = "missing_milestone_count"
	MetaMissingApproverCount      = "missing_approver_count"
	MetaMissingStandardCount      = "missing_standard_count"
	MetaMissingCertificationCount = "missing_certification_count"
)

// BudgetDeviationThreshold is the relative BOM-vs-contract deviation that
// triggers R6.
const BudgetDeviationThreshold = 0.10

// Category scores applied by the v2 engine when a check fails.
const (
	failedCheckScore    = 70
	budgetDeviatedScore = 0
)
