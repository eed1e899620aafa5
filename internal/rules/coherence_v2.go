package rules

import (
	"math"

	"github.com/contractiq/coherence/internal/model"
)

// BOMItem is one bill-of-materials line.
type BOMItem struct {
	Amount             float64 `json:"amount"`
	BudgetLineAssigned bool    `json:"budget_line_assigned"`
}

// CoherenceContext is the input of the generic v2 engine.
type CoherenceContext struct {
	ContractPrice          float64   `json:"contract_price"`
	BOMItems               []BOMItem `json:"bom_items"`
	ScopeDefined           bool      `json:"scope_defined"`
	ScheduleWithinContract bool      `json:"schedule_within_contract"`
	TechnicalConsistent    bool      `json:"technical_consistent"`
	LegalCompliant         bool      `json:"legal_compliant"`
	QualityStandardMet     bool      `json:"quality_standard_met"`
}

// BOMTotal sums every BOM line amount.
func (c *CoherenceContext) BOMTotal() float64 {
	var total float64
	for _, item := range c.BOMItems {
		total += item.Amount
	}
	return total
}

// BudgetDeviation returns |BOM total - contract price| / contract price, and
// false when the contract price is not positive.
func (c *CoherenceContext) BudgetDeviation() (float64, bool) {
	if c.ContractPrice <= 0 {
		return 0, false
	}
	return math.Abs(c.BOMTotal()-c.ContractPrice) / c.ContractPrice, true
}

// CoherenceEngine is the generic v2 rule engine. Every category starts at 100
// and each failed check lowers one category and records the rule id.
type CoherenceEngine struct{}

// NewCoherenceEngine creates the v2 engine.
func NewCoherenceEngine() *CoherenceEngine {
	return &CoherenceEngine{}
}

// Evaluate scores c.
func (e *CoherenceEngine) Evaluate(c *CoherenceContext) model.EvaluationResult {
	result := model.EvaluationResult{
		CategoryScores: model.NewCategoryScores(),
		Violations:     model.NewViolations(),
	}
	fail := func(category model.Category, score int, ruleID string) {
		result.CategoryScores.Lower(category, score)
		result.Violations.Add(category, ruleID)
	}

	if !c.ScopeDefined {
		fail(model.CategoryScope, failedCheckScore, RuleScopeUndefined)
	}

	if deviation, ok := c.BudgetDeviation(); ok && deviation >= BudgetDeviationThreshold {
		fail(model.CategoryBudget, budgetDeviatedScore, RuleBudgetDeviation)
	}
	for _, item := range c.BOMItems {
		if !item.BudgetLineAssigned {
			fail(model.CategoryBudget, failedCheckScore, RuleBudgetLineUnassigned)
			break
		}
	}

	if !c.ScheduleWithinContract {
		fail(model.CategoryTime, failedCheckScore, RuleScheduleOverrun)
	}
	if !c.TechnicalConsistent {
		fail(model.CategoryTechnical, failedCheckScore, RuleTechnicalInconsistent)
	}
	if !c.LegalCompliant {
		fail(model.CategoryLegal, failedCheckScore, RuleLegalNonCompliant)
	}
	if !c.QualityStandardMet {
		fail(model.CategoryQuality, failedCheckScore, RuleMissingStandard)
	}

	return result
}

// ViolationAlerts converts the violations of a v2 result into mapper-built
// alerts, in category order.
func ViolationAlerts(result model.EvaluationResult) []model.Alert {
	alerts := make([]model.Alert, 0, result.Violations.Count())
	for _, category := range model.Categories() {
		for _, ruleID := range result.Violations[category] {
			m, _ := Lookup(ruleID)
			alert := BuildAlert(ruleID, m.Description, nil)
			alert.Category = category
			alerts = append(alerts, alert)
		}
	}
	return alerts
}
