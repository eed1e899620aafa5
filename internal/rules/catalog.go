package rules

import "github.com/contractiq/coherence/internal/model"

// Catalog describes every known rule grouped by category, for UIs and the CLI.
type Catalog struct {
	Categories []CategorySchema `json:"categories"`
	Severities []SeveritySchema `json:"severities"`
}

// CategorySchema lists the rules owned by one category.
type CategorySchema struct {
	Name  model.Category `json:"name"`
	Label string         `json:"label"`
	Rules []RuleSchema   `json:"rules"`
}

// RuleSchema describes a single rule.
type RuleSchema struct {
	ID          string         `json:"id"`
	Severity    model.Severity `json:"severity"`
	Description string         `json:"description"`
}

// SeveritySchema describes a severity for display.
type SeveritySchema struct {
	Name  model.Severity `json:"name"`
	Label string         `json:"label"`
}

var categoryLabels = map[model.Category]string{
	model.CategoryScope:     "Scope",
	model.CategoryBudget:    "Budget",
	model.CategoryQuality:   "Quality",
	model.CategoryTechnical: "Technical",
	model.CategoryLegal:     "Legal",
	model.CategoryTime:      "Schedule",
}

// GetCatalog returns the full rule catalog in canonical category order.
func GetCatalog() Catalog {
	byCategory := make(map[model.Category][]RuleSchema)
	for _, id := range KnownRuleIDs() {
		m := ruleMappings[id]
		byCategory[m.Category] = append(byCategory[m.Category], RuleSchema{
			ID:          id,
			Severity:    m.Severity,
			Description: m.Description,
		})
	}

	cats := model.Categories()
	catalog := Catalog{
		Categories: make([]CategorySchema, 0, len(cats)),
		Severities: []SeveritySchema{
			{Name: model.SeverityLow, Label: "Low"},
			{Name: model.SeverityMedium, Label: "Medium"},
			{Name: model.SeverityHigh, Label: "High"},
			{Name: model.SeverityCritical, Label: "Critical"},
		},
	}
	for _, c := range cats {
		rules := byCategory[c]
		if rules == nil {
			rules = []RuleSchema{}
		}
		catalog.Categories = append(catalog.Categories, CategorySchema{
			Name:  c,
			Label: categoryLabels[c],
			Rules: rules,
		})
	}
	return catalog
}
