package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contractiq/coherence/internal/model"
)

func alertOf(cat model.Category, sev model.Severity) model.Alert {
	return model.Alert{RuleID: "R0", Category: cat, Severity: sev}
}

func TestCalculateSubscore(t *testing.T) {
	calc := NewSubscoreCalculator(nil)

	tests := []struct {
		name   string
		alerts []model.Alert
		scope  model.Category
		want   float64
	}{
		{
			name:  "no alerts",
			scope: model.CategoryLegal,
			want:  100,
		},
		{
			name:   "one medium",
			alerts: []model.Alert{alertOf(model.CategoryLegal, model.SeverityMedium)},
			scope:  model.CategoryLegal,
			want:   90,
		},
		{
			name: "medium and high",
			alerts: []model.Alert{
				alertOf(model.CategoryLegal, model.SeverityMedium),
				alertOf(model.CategoryLegal, model.SeverityHigh),
			},
			scope: model.CategoryLegal,
			want:  70,
		},
		{
			name: "other categories ignored",
			alerts: []model.Alert{
				alertOf(model.CategoryBudget, model.SeverityCritical),
				alertOf(model.CategoryLegal, model.SeverityLow),
			},
			scope: model.CategoryLegal,
			want:  95,
		},
		{
			name: "floored at zero",
			alerts: []model.Alert{
				alertOf(model.CategoryBudget, model.SeverityCritical),
				alertOf(model.CategoryBudget, model.SeverityCritical),
				alertOf(model.CategoryBudget, model.SeverityCritical),
				alertOf(model.CategoryBudget, model.SeverityCritical),
			},
			scope: model.CategoryBudget,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.CalculateSubscore(tt.alerts, tt.scope), 1e-9)
		})
	}
}

func TestCalculateSubscore_CustomPenalties(t *testing.T) {
	penalties := SeverityPenalties{model.SeverityHigh: 7.5}
	calc := NewSubscoreCalculator(penalties)
	penalties[model.SeverityHigh] = 100

	alerts := []model.Alert{
		alertOf(model.CategoryTime, model.SeverityHigh),
		alertOf(model.CategoryTime, model.SeverityLow),
	}
	assert.InDelta(t, 92.5, calc.CalculateSubscore(alerts, model.CategoryTime), 1e-9)
}

func TestCalculateAll(t *testing.T) {
	calc := NewSubscoreCalculator(nil)
	alerts := []model.Alert{
		alertOf(model.CategoryLegal, model.SeverityMedium),
		alertOf(model.CategoryBudget, model.SeverityCritical),
	}

	scores := calc.CalculateAll(alerts)
	assert.Len(t, scores, len(model.Categories()))
	assert.Equal(t, 90, scores[model.CategoryLegal])
	assert.Equal(t, 70, scores[model.CategoryBudget])
	assert.Equal(t, 100, scores[model.CategoryScope])
}
