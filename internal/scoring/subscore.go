package scoring

import (
	"maps"
	"math"

	"github.com/contractiq/coherence/internal/model"
)

// Default penalty points subtracted per alert, by severity.
const (
	DefaultPenaltyLow      = 5.0
	DefaultPenaltyMedium   = 10.0
	DefaultPenaltyHigh     = 20.0
	DefaultPenaltyCritical = 30.0
)

// SeverityPenalties maps a severity to the points one alert costs.
type SeverityPenalties map[model.Severity]float64

// DefaultSeverityPenalties returns a fresh copy of the default penalties.
func DefaultSeverityPenalties() SeverityPenalties {
	return SeverityPenalties{
		model.SeverityLow:      DefaultPenaltyLow,
		model.SeverityMedium:   DefaultPenaltyMedium,
		model.SeverityHigh:     DefaultPenaltyHigh,
		model.SeverityCritical: DefaultPenaltyCritical,
	}
}

// SubscoreCalculator derives a category subscore by subtracting alert
// penalties from 100.
type SubscoreCalculator struct {
	penalties SeverityPenalties
}

// NewSubscoreCalculator creates a calculator. A nil map uses the defaults.
func NewSubscoreCalculator(penalties SeverityPenalties) *SubscoreCalculator {
	if penalties == nil {
		penalties = DefaultSeverityPenalties()
	}
	return &SubscoreCalculator{penalties: maps.Clone(penalties)}
}

// CalculateSubscore returns 100 minus the summed penalties of every alert in
// scope, floored at 0.
func (c *SubscoreCalculator) CalculateSubscore(alerts []model.Alert, scope model.Category) float64 {
	score := float64(model.MaxScore)
	for i := range alerts {
		if alerts[i].Category != scope {
			continue
		}
		score -= c.penalties[alerts[i].Severity]
	}
	return math.Max(0, score)
}

// CalculateAll computes a rounded subscore for each of the six categories.
func (c *SubscoreCalculator) CalculateAll(alerts []model.Alert) model.CategoryScores {
	scores := model.NewCategoryScores()
	for _, cat := range model.Categories() {
		scores[cat] = model.ClampScore(int(math.Round(c.CalculateSubscore(alerts, cat))))
	}
	return scores
}
