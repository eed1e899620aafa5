package scoring

import (
	"math"

	"github.com/contractiq/coherence/internal/model"
)

// ScoreCalculator combines category scores into the global coherence score.
type ScoreCalculator struct {
	defaults model.Weights
}

// NewScoreCalculator creates a calculator that falls back to defaults when no
// weights are passed. A nil defaults map means model.DefaultWeights().
func NewScoreCalculator(defaults model.Weights) *ScoreCalculator {
	if defaults == nil {
		defaults = model.DefaultWeights()
	}
	return &ScoreCalculator{defaults: defaults.Clone()}
}

// Calculate returns round(sum(clamp(score) * weight / total weight)) for the
// six categories. Categories missing from scores count as a perfect 100.
func (c *ScoreCalculator) Calculate(scores model.CategoryScores, weights model.Weights) int {
	if weights == nil {
		weights = c.defaults
	}

	total := 0.0
	for _, cat := range model.Categories() {
		total += weights[cat]
	}
	if total == 0 {
		total = 1.0
	}

	var sum float64
	for _, cat := range model.Categories() {
		w := weights[cat] / total
		sum += float64(model.ClampScore(scores.Get(cat))) * w
	}
	return model.ClampScore(int(math.RoundToEven(sum)))
}

// CalculateForProfile scores against a registry profile.
func (c *ScoreCalculator) CalculateForProfile(scores model.CategoryScores, profile WeightProfile) int {
	return c.Calculate(scores, profile.Weights)
}
