// Package model defines the coherence category taxonomy and the value types
// shared by rule evaluators, score calculators and the anti-gaming detector.
package model

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/contractiq/coherence/internal/errors"
)

// Category is one of the fixed coherence scoring dimensions.
type Category string

const (
	CategoryScope     Category = "SCOPE"
	CategoryBudget    Category = "BUDGET"
	CategoryQuality   Category = "QUALITY"
	CategoryTechnical Category = "TECHNICAL"
	CategoryLegal     Category = "LEGAL"
	CategoryTime      Category = "TIME"

	// CategoryUnknown is assigned to alerts from rule ids the mapper does not know.
	// It is never part of a weight profile.
	CategoryUnknown Category = "UNKNOWN"
)

// WeightTolerance is the maximum allowed deviation of a weight sum from 1.0.
const WeightTolerance = 1e-9

var allCategories = [...]Category{
	CategoryScope,
	CategoryBudget,
	CategoryQuality,
	CategoryTechnical,
	CategoryLegal,
	CategoryTime,
}

var (
	ErrMissingCategories    = errors.NewStd("missing categories")
	ErrWeightsNotNormalized = errors.NewStd("weights not normalized")
	ErrUnknownCategory      = errors.NewStd("unknown category")
)

// Categories returns the six scoring categories in canonical order.
func Categories() []Category {
	return slices.Clone(allCategories[:])
}

// IsValid reports whether c belongs to the scoring taxonomy.
func (c Category) IsValid() bool {
	return slices.Contains(allCategories[:], c)
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.Newf("%w: %q", ErrUnknownCategory, s).
			Component("model").
			Category(errors.CategoryValidation).
			Context("category", s).
			Build()
	}
	return c, nil
}

// Weights maps each category to its relative importance.
type Weights map[Category]float64

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	return maps.Clone(w)
}

// DefaultWeights returns a fresh copy of the built-in distribution.
func DefaultWeights() Weights {
	return Weights{
		CategoryScope:     0.20,
		CategoryBudget:    0.20,
		CategoryQuality:   0.15,
		CategoryTechnical: 0.15,
		CategoryLegal:     0.15,
		CategoryTime:      0.15,
	}
}

// MissingCategories returns the categories absent from w, sorted by name.
func MissingCategories(w Weights) []Category {
	var missing []Category
	for _, c := range allCategories {
		if _, ok := w[c]; !ok {
			missing = append(missing, c)
		}
	}
	slices.Sort(missing)
	return missing
}

// Validate checks that w covers every category with finite weights summing
// to 1.0.
func Validate(w Weights) error {
	var unknown []string
	for c := range w {
		if !c.IsValid() {
			unknown = append(unknown, string(c))
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return errors.Newf("%w: %s", ErrUnknownCategory, strings.Join(unknown, ", ")).
			Component("model").
			Category(errors.CategoryValidation).
			Context("unknown_categories", unknown).
			Build()
	}

	if missing := MissingCategories(w); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		return errors.Newf("%w: %s", ErrMissingCategories, strings.Join(names, ", ")).
			Component("model").
			Category(errors.CategoryValidation).
			Context("missing_categories", names).
			Build()
	}

	var nonFinite []string
	for c, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite = append(nonFinite, string(c))
		}
	}
	if len(nonFinite) > 0 {
		slices.Sort(nonFinite)
		return errors.Newf("%w: non-finite weight for %s", ErrWeightsNotNormalized, strings.Join(nonFinite, ", ")).
			Component("model").
			Category(errors.CategoryValidation).
			Context("non_finite_categories", nonFinite).
			Build()
	}

	sum := w.Sum()
	if deviation := sum - 1.0; math.Abs(deviation) > WeightTolerance {
		return errors.Newf("%w: weights sum to %s (off by %s)", ErrWeightsNotNormalized,
			formatFloat(sum), formatFloat(deviation)).
			Component("model").
			Category(errors.CategoryValidation).
			Context("weight_sum", sum).
			Context("deviation", deviation).
			Build()
	}
	return nil
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.6g", f)
}
