package model

import (
	"maps"
	"slices"
)

// MaxScore is the perfect score of a category and of the global score.
const MaxScore = 100

// CategoryScores holds a 0-100 score per category.
type CategoryScores map[Category]int

// NewCategoryScores returns scores with every category at MaxScore.
func NewCategoryScores() CategoryScores {
	scores := make(CategoryScores, len(allCategories))
	for _, c := range allCategories {
		scores[c] = MaxScore
	}
	return scores
}

// Get returns the score for c, MaxScore when absent.
func (s CategoryScores) Get(c Category) int {
	if v, ok := s[c]; ok {
		return v
	}
	return MaxScore
}

// Lower sets the score of c to min(current, candidate), clamped to [0, 100].
func (s CategoryScores) Lower(c Category, candidate int) {
	s[c] = ClampScore(min(s.Get(c), candidate))
}

// Clone returns an independent copy.
func (s CategoryScores) Clone() CategoryScores {
	return maps.Clone(s)
}

// Violations lists the triggered rule ids per category.
type Violations map[Category][]string

// NewViolations returns an empty, non-nil list for every category.
func NewViolations() Violations {
	v := make(Violations, len(allCategories))
	for _, c := range allCategories {
		v[c] = []string{}
	}
	return v
}

// Add appends ruleID to the list of c.
func (v Violations) Add(c Category, ruleID string) {
	v[c] = append(v[c], ruleID)
}

// Clone returns a deep copy.
func (v Violations) Clone() Violations {
	out := make(Violations, len(v))
	for c, ids := range v {
		out[c] = slices.Clone(ids)
		if out[c] == nil {
			out[c] = []string{}
		}
	}
	return out
}

// Count returns the total number of violations across categories.
func (v Violations) Count() int {
	n := 0
	for _, ids := range v {
		n += len(ids)
	}
	return n
}

// EvaluationResult is the output of the coherence rule engine.
type EvaluationResult struct {
	CategoryScores CategoryScores `json:"category_scores"`
	Violations     Violations     `json:"violations"`
}

// ClampScore bounds s to [0, MaxScore].
func ClampScore(s int) int {
	return max(0, min(MaxScore, s))
}
