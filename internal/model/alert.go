package model

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Severity is the impact level of an alert.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid reports whether s is one of the four known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Alert is one triggered rule finding.
type Alert struct {
	RuleID           string         `json:"rule_id"`
	Title            string         `json:"title"`
	Message          string         `json:"message"`
	Severity         Severity       `json:"severity"`
	Category         Category       `json:"category"`
	AffectedEntities []uuid.UUID    `json:"affected_entities"`
	Metadata         map[string]any `json:"metadata"`
}

// Clone returns a deep copy of the alert.
func (a Alert) Clone() Alert {
	a.AffectedEntities = slices.Clone(a.AffectedEntities)
	a.Metadata = maps.Clone(a.Metadata)
	return a
}
