package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contractiq/coherence/internal/model"
)

// Specification is a technical specification item.
type Specification struct {
	ID           uuid.UUID `json:"id"`
	StandardCode *string   `json:"standard_code,omitempty"`
}

// Material is a material or equipment item.
type Material struct {
	ID                    uuid.UUID `json:"id"`
	RequiresCertification bool      `json:"requires_certification"`
	CertificationCode     *string   `json:"certification_code,omitempty"`
}

// QualityContext is the input of the quality rule set.
type QualityContext struct {
	Specifications []Specification `json:"specifications"`
	Materials      []Material      `json:"materials"`
}

// NewQualityRules returns the quality rule set: R17 then R18.
func NewQualityRules() *RuleSet[*QualityContext] {
	return NewRuleSet("quality",
		NewRule(RuleMissingStandard, missingStandard),
		NewRule(RuleMissingCertification, missingCertification),
	)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func missingStandard(c *QualityContext) *model.Alert {
	var offending []uuid.UUID
	for _, spec := range c.Specifications {
		if isBlank(spec.StandardCode) {
			offending = append(offending, spec.ID)
		}
	}
	if len(offending) == 0 {
		return nil
	}

	alert := BuildAlert(RuleMissingStandard,
		fmt.Sprintf("%d specification(s) without a standard code", len(offending)),
		offending)
	alert.Metadata[MetaMissingStandardCount] = len(offending)
	return &alert
}

func missingCertification(c *QualityContext) *model.Alert {
	var offending []uuid.UUID
	for _, m := range c.Materials {
		if m.RequiresCertification && isBlank(m.CertificationCode) {
			offending = append(offending, m.ID)
		}
	}
	if len(offending) == 0 {
		return nil
	}

	alert := BuildAlert(RuleMissingCertification,
		fmt.Sprintf("%d material(s) require certification but have none", len(offending)),
		offending)
	alert.Metadata[MetaMissingCertificationCount] = len(offending)
	return &alert
}
