package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contractiq/coherence/internal/model"
)

// Clause is a contract clause.
type Clause struct {
	ID                uuid.UUID  `json:"id"`
	ContainsPenalty   bool       `json:"contains_penalty"`
	LinkedMilestoneID *uuid.UUID `json:"linked_milestone_id,omitempty"`
}

// Milestone is a schedule milestone.
type Milestone struct {
	ID uuid.UUID `json:"id"`
}

// Approver is a person expected to sign off project documents.
type Approver struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name,omitempty"`
}

// LegalContext is the input of the legal rule set.
type LegalContext struct {
	Clauses    []Clause    `json:"clauses"`
	Milestones []Milestone `json:"milestones"`
	Approvers  []Approver  `json:"approvers"`
}

// NewLegalRules returns the legal rule set: R8 then R20.
func NewLegalRules() *RuleSet[*LegalContext] {
	return NewRuleSet("legal",
		NewRule(RulePenaltyWithoutMilestone, penaltyWithoutMilestone),
		NewRule(RuleMissingApprover, missingApprover),
	)
}

func penaltyWithoutMilestone(c *LegalContext) *model.Alert {
	known := make(map[uuid.UUID]struct{}, len(c.Milestones))
	for _, m := range c.Milestones {
		known[m.ID] = struct{}{}
	}

	var offending []uuid.UUID
	for _, clause := range c.Clauses {
		if !clause.ContainsPenalty {
			continue
		}
		if clause.LinkedMilestoneID == nil {
			offending = append(offending, clause.ID)
			continue
		}
		if _, ok := known[*clause.LinkedMilestoneID]; !ok {
			offending = append(offending, clause.ID)
		}
	}
	if len(offending) == 0 {
		return nil
	}

	alert := BuildAlert(RulePenaltyWithoutMilestone,
		fmt.Sprintf("%d penalty clause(s) not linked to a known milestone", len(offending)),
		offending)
	alert.Metadata[MetaMissingMilestoneCount] = len(offending)
	return &alert
}

func missingApprover(c *LegalContext) *model.Alert {
	if len(c.Approvers) == 0 {
		alert := BuildAlert(RuleMissingApprover, "No approvers defined for the project", nil)
		alert.Metadata[MetaMissingApproverCount] = 1
		return &alert
	}

	var unnamed []uuid.UUID
	for _, a := range c.Approvers {
		if a.FullName == nil || strings.TrimSpace(*a.FullName) == "" {
			unnamed = append(unnamed, a.ID)
		}
	}
	if len(unnamed) == 0 {
		return nil
	}

	alert := BuildAlert(RuleMissingApprover,
		fmt.Sprintf("%d approver(s) without a full name", len(unnamed)),
		unnamed)
	alert.Metadata[MetaMissingApproverCount] = len(unnamed)
	return &alert
}
