package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractiq/coherence/internal/model"
)

func strPtr(s string) *string { return &s }

func TestLegalRules_PenaltyClauseWithoutMilestonesOrApprovers(t *testing.T) {
	clauseID := uuid.New()
	ctx := &LegalContext{
		Clauses: []Clause{{ID: clauseID, ContainsPenalty: true}},
	}

	alerts, err := NewLegalRules().Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	r8 := alerts[0]
	assert.Equal(t, RulePenaltyWithoutMilestone, r8.RuleID)
	assert.Equal(t, model.SeverityHigh, r8.Severity)
	assert.Equal(t, model.CategoryLegal, r8.Category)
	assert.Equal(t, "Alert R8", r8.Title)
	assert.Equal(t, []uuid.UUID{clauseID}, r8.AffectedEntities)
	assert.Equal(t, 1, r8.Metadata[MetaMissingMilestoneCount])

	r20 := alerts[1]
	assert.Equal(t, RuleMissingApprover, r20.RuleID)
	assert.Equal(t, model.SeverityHigh, r20.Severity)
	assert.Equal(t, 1, r20.Metadata[MetaMissingApproverCount])
	assert.Empty(t, r20.AffectedEntities)
}

func TestLegalRules_R8(t *testing.T) {
	milestone := uuid.New()
	unknownMilestone := uuid.New()
	linked := uuid.New()
	dangling := uuid.New()
	unlinked := uuid.New()
	named := []Approver{{ID: uuid.New(), FullName: strPtr("Ada Lovelace")}}

	tests := []struct {
		name      string
		clauses   []Clause
		wantFire  bool
		wantIDs   []uuid.UUID
		wantCount int
	}{
		{
			name:    "linked to known milestone",
			clauses: []Clause{{ID: linked, ContainsPenalty: true, LinkedMilestoneID: &milestone}},
		},
		{
			name:    "no penalty clause",
			clauses: []Clause{{ID: unlinked, ContainsPenalty: false}},
		},
		{
			name: "aggregates unlinked and unknown milestone",
			clauses: []Clause{
				{ID: linked, ContainsPenalty: true, LinkedMilestoneID: &milestone},
				{ID: dangling, ContainsPenalty: true, LinkedMilestoneID: &unknownMilestone},
				{ID: unlinked, ContainsPenalty: true},
			},
			wantFire:  true,
			wantIDs:   []uuid.UUID{dangling, unlinked},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &LegalContext{
				Clauses:    tt.clauses,
				Milestones: []Milestone{{ID: milestone}},
				Approvers:  named,
			}
			alerts, err := NewLegalRules().Evaluate(ctx)
			require.NoError(t, err)
			if !tt.wantFire {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.wantIDs, alerts[0].AffectedEntities)
			assert.Equal(t, tt.wantCount, alerts[0].Metadata[MetaMissingMilestoneCount])
		})
	}
}

func TestLegalRules_R20UnnamedApprovers(t *testing.T) {
	blank := uuid.New()
	missing := uuid.New()
	ctx := &LegalContext{
		Approvers: []Approver{
			{ID: uuid.New(), FullName: strPtr("Grace Hopper")},
			{ID: blank, FullName: strPtr("   ")},
			{ID: missing},
		},
	}

	alerts, err := NewLegalRules().Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, RuleMissingApprover, alerts[0].RuleID)
	assert.Equal(t, []uuid.UUID{blank, missing}, alerts[0].AffectedEntities)
	assert.Equal(t, 2, alerts[0].Metadata[MetaMissingApproverCount])
}

func TestLegalRules_AllNamedNoAlert(t *testing.T) {
	ctx := &LegalContext{
		Approvers: []Approver{{ID: uuid.New(), FullName: strPtr("Alan Turing")}},
	}
	alerts, err := NewLegalRules().Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.NotNil(t, alerts)
}
