package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractiq/coherence/internal/model"
)

func TestQualityRules_R17MissingStandard(t *testing.T) {
	nilCode := uuid.New()
	blankCode := uuid.New()
	ctx := &QualityContext{
		Specifications: []Specification{
			{ID: uuid.New(), StandardCode: strPtr("EN 206")},
			{ID: nilCode},
			{ID: blankCode, StandardCode: strPtr("\t ")},
		},
	}

	alerts, err := NewQualityRules().Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, RuleMissingStandard, a.RuleID)
	assert.Equal(t, model.SeverityHigh, a.Severity)
	assert.Equal(t, model.CategoryQuality, a.Category)
	assert.Equal(t, []uuid.UUID{nilCode, blankCode}, a.AffectedEntities)
	assert.Equal(t, 2, a.Metadata[MetaMissingStandardCount])
}

func TestQualityRules_R18MissingCertification(t *testing.T) {
	offending := uuid.New()
	ctx := &QualityContext{
		Materials: []Material{
			{ID: uuid.New(), RequiresCertification: false},
			{ID: uuid.New(), RequiresCertification: true, CertificationCode: strPtr("CE-1234")},
			{ID: offending, RequiresCertification: true, CertificationCode: strPtr("")},
		},
	}

	alerts, err := NewQualityRules().Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, RuleMissingCertification, alerts[0].RuleID)
	assert.Equal(t, model.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, []uuid.UUID{offending}, alerts[0].AffectedEntities)
	assert.Equal(t, 1, alerts[0].Metadata[MetaMissingCertificationCount])
}

func TestQualityRules_OrderAndEmpty(t *testing.T) {
	set := NewQualityRules()
	assert.Equal(t, []string{RuleMissingStandard, RuleMissingCertification}, set.RuleIDs())

	alerts, err := set.Evaluate(&QualityContext{})
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = set.Evaluate(&QualityContext{
		Specifications: []Specification{{ID: uuid.New()}},
		Materials:      []Material{{ID: uuid.New(), RequiresCertification: true}},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, RuleMissingStandard, alerts[0].RuleID)
	assert.Equal(t, RuleMissingCertification, alerts[1].RuleID)
}
