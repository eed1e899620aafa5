package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractiq/coherence/internal/model"
)

func TestGetCatalog_CoversEveryRule(t *testing.T) {
	catalog := GetCatalog()
	require.Len(t, catalog.Categories, len(model.Categories()))
	assert.Len(t, catalog.Severities, 4)

	var total int
	for _, c := range catalog.Categories {
		assert.NotEmpty(t, c.Label, "category %s needs a label", c.Name)
		for _, r := range c.Rules {
			assert.Equal(t, c.Name, CategoryFor(r.ID))
			assert.True(t, r.Severity.IsValid())
		}
		total += len(c.Rules)
	}
	assert.Equal(t, len(KnownRuleIDs()), total)
}

func TestGetCatalog_JSONHasNoNullRules(t *testing.T) {
	data, err := json.Marshal(GetCatalog())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"rules":null`)
}
