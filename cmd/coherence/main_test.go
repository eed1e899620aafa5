package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/coherence"
	"github.com/contractiq/coherence/internal/rules"
	"github.com/contractiq/coherence/internal/scoring"
)

const compliantProject = `{
  "project_id": "6f1c1f7e-1d2b-4c38-9a55-0a9f4a1f2b10",
  "coherence": {
    "contract_price": 1000,
    "bom_items": [{"amount": 1120, "budget_line_assigned": true}],
    "scope_defined": true,
    "schedule_within_contract": true,
    "technical_consistent": true,
    "legal_compliant": true,
    "quality_standard_met": true
  }
}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := scoring.DefaultRegistry()
	t.Cleanup(func() { scoring.SetDefaultRegistry(prev) })

	// Keep settings independent of the environment the tests run in.
	t.Setenv("COHERENCE_LOG_LEVEL", "error")
	t.Setenv("COHERENCE_DATABASE_PATH", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "", "score", "-f", writeTemp(t, "project.json", compliantProject))
	require.NoError(t, err)

	var report coherence.ProjectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 80, report.GlobalScore)
	assert.Equal(t, []string{rules.RuleBudgetDeviation}, report.Violations["BUDGET"])
}

func TestScoreCommand_BatchFromStdin(t *testing.T) {
	out, err := run(t, "["+compliantProject+","+compliantProject+"]", "score", "-f", "-")
	require.NoError(t, err)

	var reports []coherence.ProjectReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, 80, reports[1].GlobalScore)
}

func TestScoreCommand_Errors(t *testing.T) {
	_, err := run(t, "", "score")
	assert.Error(t, err)

	_, err = run(t, "{not json", "score", "-f", "-")
	assert.Error(t, err)
}

func TestDetectCommand(t *testing.T) {
	events := `[
  {"type": "change", "actor_id": "u1", "signature": "weights", "timestamp": "2026-04-01T10:00:00Z", "weight_change_percent": 45}
]`
	out, err := run(t, "", "detect", "-f", writeTemp(t, "events.json", events), "--score", "96", "--documents", "1")
	require.NoError(t, err)

	var verdict antigaming.GamingVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.True(t, verdict.IsGaming)
	assert.Equal(t, []string{antigaming.ViolationSuspiciousHighScore, antigaming.ViolationWeightManipulation}, verdict.Violations)
	assert.Equal(t, 10, verdict.PenaltyPoints)

	out, err = run(t, events, "detect", "-f", "-", "--now", "2026-04-03T10:00:00Z")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.False(t, verdict.IsGaming)

	out, err = run(t, events, "detect", "-f", "-", "--now", "2026-04-01T12:00:00")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.Equal(t, []string{antigaming.ViolationWeightManipulation}, verdict.Violations, "offset-less --now is UTC")

	_, err = run(t, events, "detect", "-f", "-", "--now", "yesterday")
	assert.Error(t, err)
}

func TestProfilesCommands(t *testing.T) {
	config := writeTemp(t, "coherence.yaml", `
profiles:
  - name: energy
    project_type: energy
    normalize: true
    weights:
      TECHNICAL: 0.5
`)

	out, err := run(t, "", "--config", config, "profiles", "list")
	require.NoError(t, err)
	var profiles []scoring.WeightProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, scoring.DefaultProfileName, profiles[0].Name)
	assert.Equal(t, "energy", profiles[1].Name)

	out, err = run(t, "", "--config", config, "profiles", "show", "energy")
	require.NoError(t, err)
	var p scoring.WeightProfile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.InDelta(t, 0.5, p.Weights["TECHNICAL"], 1e-12)

	out, err = run(t, "", "--config", config, "profiles", "history", "energy")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	assert.Len(t, profiles, 1)

	_, err = run(t, "", "profiles", "show", "missing")
	assert.Error(t, err)
}

func TestProfilesCommands_Persistence(t *testing.T) {
	db := filepath.Join(t.TempDir(), "profiles.db")
	config := writeTemp(t, "coherence.yaml", "database:\n  path: "+db+"\n")

	_, err := run(t, "", "--config", config, "profiles", "list")
	require.NoError(t, err)
	_, err = os.Stat(db)
	assert.NoError(t, err, "database file is created")
}

func TestCatalogCommand(t *testing.T) {
	out, err := run(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, `"R8"`)
}
