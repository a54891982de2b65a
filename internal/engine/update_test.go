package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nas4146/brief/internal/inserter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func outcomes(plans []UpdatePlan) []Outcome {
	out := make([]Outcome, len(plans))
	for i, p := range plans {
		out[i] = p.Outcome
	}
	return out
}

func TestPlanUpdateIsReadOnly(t *testing.T) {
	root := newProject(t)

	plans, err := New().PlanUpdate(root, "Run pytest before committing", WithAffinity("testing"))
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, []Outcome{OutcomeInserted, OutcomeInserted, OutcomeInserted}, outcomes(plans))

	assert.Equal(t, agentsMD, readFile(t, filepath.Join(root, "AGENTS.md")))
	assert.Equal(t, claudeMD, readFile(t, filepath.Join(root, "CLAUDE.md")))
	assert.Equal(t, rulesTxt, readFile(t, filepath.Join(root, ".cursorrules")))

	agents := plans[0]
	assert.Equal(t, "Testing", agents.Section)
	assert.False(t, agents.Created)
	assert.Contains(t, agents.Diff, "--- a/AGENTS.md")
	assert.Contains(t, agents.Diff, "+++ b/AGENTS.md")
	assert.Contains(t, agents.Diff, "+- Run pytest before committing\n")

	claude := plans[1]
	assert.Equal(t, inserter.DefaultFallbackTitle, claude.Section)
	assert.True(t, claude.Created)
}

func TestApplyUpdateAndIdempotence(t *testing.T) {
	root := newProject(t)
	e := New()

	plans, err := e.PlanUpdate(root, "Run pytest before committing", WithAffinity("testing"))
	require.NoError(t, err)

	results := e.ApplyUpdate(plans)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Written, r.Path)
		assert.NoError(t, r.Err, r.Path)
	}

	assert.Equal(t,
		"# Agents\n\n## Testing\n- Use pytest fixtures\n- Run pytest before committing\n\n## Style\n- Use black\n",
		readFile(t, filepath.Join(root, "AGENTS.md")))
	assert.Equal(t,
		"# Claude\n\nBe helpful.\n\n## Additional Instructions\n\n- Run pytest before committing\n",
		readFile(t, filepath.Join(root, "CLAUDE.md")))
	assert.Equal(t,
		"## Testing\n* Prefer table tests\n* Run pytest before committing\n",
		readFile(t, filepath.Join(root, ".cursorrules")))

	again, err := e.PlanUpdate(root, "run pytest before committing!", WithAffinity("testing"))
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeSkippedDuplicate, OutcomeSkippedDuplicate, OutcomeSkippedDuplicate}, outcomes(again))
	for _, p := range again {
		require.NotNil(t, p.Match)
		assert.True(t, p.Match.Exact)
		assert.Empty(t, p.Diff)
	}

	for _, r := range e.ApplyUpdate(again) {
		assert.False(t, r.Written)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, 1, strings.Count(readFile(t, filepath.Join(root, "CLAUDE.md")), "## Additional Instructions"))
}

func TestPlanUpdateNearDuplicate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"AGENTS.md": "## Testing\n- Always run pytest before committing any code\n",
		"CLAUDE.md": "## Testing\n- Use pytest\n",
	})

	plans, err := New().PlanUpdate(root, "Run pytest before committing")
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeSkippedDuplicate, OutcomeInserted}, outcomes(plans))
	assert.Equal(t, "Testing", plans[0].Section)
	assert.Equal(t, "Testing", plans[1].Section)
}

func TestApplyUpdatePartialFailure(t *testing.T) {
	root := newProject(t)
	e := New()

	plans, err := e.PlanUpdate(root, "Document public functions")
	require.NoError(t, err)
	require.Len(t, plans, 3)

	claude := filepath.Join(root, "CLAUDE.md")
	require.NoError(t, os.Remove(claude))
	require.NoError(t, os.Mkdir(claude, 0755))

	results := e.ApplyUpdate(plans)
	require.Len(t, results, 3)

	assert.True(t, results[0].Written)
	assert.False(t, results[1].Written)
	assert.True(t, results[2].Written)

	var we *WriteError
	require.True(t, errors.As(results[1].Err, &we))
	assert.Equal(t, claude, we.Path)

	assert.Contains(t, readFile(t, filepath.Join(root, "AGENTS.md")), "- Document public functions\n")
	assert.Contains(t, readFile(t, filepath.Join(root, ".cursorrules")), "Document public functions\n")
}

func TestApplyUpdateRefusesStalePlan(t *testing.T) {
	root := newProject(t)
	e := New()

	plans, err := e.PlanUpdate(root, "Document public functions")
	require.NoError(t, err)

	agents := filepath.Join(root, "AGENTS.md")
	edited := agentsMD + "- Edited by hand\n"
	require.NoError(t, os.WriteFile(agents, []byte(edited), 0644))

	results := e.ApplyUpdate(plans)
	assert.False(t, results[0].Written)
	assert.ErrorIs(t, results[0].Err, ErrStalePlan)
	assert.Equal(t, edited, readFile(t, agents))
	assert.True(t, results[1].Written)
}

func TestPlanUpdateSkipsUnplaceableFile(t *testing.T) {
	root := newProject(t)
	writeFiles(t, root, map[string]string{".cursorrules": "## Style\n- Use black\n```\ncode\n"})
	e := New()

	plans, err := e.PlanUpdate(root, "Mock external services", WithAffinity("testing"))
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeInserted, OutcomeInserted, OutcomeSkippedError}, outcomes(plans))
	assert.ErrorIs(t, plans[2].Err, inserter.ErrUnterminated)

	results := e.ApplyUpdate(plans)
	assert.False(t, results[2].Written)
	assert.ErrorIs(t, results[2].Err, inserter.ErrUnterminated)
	assert.True(t, results[0].Written)
}

func TestPlanUpdateEdgeCases(t *testing.T) {
	_, err := New().PlanUpdate(t.TempDir(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	_, err = New().PlanUpdate(t.TempDir(), "!!!")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	plans, err := New().PlanUpdate(t.TempDir(), "Be concise")
	require.NoError(t, err)
	assert.Empty(t, plans)

	_, err = New().PlanUpdate(filepath.Join(t.TempDir(), "missing"), "Be concise")
	assert.Error(t, err)
}

func TestPlanUpdateUsesSettings(t *testing.T) {
	root := newProject(t)
	writeFiles(t, root, map[string]string{
		".brief.yaml": "version: 1.0.0\nfiles: [CLAUDE.md]\nfallback_section: Misc\n",
	})

	plans, err := New(WithFallbackTitle("Ignored")).PlanUpdate(root, "Be concise")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Misc", plans[0].Section)
	assert.Equal(t, claudeMD+"\n## Misc\n\n- Be concise\n", plans[0].Updated)
}

func TestThresholdOption(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"AGENTS.md": "## Testing\n- Use pytest\n"})

	plans, err := New(WithThreshold(0.1)).PlanUpdate(root, "Use vitest")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedDuplicate, plans[0].Outcome)

	writeFiles(t, root, map[string]string{".brief.yaml": "version: 1.0.0\nduplicates:\n  threshold: 0.99\n"})
	plans, err = New(WithThreshold(0.1)).PlanUpdate(root, "Use vitest")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, plans[0].Outcome)
}

func TestApplyUpdateAudit(t *testing.T) {
	root := newProject(t)
	core, logs := observer.New(zap.InfoLevel)
	e := New(WithLogger(zap.New(core)))

	plans, err := e.PlanUpdate(root, "Document public functions", WithRationale("reviewers keep asking"))
	require.NoError(t, err)
	e.ApplyUpdate(plans)

	entries := logs.FilterMessage("instruction added").All()
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, "audit", entry.LoggerName)
		fields := entry.ContextMap()
		assert.Equal(t, "reviewers keep asking", fields["rationale"])
		assert.Equal(t, "Document public functions", fields["instruction"])
	}
}

func TestApplyUpdateSymlinkedAlias(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"AGENTS.md": agentsMD})
	if err := os.Symlink("AGENTS.md", filepath.Join(root, "CLAUDE.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	e := New()

	plans, err := e.PlanUpdate(root, "Mock external services", WithAffinity("testing"))
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "AGENTS.md", plans[0].RelPath)

	results := e.ApplyUpdate(plans)
	require.Len(t, results, 1)
	assert.True(t, results[0].Written)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, readFile(t, filepath.Join(root, "AGENTS.md")), readFile(t, filepath.Join(root, "CLAUDE.md")))
}

func TestApplyUpdateOpenCommentIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"AGENTS.md": "## Testing\n- Use pytest\n<!-- TODO: more\n"})
	e := New()

	for run, want := range []Outcome{OutcomeInserted, OutcomeSkippedDuplicate} {
		plans, err := e.PlanUpdate(root, "Mock external services", WithAffinity("testing"))
		require.NoError(t, err)
		require.Equal(t, []Outcome{want}, outcomes(plans), "run %d", run)
		for _, r := range e.ApplyUpdate(plans) {
			assert.NoError(t, r.Err)
		}
	}

	assert.Equal(t,
		"## Testing\n- Use pytest\n- Mock external services\n<!-- TODO: more\n",
		readFile(t, filepath.Join(root, "AGENTS.md")))
}

func TestPlanUpdateStripsListMarker(t *testing.T) {
	root := newProject(t)

	plans, err := New().PlanUpdate(root, "- Mock external services", WithAffinity("testing"))
	require.NoError(t, err)
	assert.Equal(t, "Mock external services", plans[0].Instruction)
	assert.Contains(t, plans[0].Diff, "+- Mock external services\n")
	assert.NotContains(t, plans[0].Diff, "- - Mock")

	_, err = New().PlanUpdate(root, "- ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)
}
