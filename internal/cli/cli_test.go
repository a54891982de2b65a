package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nas4146/brief/internal/engine"
	"github.com/Nas4146/brief/internal/projectctx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command in isolation from earlier runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func read(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	return string(data)
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-01-01"

	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "brief version 1.2.3 (commit: abc123, built: 2026-01-01)\n", out)
}

func TestUpdate(t *testing.T) {
	root := project(t, map[string]string{
		"AGENTS.md": "## Testing\n- Use pytest\n",
		"CLAUDE.md": "# Claude\n",
	})

	out, err := execute(t, "", "update", "-C", root, "--yes", "Run tests before committing")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 2 files.")
	assert.Equal(t, "## Testing\n- Use pytest\n- Run tests before committing\n", read(t, root, "AGENTS.md"))
	assert.Equal(t, "# Claude\n\n## Additional Instructions\n\n- Run tests before committing\n", read(t, root, "CLAUDE.md"))

	out, err = execute(t, "", "update", "-C", root, "--yes", "Run tests before committing")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to update.")
}

func TestUpdatePreviewAndCancel(t *testing.T) {
	files := map[string]string{"AGENTS.md": "## Testing\n- Use pytest\n"}
	root := project(t, files)

	out, err := execute(t, "", "update", "-C", root, "--preview", "Mock", "external", "services")
	require.NoError(t, err)
	assert.Contains(t, out, "+- Mock external services")
	assert.Contains(t, out, "1 file would be updated.")
	assert.Equal(t, files["AGENTS.md"], read(t, root, "AGENTS.md"))

	out, err = execute(t, "n\n", "update", "-C", root, "Mock external services")
	require.NoError(t, err)
	assert.Contains(t, out, "Update cancelled.")
	assert.Equal(t, files["AGENTS.md"], read(t, root, "AGENTS.md"))

	_, err = execute(t, "y\n", "update", "-C", root, "Mock external services")
	require.NoError(t, err)
	assert.Contains(t, read(t, root, "AGENTS.md"), "- Mock external services\n")
}

func TestUpdateWithoutFiles(t *testing.T) {
	_, err := execute(t, "", "update", "-C", t.TempDir(), "--yes", "Be concise")
	assert.True(t, errors.Is(err, engine.ErrNoInstructionFiles))
}

func TestValidate(t *testing.T) {
	root := project(t, map[string]string{
		"AGENTS.md": "## Rules\n- Use tabs\n",
		"CLAUDE.md": "## Rules\n- Use tabs\n- Run tests\n",
	})

	out, err := execute(t, "", "validate", "-C", root)
	assert.ErrorIs(t, err, errInconsistent)
	assert.Contains(t, out, "missing: Run tests")

	require.NoError(t, os.WriteFile(filepath.Join(root, "AGENTS.md"), []byte("## Rules\n- use tabs\n- run tests.\n"), 0644))
	out, err = execute(t, "", "validate", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "All files carry the same instructions.")

	out, err = execute(t, "", "validate", "-C", root, "--json")
	require.NoError(t, err)
	var report struct {
		Files   []string            `json:"files"`
		Missing map[string][]string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Files, 2)
	assert.Empty(t, report.Missing)
}

func TestValidateRulesLayouts(t *testing.T) {
	root := project(t, map[string]string{
		"AGENTS.md":    "# Agents\n\n## Rules\n- Use tabs\n",
		".cursorrules": "# Project\n## Rules\n- Use tabs\n",
		".clinerules":  "- Use tabs\n",
	})

	out, err := execute(t, "", "validate", "-C", root)
	require.NoError(t, err, out)
	assert.Contains(t, out, "All files carry the same instructions.")
	assert.NotContains(t, out, "!")
}

func TestList(t *testing.T) {
	root := project(t, map[string]string{
		"AGENTS.md":    "## Rules\n- Use tabs\n",
		".cursorrules": "- Use tabs\n",
	})

	out, err := execute(t, "", "list", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, ".cursorrules")

	out, err = execute(t, "", "list", "-C", root, "--json")
	require.NoError(t, err)
	var entries []engine.FileEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "AGENTS.md", entries[0].RelPath)
	assert.Equal(t, "cursor", entries[1].Tool)
	assert.Equal(t, int64(len("- Use tabs\n")), entries[1].Size)
}

func TestContext(t *testing.T) {
	root := project(t, map[string]string{
		"go.mod":  "module example.com/demo\n\ngo 1.22\n\nrequire github.com/spf13/cobra v1.8.0\n",
		"main.go": "package main\n",
	})

	out, err := execute(t, "", "context", "-C", root, "--json")
	require.NoError(t, err)
	var ctx projectctx.Context
	require.NoError(t, json.Unmarshal([]byte(out), &ctx))
	assert.Equal(t, []string{"go"}, ctx.Languages)
	assert.Contains(t, ctx.Frameworks, "cobra")
	assert.Equal(t, projectctx.SourceDetected, ctx.Source)

	out, err = execute(t, "", "context", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Languages:")
}

func TestInit(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "", "init", "-C", root)
	assert.ErrorIs(t, err, engine.ErrNoInstructionFiles)

	out, err := execute(t, "", "init", "-C", root, "--create", "AGENTS.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Created AGENTS.md")
	assert.Contains(t, out, "Wrote .brief.yaml")
	assert.Contains(t, read(t, root, "AGENTS.md"), "## Testing")
	assert.Contains(t, read(t, root, ".brief.yaml"), "version: 1.0.0")

	out, err = execute(t, "", "init", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, ".brief.yaml already exists")

	_, err = execute(t, "", "init", "-C", root, "--create", "AGENTS.md")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	_, err := execute(t, "", "config", "set", "threshold", "2")
	assert.Error(t, err)

	_, err = execute(t, "", "config", "set", "colour", "blue")
	assert.Error(t, err)

	_, err = execute(t, "", "config", "get", "colour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known keys: fallback_section, log_level, threshold")

	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "set", "threshold", "0.9"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Set threshold = 0.9")

	viper.Reset()
	out.Reset()
	rootCmd.SetArgs([]string{"config", "get", "threshold"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "0.9\n", out.String())
}

func TestDoctor(t *testing.T) {
	root := project(t, map[string]string{
		"AGENTS.md":   "## Rules\n- Use tabs\n",
		".brief.yaml": "version: 1.0.0\nduplicates:\n  threshold: 3\n",
	})

	out, err := execute(t, "", "doctor", "-C", root)
	assert.Error(t, err)
	assert.Contains(t, out, "[FAIL] .brief.yaml is invalid")
	assert.Contains(t, out, "/duplicates/threshold")
	assert.Contains(t, out, "[ OK ] AGENTS.md")

	require.NoError(t, os.Remove(filepath.Join(root, ".brief.yaml")))
	out, err = execute(t, "", "doctor", "-C", root, "--check-settings")
	require.NoError(t, err)
	assert.Contains(t, out, "[INFO] No .brief.yaml")
	assert.NotContains(t, out, "Instruction files check")
}

func TestDoctorConfigEnvOverride(t *testing.T) {
	root := project(t, map[string]string{"AGENTS.md": "## Rules\n- Use tabs\n"})
	t.Setenv("BRIEF_THRESHOLD", "5")

	out, err := execute(t, "", "doctor", "-C", root, "--check-config")
	require.NoError(t, err)
	assert.Contains(t, out, "[INFO] threshold overridden by BRIEF_THRESHOLD")
	assert.Contains(t, out, "[WARN] threshold must be a number in (0, 1]")
}

func TestRenderDiffKeepsText(t *testing.T) {
	diff := "--- a/x\n+++ b/x\n@@ -1 +1,2 @@\n a\n+b\n"
	got := renderDiff(diff)
	for _, line := range []string{"--- a/x", "+++ b/x", "@@ -1 +1,2 @@", " a", "+b"} {
		assert.Contains(t, got, line)
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 file", plural(1, "file"))
	assert.Equal(t, "0 files", plural(0, "file"))
	assert.Equal(t, "1,200 files", plural(1200, "file"))
}

func TestAffinityHelpListsBuiltins(t *testing.T) {
	flag := updateCmd.Flags().Lookup("affinity")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "testing, workflow, style, documentation, security, behavior")
}
