package projectctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAnalyzeEmptyProject(t *testing.T) {
	ctx := Analyze(t.TempDir())

	assert.True(t, ctx.Empty())
	assert.Equal(t, []string{}, ctx.Languages)
	assert.Equal(t, []string{}, ctx.Frameworks)
	assert.Equal(t, []string{}, ctx.TestFrameworks)
	assert.Equal(t, SourceDetected, ctx.Source)
}

func TestAnalyzeMissingRoot(t *testing.T) {
	ctx := Analyze(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.True(t, ctx.Empty())
}

func TestAnalyzePythonProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py":            "print('hello')",
		"requirements.txt":   "click==8.0.0\npytest>=7.0.0\n# comment\nDjango>=4.2 ; python_version > '3.8'\n",
		"tests/test_main.py": "def test_hello(): pass",
	})

	ctx := Analyze(root)

	want := Context{
		Languages:       []string{"python"},
		Frameworks:      []string{"django"},
		TestFrameworks:  []string{"pytest"},
		PackageManagers: []string{"pip"},
		Source:          SourceDetected,
	}
	if diff := cmp.Diff(want, ctx); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzePyprojectAndImports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"pyproject.toml": "[project]\nname = \"svc\"\ndependencies = [\"uvicorn>=0.20\"]\n\n[project.optional-dependencies]\ntest = [\"pytest\"]\n",
		"poetry.lock":    "",
		"app/main.py":    "from fastapi import FastAPI\n",
	})

	ctx := Analyze(root)

	assert.Equal(t, []string{"fastapi"}, ctx.Frameworks)
	assert.Equal(t, []string{"pytest"}, ctx.TestFrameworks)
	assert.Equal(t, []string{"poetry"}, ctx.PackageManagers)
}

func TestAnalyzeUnittestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"setup.py":    "",
		"test/t_a.py": "import unittest",
	})

	ctx := Analyze(root)
	assert.Equal(t, []string{"unittest"}, ctx.TestFrameworks)
}

func TestAnalyzeJavaScriptProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.js":     "console.log('hello');",
		"package.json": `{"name": "test", "dependencies": {"react": "^18.0.0", "next": "14"}, "devDependencies": {"vitest": "1", "typescript": "5"}}`,
		"yarn.lock":    "",
	})

	ctx := Analyze(root)

	assert.Equal(t, []string{"javascript", "typescript"}, ctx.Languages)
	assert.Equal(t, []string{"next.js", "react"}, ctx.Frameworks)
	assert.Equal(t, []string{"vitest"}, ctx.TestFrameworks)
	assert.Equal(t, []string{"yarn"}, ctx.PackageManagers)
}

func TestAnalyzeMalformedPackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"package.json": "{not json"})

	ctx := Analyze(root)
	assert.Equal(t, []string{"npm"}, ctx.PackageManagers)
	assert.Empty(t, ctx.Frameworks)
}

func TestAnalyzeGoProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod": "module example.com/svc\n\ngo 1.22\n\nrequire (\n\tgithub.com/spf13/cobra v1.8.0\n\tgithub.com/stretchr/testify v1.9.0\n)\n",
		"cmd/svc/main.go": "package main",
	})

	ctx := Analyze(root)

	assert.Equal(t, []string{"go"}, ctx.Languages)
	assert.Equal(t, []string{"cobra"}, ctx.Frameworks)
	assert.Equal(t, []string{"go test", "testify"}, ctx.TestFrameworks)
	assert.Equal(t, []string{"go"}, ctx.PackageManagers)
}

func TestAnalyzeRustProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":  "[package]\nname = \"svc\"\n\n[dependencies]\naxum = \"0.7\"\ntokio = { version = \"1\", features = [\"full\"] }\n",
		"src/main.rs": "fn main() {}",
	})

	ctx := Analyze(root)

	assert.Equal(t, []string{"rust"}, ctx.Languages)
	assert.Equal(t, []string{"axum"}, ctx.Frameworks)
	assert.Equal(t, []string{"cargo test"}, ctx.TestFrameworks)
}

func TestAnalyzeSkipsIgnoredAndDeepDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/lib/index.js": "",
		".hidden/tool.rb":           "",
		".github/scripts/ci.sh":     "",
		"vendor/x/y.php":            "",
		"a/b/c/ok.java":             "",
		"a/b/c/d/too_deep.kt":       "",
	})

	ctx := Analyze(root)
	assert.Equal(t, []string{"java"}, ctx.Languages)
}

func TestAnalyzeDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.py": "", "b.go": "", "c.ts": "", "d.rs": "", "e.rb": "",
		"package.json": `{"dependencies": {"vue": "3", "express": "4"}}`,
	})

	first := Analyze(root)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Analyze(root)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestDeclared(t *testing.T) {
	ctx := Declared([]string{"Go", " go ", "Python"}, []string{"Cobra"}, nil)

	assert.Equal(t, []string{"go", "python"}, ctx.Languages)
	assert.Equal(t, []string{"cobra"}, ctx.Frameworks)
	assert.Equal(t, []string{}, ctx.TestFrameworks)
	assert.Equal(t, SourceDeclared, ctx.Source)
}
