package projectctx

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// MaxDepth bounds how many directory levels below the root are walked.
const MaxDepth = 3

// maxImportScan bounds how many Python files are read for import checks.
const maxImportScan = 10

var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"venv":         true,
	"env":          true,
	".venv":        true,
	"target":       true,
	"build":        true,
	"dist":         true,
}

var extensionLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rs":    "rust",
	".go":    "go",
	".java":  "java",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".c":     "c",
	".cpp":   "c++",
	".cs":    "c#",
}

// goModules maps go.mod requirements to framework or test tool names.
var goModules = []struct {
	prefix string
	name   string
	test   bool
}{
	{"github.com/gin-gonic/gin", "gin", false},
	{"github.com/labstack/echo", "echo", false},
	{"github.com/gofiber/fiber", "fiber", false},
	{"github.com/go-chi/chi", "chi", false},
	{"github.com/spf13/cobra", "cobra", false},
	{"google.golang.org/grpc", "grpc", false},
	{"github.com/stretchr/testify", "testify", true},
	{"github.com/onsi/ginkgo", "ginkgo", true},
}

var nodeFrameworks = map[string]string{
	"react":        "react",
	"next":         "next.js",
	"vue":          "vue",
	"svelte":       "svelte",
	"express":      "express",
	"@nestjs/core": "nestjs",
}

var nodeTestTools = map[string]string{
	"jest":             "jest",
	"vitest":           "vitest",
	"mocha":            "mocha",
	"@playwright/test": "playwright",
	"cypress":          "cypress",
}

var pythonFrameworks = map[string]string{
	"django":  "django",
	"flask":   "flask",
	"fastapi": "fastapi",
}

var rustFrameworks = map[string]string{
	"actix-web": "actix-web",
	"axum":      "axum",
	"rocket":    "rocket",
}

// analysis accumulates findings for one Analyze call.
type analysis struct {
	root        string
	languages   set
	frameworks  set
	tests       set
	managers    set
	pythonFiles []string
}

// Analyze inspects the tree under root. Unreadable entries and malformed
// manifests are skipped.
func Analyze(root string) Context {
	a := &analysis{
		root:       root,
		languages:  set{},
		frameworks: set{},
		tests:      set{},
		managers:   set{},
	}

	a.walk()
	a.goModule()
	a.node()
	a.python()
	a.rust()

	return Context{
		Languages:       a.languages.sorted(),
		Frameworks:      a.frameworks.sorted(),
		TestFrameworks:  a.tests.sorted(),
		PackageManagers: a.managers.sorted(),
		Source:          SourceDetected,
	}
}

func (a *analysis) walk() {
	_ = filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != a.root {
				return fs.SkipDir
			}
			return nil
		}
		if path == a.root {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if ignoredDirs[name] || (strings.HasPrefix(name, ".") && name != ".github") {
				return fs.SkipDir
			}
			if depth(a.root, path) > MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if lang, ok := extensionLanguages[ext]; ok {
			a.languages.add(lang)
		}
		if ext == ".py" {
			a.pythonFiles = append(a.pythonFiles, path)
		}
		return nil
	})
}

func (a *analysis) goModule() {
	data, err := os.ReadFile(filepath.Join(a.root, "go.mod"))
	if err != nil {
		return
	}
	a.languages.add("go")
	a.managers.add("go")
	a.tests.add("go test")

	mf, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return
	}
	for _, req := range mf.Require {
		for _, m := range goModules {
			if strings.HasPrefix(req.Mod.Path, m.prefix) {
				if m.test {
					a.tests.add(m.name)
				} else {
					a.frameworks.add(m.name)
				}
			}
		}
	}
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (a *analysis) node() {
	data, err := os.ReadFile(filepath.Join(a.root, "package.json"))
	if err != nil {
		return
	}

	switch {
	case a.exists("pnpm-lock.yaml"):
		a.managers.add("pnpm")
	case a.exists("yarn.lock"):
		a.managers.add("yarn")
	default:
		a.managers.add("npm")
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for dep := range deps {
			if name, ok := nodeFrameworks[dep]; ok {
				a.frameworks.add(name)
			}
			if name, ok := nodeTestTools[dep]; ok {
				a.tests.add(name)
			}
		}
	}
	if _, ok := pkg.DevDependencies["typescript"]; ok {
		a.languages.add("typescript")
	}
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func (a *analysis) python() {
	var deps []string

	if data, err := os.ReadFile(filepath.Join(a.root, "requirements.txt")); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			deps = append(deps, requirementName(line))
		}
	}

	if data, err := os.ReadFile(filepath.Join(a.root, "pyproject.toml")); err == nil {
		var pp pyproject
		if err := toml.Unmarshal(data, &pp); err == nil {
			for _, d := range pp.Project.Dependencies {
				deps = append(deps, requirementName(d))
			}
			for _, group := range pp.Project.OptionalDependencies {
				for _, d := range group {
					deps = append(deps, requirementName(d))
				}
			}
			for d := range pp.Tool.Poetry.Dependencies {
				deps = append(deps, strings.ToLower(d))
			}
			for d := range pp.Tool.Poetry.DevDependencies {
				deps = append(deps, strings.ToLower(d))
			}
		}
	}

	manifest := a.exists("requirements.txt") || a.exists("pyproject.toml") || a.exists("setup.py")
	if !manifest && len(a.pythonFiles) == 0 {
		return
	}
	a.languages.add("python")
	if manifest {
		if a.exists("poetry.lock") {
			a.managers.add("poetry")
		} else {
			a.managers.add("pip")
		}
	}

	for _, d := range deps {
		if name, ok := pythonFrameworks[d]; ok {
			a.frameworks.add(name)
		}
		if d == "pytest" {
			a.tests.add("pytest")
		}
	}
	if a.exists("manage.py") {
		a.frameworks.add("django")
	}
	for _, mod := range []string{"fastapi", "flask"} {
		if a.importsPython(mod) {
			a.frameworks.add(mod)
		}
	}

	switch {
	case a.exists("pytest.ini") || a.exists("conftest.py") || a.isDir("tests"):
		a.tests.add("pytest")
	case a.isDir("test"):
		a.tests.add("unittest")
	}
}

type cargoManifest struct {
	Dependencies map[string]any `toml:"dependencies"`
}

func (a *analysis) rust() {
	data, err := os.ReadFile(filepath.Join(a.root, "Cargo.toml"))
	if err != nil {
		return
	}
	a.languages.add("rust")
	a.managers.add("cargo")
	a.tests.add("cargo test")

	var cm cargoManifest
	if err := toml.Unmarshal(data, &cm); err != nil {
		return
	}
	for dep := range cm.Dependencies {
		if name, ok := rustFrameworks[dep]; ok {
			a.frameworks.add(name)
		}
	}
}

// importsPython reports whether one of the first scanned Python files
// imports module.
func (a *analysis) importsPython(module string) bool {
	for i, p := range a.pythonFiles {
		if i >= maxImportScan {
			break
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		content := string(data)
		if strings.Contains(content, "import "+module) || strings.Contains(content, "from "+module) {
			return true
		}
	}
	return false
}

func (a *analysis) exists(name string) bool {
	_, err := os.Stat(filepath.Join(a.root, name))
	return err == nil
}

func (a *analysis) isDir(name string) bool {
	info, err := os.Stat(filepath.Join(a.root, name))
	return err == nil && info.IsDir()
}

// requirementName extracts the lower-case distribution name from a
// requirements line such as "Django>=4.2 ; python_version > '3.8'".
func requirementName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
		return ""
	}
	if i := strings.IndexAny(line, "<>=!~;[ @"); i >= 0 {
		line = line[:i]
	}
	return strings.ToLower(line)
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}
