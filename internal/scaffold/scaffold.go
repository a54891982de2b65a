package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Nas4146/brief/internal/discovery"
	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/projectctx"
	"github.com/Nas4146/brief/internal/validator"
)

//go:embed scaffolds/*.tmpl
var scaffoldFS embed.FS

// titles names the generated document per consuming tool.
var titles = map[string]string{
	"agents":   "Agent Instructions",
	"claude":   "Claude Instructions",
	"cline":    "Cline Rules",
	"cursor":   "Cursor Rules",
	"windsurf": "Windsurf Rules",
	"copilot":  "Copilot Instructions",
}

// Data holds the variables available to scaffold templates.
type Data struct {
	Title           string   // e.g. "Claude Instructions"
	Project         string   // project directory name
	ContextLines    []string // e.g. "Languages: go, python"
	TestInstruction string
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	Path     string
	Warnings []string
}

// NewData derives template data for the file rel under root.
func NewData(root, rel string, ctx projectctx.Context) *Data {
	title, ok := titles[discovery.ToolFor(rel)]
	if !ok {
		title = "Assistant Instructions"
	}

	project := filepath.Base(root)
	if abs, err := filepath.Abs(root); err == nil {
		project = filepath.Base(abs)
	}

	d := &Data{Title: title, Project: project}

	for _, line := range []struct {
		label string
		names []string
	}{
		{"Languages", ctx.Languages},
		{"Frameworks", ctx.Frameworks},
		{"Test frameworks", ctx.TestFrameworks},
		{"Package managers", ctx.PackageManagers},
	} {
		if len(line.names) > 0 {
			d.ContextLines = append(d.ContextLines, line.label+": "+strings.Join(line.names, ", "))
		}
	}

	d.TestInstruction = "Run the test suite before committing"
	if len(ctx.TestFrameworks) > 0 {
		d.TestInstruction = "Run " + strings.Join(ctx.TestFrameworks, " and ") + " before committing"
	}

	return d
}

// Generate writes a starter instruction file at rel under root. It refuses
// to overwrite an existing file. Structural problems in the generated file
// are reported as warnings.
func Generate(root, rel string, data *Data) (*Result, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Lstat(path); err == nil {
		return nil, fmt.Errorf("%s already exists", rel)
	}

	format := discovery.FormatFor(rel)
	name := string(format) + ".tmpl"
	tmpl, err := template.ParseFS(scaffoldFS, "scaffolds/"+name)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", rel, err)
	}

	result := &Result{Path: path}
	f := document.Parse(format, buf.String())
	for _, issue := range validator.Check(f) {
		result.Warnings = append(result.Warnings, issue.String())
	}

	return result, nil
}
