package validator

import (
	"fmt"
	"strings"

	"github.com/Nas4146/brief/internal/document"
	"go.yaml.in/yaml/v3"
)

// Issue kinds.
const (
	KindUnreadable   = "unreadable"
	KindEmpty        = "empty"
	KindNoSections   = "no-sections"
	KindEmptySection = "empty-section"
	KindFrontMatter  = "front-matter"
	KindParse        = "parse"
)

// Input is one file handed to Validate. File is nil when the file could not
// be read, in which case Err says why.
type Input struct {
	Path string
	File *document.File
	Err  error
}

// Issue is a structural problem in one file.
type Issue struct {
	Kind    string `json:"kind"`
	Section string `json:"section,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", i.Kind, i.Line, i.Message)
	case i.Section != "":
		return fmt.Sprintf("%s: section %q: %s", i.Kind, i.Section, i.Message)
	default:
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
}

// Report is the result of a consistency check.
type Report struct {
	// Files lists every input path in input order.
	Files []string `json:"files"`

	// Presence maps a normalized instruction to the files containing it.
	Presence map[string][]string `json:"presence"`

	// Missing maps a file to the normalized instructions it lacks, in the
	// order they were first seen. Files lacking nothing are absent.
	Missing map[string][]string `json:"missing"`

	// Issues maps a file to its structural problems.
	Issues map[string][]Issue `json:"issues"`

	// Texts maps a normalized instruction to the text it was first seen as.
	Texts map[string]string `json:"texts"`

	order []string
}

// Consistent reports whether every readable file carries every instruction.
func (r *Report) Consistent() bool { return len(r.Missing) == 0 }

// HasIssues reports whether any file has a structural problem.
func (r *Report) HasIssues() bool { return len(r.Issues) > 0 }

// Instructions returns the normalized instructions in first-seen order.
func (r *Report) Instructions() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Validate computes presence and missing instructions across inputs using
// exact normalized matching, and collects structural issues per file.
// Unreadable files are reported as issues and take no part in the
// comparison.
func Validate(inputs []Input) *Report {
	r := &Report{
		Presence: map[string][]string{},
		Missing:  map[string][]string{},
		Issues:   map[string][]Issue{},
		Texts:    map[string]string{},
	}

	held := make(map[string]map[string]bool, len(inputs))
	var readable []string

	for _, in := range inputs {
		r.Files = append(r.Files, in.Path)

		if in.File == nil {
			msg := "file could not be read"
			if in.Err != nil {
				msg = in.Err.Error()
			}
			r.add(in.Path, Issue{Kind: KindUnreadable, Message: msg})
			continue
		}

		readable = append(readable, in.Path)
		for _, issue := range Check(in.File) {
			r.add(in.Path, issue)
		}

		seen := map[string]bool{}
		for _, inst := range in.File.Instructions() {
			if inst.Normalized == "" || seen[inst.Normalized] {
				continue
			}
			seen[inst.Normalized] = true
			if _, ok := r.Texts[inst.Normalized]; !ok {
				r.Texts[inst.Normalized] = inst.Text
				r.order = append(r.order, inst.Normalized)
			}
			r.Presence[inst.Normalized] = append(r.Presence[inst.Normalized], in.Path)
		}
		held[in.Path] = seen
	}

	for _, path := range readable {
		for _, norm := range r.order {
			if !held[path][norm] {
				r.Missing[path] = append(r.Missing[path], norm)
			}
		}
	}

	return r
}

func (r *Report) add(path string, issue Issue) {
	r.Issues[path] = append(r.Issues[path], issue)
}

// Check returns the structural issues of a single parsed file.
func Check(f *document.File) []Issue {
	var issues []Issue

	for _, pe := range f.Issues {
		issues = append(issues, Issue{Kind: KindParse, Line: pe.Line, Message: pe.Msg})
	}

	if strings.TrimSpace(f.String()) == "" {
		return append(issues, Issue{Kind: KindEmpty, Message: "file is empty"})
	}

	titled := 0
	for i, s := range f.Sections {
		if !s.Titled() {
			continue
		}
		titled++
		if s.HasContent() || parentHeading(f, i) {
			continue
		}
		issues = append(issues, Issue{Kind: KindEmptySection, Section: s.Title, Message: "section has no content"})
	}
	if titled == 0 && len(f.Instructions()) == 0 {
		issues = append(issues, Issue{Kind: KindNoSections, Message: "file has no sections or instructions"})
	}

	if f.Format == document.FormatMDC {
		issues = append(issues, checkFrontMatter(f)...)
	}

	return issues
}

// parentHeading reports whether section i is directly followed by a deeper
// heading, as a "# Project" title above "## Rules" in a rules file.
func parentHeading(f *document.File, i int) bool {
	return i+1 < len(f.Sections) && f.Sections[i+1].Level() > f.Sections[i].Level()
}

// checkFrontMatter validates the YAML header of a Cursor rule file.
func checkFrontMatter(f *document.File) []Issue {
	raw, ok := f.FrontMatter()
	if !ok {
		return nil
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return []Issue{{Kind: KindFrontMatter, Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	var issues []Issue
	if v, ok := meta["alwaysApply"]; ok {
		if _, isBool := v.(bool); !isBool {
			issues = append(issues, Issue{Kind: KindFrontMatter, Message: "alwaysApply must be a boolean"})
		}
	}
	if v, ok := meta["description"]; ok && v != nil {
		if _, isString := v.(string); !isString {
			issues = append(issues, Issue{Kind: KindFrontMatter, Message: "description must be a string"})
		}
	}
	return issues
}
