package projectctx

import (
	"sort"
	"strings"
)

// Context sources.
const (
	SourceDetected = "detected"
	SourceDeclared = "declared"
)

// Context is inferred or declared project metadata. All name lists are
// lower-case, de-duplicated and sorted.
type Context struct {
	Languages       []string `json:"languages" yaml:"languages"`
	Frameworks      []string `json:"frameworks" yaml:"frameworks"`
	TestFrameworks  []string `json:"test_frameworks" yaml:"test_frameworks"`
	PackageManagers []string `json:"package_managers,omitempty" yaml:"package_managers,omitempty"`
	Source          string   `json:"source" yaml:"-"`
}

// Declared builds a Context from metadata stated in project settings.
func Declared(languages, frameworks, testFrameworks []string) Context {
	return Context{
		Languages:      normalizeNames(languages),
		Frameworks:     normalizeNames(frameworks),
		TestFrameworks: normalizeNames(testFrameworks),
		Source:         SourceDeclared,
	}
}

// Empty reports whether nothing was detected or declared.
func (c Context) Empty() bool {
	return len(c.Languages) == 0 && len(c.Frameworks) == 0 &&
		len(c.TestFrameworks) == 0 && len(c.PackageManagers) == 0
}

// set collects names for one Context field.
type set map[string]bool

func (s set) add(names ...string) {
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			s[n] = true
		}
	}
}

func (s set) sorted() []string {
	if len(s) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeNames(names []string) []string {
	s := set{}
	s.add(names...)
	return s.sorted()
}
