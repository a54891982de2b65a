package inserter

import (
	"sort"
	"strings"

	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/projectctx"
)

// Affinity ties instruction keywords to the section titles they belong under.
type Affinity struct {
	Name     string
	Keywords []string // matched against instruction words
	Titles   []string // matched as substrings of lower-cased section titles
}

var builtinAffinities = []Affinity{
	{
		Name:     "testing",
		Keywords: []string{"test", "testing", "pytest", "jest", "vitest", "mocha", "unittest", "coverage", "mock", "fixture", "validate"},
		Titles:   []string{"test", "qa", "quality"},
	},
	{
		Name:     "workflow",
		Keywords: []string{"commit", "deploy", "build", "workflow", "branch", "merge", "release", "pr", "pull request", "ci", "process"},
		Titles:   []string{"workflow", "process", "development", "git", "contributing"},
	},
	{
		Name:     "style",
		Keywords: []string{"style", "format", "lint", "convention", "naming", "indent", "gofmt", "prettier", "eslint", "type hints"},
		Titles:   []string{"style", "format", "convention"},
	},
	{
		Name:     "documentation",
		Keywords: []string{"document", "doc", "docs", "comment", "readme", "docstring", "changelog"},
		Titles:   []string{"documentation", "docs", "readme", "comment"},
	},
	{
		Name:     "security",
		Keywords: []string{"security", "secret", "authenticat", "authoriz", "vulnerab", "credential", "password", "token"},
		Titles:   []string{"security", "secret"},
	},
	{
		Name:     "behavior",
		Keywords: []string{"behavior", "behaviour", "procedure", "persona", "tone"},
		Titles:   []string{"behavior", "behaviour", "guideline", "rule"},
	},
}

// Affinities returns the built-in affinity table.
func Affinities() []Affinity {
	out := make([]Affinity, len(builtinAffinities))
	copy(out, builtinAffinities)
	return out
}

// Lookup returns the built-in affinity called name.
func Lookup(name string) (Affinity, bool) {
	for _, a := range builtinAffinities {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Affinity{}, false
}

// Hint resolves an explicit affinity hint. Unknown hints match section
// titles containing the hint itself.
func Hint(hint string) Affinity {
	if a, ok := Lookup(hint); ok {
		return a
	}
	norm := document.Normalize(hint)
	return Affinity{Name: norm, Titles: []string{norm}}
}

// Infer ranks the affinities an instruction mentions, strongest first. Names
// from the project context the instruction mentions become affinities of
// their own, and detected test frameworks count as testing keywords. Ties
// keep context affinities first, then table order.
func Infer(text string, ctx projectctx.Context) []Affinity {
	norm := document.Normalize(text)
	words := document.Tokens(norm)

	type ranked struct {
		a     Affinity
		score int
		order int
	}
	var candidates []ranked

	for _, name := range append(append([]string{}, ctx.Languages...), ctx.Frameworks...) {
		n := document.Normalize(name)
		if n != "" && mentions(norm, words, n) {
			candidates = append(candidates, ranked{
				a:     Affinity{Name: name, Titles: []string{strings.ToLower(name)}},
				score: 1,
				order: len(candidates),
			})
		}
	}

	for _, a := range builtinAffinities {
		keywords := a.Keywords
		if a.Name == "testing" && len(ctx.TestFrameworks) > 0 {
			keywords = append([]string{}, a.Keywords...)
			for _, tf := range ctx.TestFrameworks {
				keywords = append(keywords, document.Normalize(tf))
			}
		}
		score := 0
		for _, kw := range keywords {
			if kw != "" && mentions(norm, words, kw) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, ranked{a: a, score: score, order: len(candidates)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	out := make([]Affinity, len(candidates))
	for i, c := range candidates {
		out[i] = c.a
	}
	return out
}

// mentions reports whether keyword occurs in the normalized instruction.
// Multi-word keywords must appear as a phrase; single words match a whole
// word, or a word prefix when the keyword has at least four letters.
func mentions(norm string, words []string, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(" "+norm+" ", " "+keyword+" ")
	}
	for _, w := range words {
		if w == keyword || (len(keyword) >= 4 && strings.HasPrefix(w, keyword)) {
			return true
		}
	}
	return false
}

// matchSection returns the first titled section whose title contains one of
// the affinity's title terms.
func matchSection(f *document.File, a Affinity, skip string) *document.Section {
	for _, s := range f.Sections {
		if !s.Titled() || s.Unterminated() || strings.EqualFold(s.Title, skip) {
			continue
		}
		title := strings.ToLower(s.Title)
		for _, term := range a.Titles {
			if term != "" && strings.Contains(title, term) {
				return s
			}
		}
	}
	return nil
}
