package discovery

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nas4146/brief/internal/document"
	"github.com/bmatcuk/doublestar/v4"
)

// defaultPatterns is the recognized instruction file list in priority order.
var defaultPatterns = []string{
	"AGENTS.md",
	"CLAUDE.md",
	".clinerules",
	".cursorrules",
	".windsurfrules",
	".github/copilot-instructions.md",
	".cursor/rules/*.mdc",
}

// DefaultPatterns returns a copy of the default recognized file patterns.
func DefaultPatterns() []string {
	out := make([]string, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// Discover returns the absolute paths of regular files under root that match
// patterns, in pattern order. Matches of a single glob pattern are sorted
// lexically. A file matched by several patterns, or reachable through a
// symlink under another name, is reported once at its first position.
// Patterns that escape root are ignored. Missing files are skipped; an empty
// result is not an error.
func Discover(root string, patterns []string) []string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	fsys := os.DirFS(absRoot)
	seen := make(map[string]bool)
	var (
		found []string
		infos []os.FileInfo
	)

	for _, pattern := range patterns {
		pattern = cleanPattern(pattern)
		if pattern == "" {
			continue
		}

		var rels []string
		if hasMeta(pattern) {
			matches, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				continue // malformed pattern
			}
			sort.Strings(matches)
			rels = matches
		} else {
			rels = []string{pattern}
		}

		for _, rel := range rels {
			abs := filepath.Join(absRoot, filepath.FromSlash(rel))
			if seen[abs] {
				continue
			}
			seen[abs] = true

			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() || sameAsAny(info, infos) {
				continue
			}
			infos = append(infos, info)
			found = append(found, abs)
		}
	}

	return found
}

// IsInstructionFile reports whether rel (a root-relative path) matches one
// of patterns.
func IsInstructionFile(rel string, patterns []string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, pattern := range patterns {
		pattern = cleanPattern(pattern)
		if pattern == "" {
			continue
		}
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// FormatFor returns the dialect used to parse the file at p.
func FormatFor(p string) document.Format {
	name := strings.ToLower(filepath.Base(p))
	switch {
	case strings.HasSuffix(name, ".mdc"):
		return document.FormatMDC
	case strings.HasSuffix(name, ".md"):
		return document.FormatMarkdown
	default:
		return document.FormatRules
	}
}

// ToolFor returns a short identifier for the assistant that consumes the
// file at p, or "unknown".
func ToolFor(p string) string {
	name := strings.ToLower(filepath.Base(p))
	switch {
	case name == "agents.md":
		return "agents"
	case name == "claude.md":
		return "claude"
	case name == ".clinerules":
		return "cline"
	case name == ".cursorrules", strings.HasSuffix(name, ".mdc"):
		return "cursor"
	case name == ".windsurfrules":
		return "windsurf"
	case name == "copilot-instructions.md":
		return "copilot"
	default:
		return "unknown"
	}
}

// cleanPattern returns p as a clean root-relative slash pattern, or "" when
// p is blank, absolute or climbs out of the root.
func cleanPattern(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func sameAsAny(info os.FileInfo, infos []os.FileInfo) bool {
	for _, other := range infos {
		if os.SameFile(info, other) {
			return true
		}
	}
	return false
}
