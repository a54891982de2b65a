package document

import "regexp"

// Format identifies an instruction file dialect.
type Format string

const (
	// FormatMarkdown is plain markdown; "## Title" opens a section.
	FormatMarkdown Format = "markdown"
	// FormatRules covers dot-rules files (.cursorrules, .clinerules, ...);
	// both "# Title" and "## Title" open a section.
	FormatRules Format = "rules"
	// FormatMDC is a Cursor rule file: markdown with optional YAML front matter.
	FormatMDC Format = "mdc"
)

var atxHeading = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)

// heading reports whether line opens a section in this dialect.
func (f Format) heading(line string) (title string, ok bool) {
	level, title, ok := atx(line)
	if !ok || title == "" {
		return "", false
	}
	switch f {
	case FormatRules:
		return title, level <= 2
	default:
		return title, level == 2
	}
}

// frontMatter reports whether the dialect allows a leading YAML block.
func (f Format) frontMatter() bool {
	return f == FormatMDC
}

func atx(line string) (level int, title string, ok bool) {
	m := atxHeading.FindStringSubmatch(trimEOL(line))
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), m[2], true
}
