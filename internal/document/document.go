package document

import (
	"fmt"
	"regexp"
	"strings"
)

// File is a parsed instruction file.
type File struct {
	Path     string
	Format   Format
	Sections []*Section

	// Issues lists structural problems tolerated during parsing.
	Issues []*ParseError

	eol string
}

// Section is a titled block of a file. The untitled leading section has an
// empty Title and Heading.
type Section struct {
	Title   string
	Heading string   // raw heading line including its terminator
	Lines   []string // raw body lines including terminators

	// lead holds separator lines emitted before Heading. Only sections
	// created by AppendSection have one.
	lead []string

	frontMatter  int  // leading body lines that are YAML front matter
	fmClosed     bool // front matter has its closing delimiter
	unterminated bool // body ends inside an open code fence
	comment      int  // 1 + index of an unclosed "<!--" line, 0 when none
	modified     bool
}

// Instruction is one guidance line of a section.
type Instruction struct {
	Text       string // list marker stripped, surrounding space trimmed
	Normalized string
	Section    string
	Line       int    // index into Section.Lines
	Affinity   string // optional section affinity hint
}

// ParseError describes tolerated malformed structure.
type ParseError struct {
	Line int // 1-based line number in the file
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse splits text into sections according to the dialect. It never fails:
// malformed structure is kept as literal content and reported in Issues.
func Parse(format Format, text string) *File {
	f := &File{Format: format, eol: detectEOL(text)}

	current := &Section{}
	var (
		inFrontMatter bool
		fmStart       int
		fence         string
		fenceStart    int
		inComment     bool
		commentStart  int
	)

	for i, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		switch {
		case i == 0 && format.frontMatter() && trimmed == "---":
			inFrontMatter = true
			fmStart = i
			current.Lines = append(current.Lines, line)
			current.frontMatter = 1
			continue
		case inFrontMatter:
			current.Lines = append(current.Lines, line)
			current.frontMatter++
			if trimmed == "---" {
				inFrontMatter = false
				current.fmClosed = true
			}
			continue
		case fence != "":
			current.Lines = append(current.Lines, line)
			if closesFence(trimmed, fence) {
				fence = ""
			}
			continue
		case inComment:
			current.Lines = append(current.Lines, line)
			if strings.Contains(trimmed, "-->") {
				inComment = false
				current.comment = 0
			}
			continue
		}

		if opensComment(trimmed) {
			inComment = true
			commentStart = i
			current.comment = len(current.Lines) + 1
			current.Lines = append(current.Lines, line)
			continue
		}

		if marker := fenceMarker(trimmed); marker != "" {
			fence = marker
			fenceStart = i
			current.Lines = append(current.Lines, line)
			continue
		}

		if title, ok := format.heading(line); ok {
			f.push(current)
			current = &Section{Title: title, Heading: line}
			continue
		}

		current.Lines = append(current.Lines, line)
	}

	if inFrontMatter {
		f.Issues = append(f.Issues, &ParseError{Line: fmStart + 1, Msg: "unterminated front matter"})
	}
	if inComment {
		f.Issues = append(f.Issues, &ParseError{Line: commentStart + 1, Msg: "unterminated HTML comment"})
	}
	if fence != "" {
		current.unterminated = true
		f.Issues = append(f.Issues, &ParseError{Line: fenceStart + 1, Msg: "unterminated code fence"})
	}
	f.push(current)

	return f
}

// push appends s unless it is an empty untitled section.
func (f *File) push(s *Section) {
	if s.Heading == "" && len(s.Lines) == 0 {
		return
	}
	f.Sections = append(f.Sections, s)
}

// String serializes the file.
func (f *File) String() string {
	var b strings.Builder
	for _, s := range f.Sections {
		for _, l := range s.lead {
			b.WriteString(l)
		}
		b.WriteString(s.Heading)
		for _, l := range s.Lines {
			b.WriteString(l)
		}
	}
	return b.String()
}

// Modified reports whether any section was mutated since parsing.
func (f *File) Modified() bool {
	for _, s := range f.Sections {
		if s.modified {
			return true
		}
	}
	return false
}

// Unterminated reports whether the file ends inside an open code fence,
// HTML comment or front matter block. Content appended to such a file would
// be swallowed.
func (f *File) Unterminated() bool {
	if len(f.Sections) == 0 {
		return false
	}
	last := f.Sections[len(f.Sections)-1]
	return last.unterminated || last.comment > 0 || (last.frontMatter > 0 && !last.fmClosed)
}

// EOL returns the line terminator used by the file.
func (f *File) EOL() string { return f.eol }

// Section returns the first section whose title equals title, ignoring case.
func (f *File) Section(title string) *Section {
	for _, s := range f.Sections {
		if s.Heading != "" && strings.EqualFold(s.Title, title) {
			return s
		}
	}
	return nil
}

// Instructions returns every instruction of the file in file order.
func (f *File) Instructions() []Instruction {
	var out []Instruction
	for _, s := range f.Sections {
		out = append(out, s.Instructions()...)
	}
	return out
}

// FrontMatter returns the YAML between the leading "---" delimiters, if any.
func (f *File) FrontMatter() (string, bool) {
	if len(f.Sections) == 0 || f.Sections[0].Heading != "" {
		return "", false
	}
	s := f.Sections[0]
	if !s.fmClosed {
		return "", false
	}
	return strings.Join(s.Lines[1:s.frontMatter-1], ""), true
}

// AppendSection adds a new "## title" section at the end of the file,
// separated from the preceding content by a blank line.
func (f *File) AppendSection(title string) *Section {
	s := &Section{
		Title:    title,
		Heading:  "## " + title + f.eol,
		modified: true,
	}

	text := f.String()
	if text != "" {
		if !strings.HasSuffix(text, "\n") {
			s.lead = append(s.lead, f.eol)
			text += f.eol
		}
		if !strings.HasSuffix(text, f.eol+f.eol) && !strings.HasSuffix(text, "\n\n") {
			s.lead = append(s.lead, f.eol)
		}
	}

	f.Sections = append(f.Sections, s)
	return s
}

// Titled reports whether s opened with a heading.
func (s *Section) Titled() bool { return s.Heading != "" }

// Unterminated reports whether s ends inside an open code fence.
func (s *Section) Unterminated() bool { return s.unterminated }

// Level returns the heading level of s, or 0 for the untitled section.
func (s *Section) Level() int {
	level, _, ok := atx(s.Heading)
	if !ok {
		return 0
	}
	return level
}

// end returns the index after which nothing can be appended visibly: the
// start of an unclosed HTML comment, or the end of the body.
func (s *Section) end() int {
	if s.comment > 0 {
		return s.comment - 1
	}
	return len(s.Lines)
}

// Modified reports whether s was mutated since parsing.
func (s *Section) Modified() bool { return s.modified }

// HasContent reports whether the body has any non-blank line.
func (s *Section) HasContent() bool {
	for _, l := range s.Lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

var (
	listMarker = regexp.MustCompile(`^(?:>\s*)*(?:[-*+]|\d+[.)])\s+(?:\[[ xX]\]\s+)?`)
	quote      = regexp.MustCompile(`^(?:>\s*)+`)
	rule       = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
)

// Instructions returns the guidance lines of the section body. Headings,
// fenced code, HTML comments, horizontal rules and front matter are skipped.
func (s *Section) Instructions() []Instruction {
	var (
		out       []Instruction
		fence     string
		inComment bool
	)

	for i, line := range s.Lines {
		if i < s.frontMatter {
			continue
		}
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if closesFence(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if marker := fenceMarker(trimmed); marker != "" {
			fence = marker
			continue
		}
		if inComment {
			if strings.Contains(trimmed, "-->") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "<!--") {
			inComment = opensComment(trimmed)
			continue
		}
		if trimmed == "" || rule.MatchString(trimmed) {
			continue
		}
		if _, _, ok := atx(trimmed); ok {
			continue
		}

		text := StripMarker(trimmed)
		if text == "" {
			continue
		}

		out = append(out, Instruction{
			Text:       text,
			Normalized: Normalize(text),
			Section:    s.Title,
			Line:       i,
		})
	}

	return out
}

// AppendInstruction adds text as a list item after the last content line of
// the section, matching the bullet style already in use. A trailing
// unclosed HTML comment stays after the new item.
func (s *Section) AppendInstruction(text, eol string) {
	end := s.end()
	last := -1
	for i := end - 1; i >= s.frontMatter; i-- {
		if strings.TrimSpace(s.Lines[i]) != "" {
			last = i
			break
		}
	}

	item := s.bullet() + text + eol
	var insert []string

	if last < 0 {
		if s.Heading != "" && !strings.HasSuffix(s.Heading, "\n") {
			s.Heading += eol
		}
		insert = []string{eol, item}
		s.Lines = splice(s.Lines, s.frontMatter, insert)
		s.shift(s.frontMatter, len(insert))
		s.modified = true
		return
	}

	if !strings.HasSuffix(s.Lines[last], "\n") {
		s.Lines[last] += eol
	}
	if !listMarker.MatchString(strings.TrimSpace(s.Lines[last])) {
		insert = append(insert, eol)
	}
	insert = append(insert, item)
	s.Lines = splice(s.Lines, last+1, insert)
	s.shift(last+1, len(insert))
	s.modified = true
}

// shift moves the open comment index after n lines were inserted at at.
func (s *Section) shift(at, n int) {
	if s.comment > 0 && s.comment-1 >= at {
		s.comment += n
	}
}

// bullet returns the list marker of the last visible bullet item, or "- ".
func (s *Section) bullet() string {
	for i := s.end() - 1; i >= s.frontMatter; i-- {
		t := strings.TrimSpace(s.Lines[i])
		if len(t) > 1 && (t[0] == '-' || t[0] == '*' || t[0] == '+') && t[1] == ' ' {
			return t[:2]
		}
	}
	return "- "
}

func splice(lines []string, at int, insert []string) []string {
	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:at]...)
	out = append(out, insert...)
	return append(out, lines[at:]...)
}

// StripMarker removes a leading list marker, task box or block quote from
// text, the way instruction lines are read.
func StripMarker(text string) string {
	text = listMarker.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(quote.ReplaceAllString(text, ""))
}

// opensComment reports whether trimmed starts an HTML comment that does not
// close on the same line.
func opensComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "<!--") && !strings.Contains(trimmed[4:], "-->")
}
