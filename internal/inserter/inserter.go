package inserter

import (
	"errors"
	"strings"

	"github.com/Nas4146/brief/internal/dedupe"
	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/projectctx"
)

// DefaultFallbackTitle names the section that collects instructions no
// existing section claims.
const DefaultFallbackTitle = "Additional Instructions"

// ErrUnterminated is returned when an instruction needs a new section but the
// file ends inside an open code fence or front matter block.
var ErrUnterminated = errors.New("file ends inside an unterminated block")

// Inserter merges instructions into parsed files.
type Inserter struct {
	Detector      *dedupe.Detector
	FallbackTitle string
}

// Candidate is an instruction to insert.
type Candidate struct {
	Text     string
	Affinity string // optional explicit hint, e.g. "testing"
}

// Outcome describes what Insert did.
type Outcome struct {
	Duplicate bool
	Match     *dedupe.Match
	Section   string // title of the target section
	Affinity  string // affinity that chose the section, "" for the fallback
	Created   bool   // the fallback section was created
	Err       error
}

// New returns an Inserter. An empty fallback selects DefaultFallbackTitle.
func New(detector *dedupe.Detector, fallback string) *Inserter {
	if detector == nil {
		detector = dedupe.New(nil, 0)
	}
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackTitle
	}
	return &Inserter{Detector: detector, FallbackTitle: fallback}
}

// Insert adds c to f unless f already holds a duplicate, in which case f is
// left untouched. Only the target section is mutated. Outcome.Err is set
// when the instruction could not be placed.
func (in *Inserter) Insert(f *document.File, c Candidate, ctx projectctx.Context) Outcome {
	text := document.StripMarker(strings.Join(strings.Fields(c.Text), " "))
	if document.Normalize(text) == "" {
		return Outcome{}
	}

	res := in.Detector.Find(text, f.Instructions())
	if res.Duplicate {
		out := Outcome{Duplicate: true, Match: res.Match}
		out.Section = res.Match.Instruction.Section
		return out
	}

	section, affinity := in.Target(f, c, ctx)
	out := Outcome{Match: res.Match, Affinity: affinity}
	if section == nil {
		if f.Unterminated() {
			out.Err = ErrUnterminated
			return out
		}
		section = f.AppendSection(in.FallbackTitle)
		out.Created = true
	}

	section.AppendInstruction(text, f.EOL())
	out.Section = section.Title
	return out
}

// Target resolves the section c belongs in without mutating f. A nil section
// means the fallback section must be created.
func (in *Inserter) Target(f *document.File, c Candidate, ctx projectctx.Context) (*document.Section, string) {
	var ranked []Affinity
	if strings.TrimSpace(c.Affinity) != "" {
		ranked = []Affinity{Hint(c.Affinity)}
	} else {
		ranked = Infer(c.Text, ctx)
	}

	for _, a := range ranked {
		if s := matchSection(f, a, in.FallbackTitle); s != nil {
			return s, a.Name
		}
	}

	if s := f.Section(in.FallbackTitle); s != nil && !s.Unterminated() {
		return s, ""
	}
	return nil, ""
}
