package dedupe

import (
	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/similarity"
)

// DefaultThreshold is the minimum score for a fuzzy duplicate. It is a
// starting point, not a contract; projects tune it in .brief.yaml.
const DefaultThreshold = 0.85

// Detector finds duplicate instructions.
type Detector struct {
	Scorer    similarity.Scorer
	Threshold float64
}

// Match is the existing instruction that best resembles a candidate.
type Match struct {
	Instruction document.Instruction
	Score       float64
	Exact       bool
}

// Result is the outcome of a duplicate check.
type Result struct {
	Duplicate bool
	Match     *Match // best match, nil when there is nothing to compare
}

// New returns a Detector using scorer and threshold. A nil scorer selects
// similarity.TokenSetRatio; a threshold outside (0, 1] selects DefaultThreshold.
func New(scorer similarity.Scorer, threshold float64) *Detector {
	if scorer == nil {
		scorer = similarity.TokenSetRatio{}
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{Scorer: scorer, Threshold: threshold}
}

// Find compares candidate with existing, which must be in file order. The
// highest score wins and ties keep the earliest instruction. Exact
// normalized equality scores 1 and is always a duplicate.
func (d *Detector) Find(candidate string, existing []document.Instruction) Result {
	norm := document.Normalize(candidate)
	if norm == "" {
		return Result{}
	}

	var best *Match
	for _, in := range existing {
		m := Match{Instruction: in}
		if in.Normalized == norm {
			m.Score, m.Exact = 1, true
		} else {
			m.Score = d.Scorer.Score(norm, in.Normalized)
		}
		if best == nil || m.Score > best.Score {
			best = &m
		}
	}

	if best == nil {
		return Result{}
	}
	return Result{
		Duplicate: best.Exact || best.Score >= d.Threshold,
		Match:     best,
	}
}
