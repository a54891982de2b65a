package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nas4146/brief/internal/dedupe"
	"github.com/Nas4146/brief/internal/discovery"
	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/inserter"
	"github.com/Nas4146/brief/internal/projectctx"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
)

// Outcome is the planned result of an update for one file.
type Outcome string

const (
	OutcomeInserted         Outcome = "inserted"
	OutcomeSkippedDuplicate Outcome = "skipped-duplicate"
	OutcomeSkippedError     Outcome = "skipped-error"
)

// UpdatePlan is the planned change to one file.
type UpdatePlan struct {
	Path        string
	RelPath     string
	Format      document.Format
	Outcome     Outcome
	Section     string // target section, or the section holding the duplicate
	Created     bool   // the fallback section will be created
	Match       *dedupe.Match
	Diff        string // unified diff, empty unless inserted
	Original    string
	Updated     string
	Instruction string
	Rationale   string
	Err         error
}

// WriteResult reports what ApplyUpdate did with one plan.
type WriteResult struct {
	Path    string
	Written bool
	Err     error
}

type planOptions struct {
	rationale string
	affinity  string
}

// PlanOption configures PlanUpdate.
type PlanOption func(*planOptions)

// WithRationale records why the instruction is being added.
func WithRationale(r string) PlanOption {
	return func(o *planOptions) { o.rationale = strings.TrimSpace(r) }
}

// WithAffinity names the section kind the instruction belongs to, e.g.
// "testing". Without it the affinity is inferred from the text.
func WithAffinity(a string) PlanOption {
	return func(o *planOptions) { o.affinity = strings.TrimSpace(a) }
}

// PlanUpdate computes, for every instruction file under root, how adding
// instruction would change it. Nothing is written.
func (e *Engine) PlanUpdate(root, instruction string, opts ...PlanOption) ([]UpdatePlan, error) {
	var o planOptions
	for _, opt := range opts {
		opt(&o)
	}

	text := document.StripMarker(strings.Join(strings.Fields(instruction), " "))
	if text == "" || document.Normalize(text) == "" {
		return nil, ErrEmptyInstruction
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	p := e.load(root)
	paths := e.discover(p, nil)
	plans := make([]UpdatePlan, 0, len(paths))
	if len(paths) == 0 {
		return plans, nil
	}

	ctx := e.contextFor(p)
	ins := e.inserterFor(p)
	candidate := inserter.Candidate{Text: text, Affinity: o.affinity}

	for _, path := range paths {
		plan := e.planFile(root, path, ins, candidate, ctx)
		plan.Rationale = o.rationale
		plans = append(plans, plan)
	}

	return plans, nil
}

func (e *Engine) planFile(root, path string, ins *inserter.Inserter, c inserter.Candidate, ctx projectctx.Context) UpdatePlan {
	plan := UpdatePlan{
		Path:        path,
		RelPath:     relPath(root, path),
		Format:      discovery.FormatFor(path),
		Instruction: c.Text,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return e.skip(plan, fmt.Errorf("reading instruction file: %w", err))
	}
	plan.Original = string(data)

	f := document.Parse(plan.Format, plan.Original)
	f.Path = path

	out := ins.Insert(f, c, ctx)
	switch {
	case out.Err != nil:
		return e.skip(plan, fmt.Errorf("inserting instruction: %w", out.Err))
	case out.Duplicate:
		plan.Outcome = OutcomeSkippedDuplicate
		plan.Section = out.Section
		plan.Match = out.Match
		plan.Updated = plan.Original
		e.logger.Debug("instruction already present",
			zap.String("path", path),
			zap.String("section", out.Section),
			zap.Float64("score", out.Match.Score),
		)
		return plan
	}

	plan.Outcome = OutcomeInserted
	plan.Section = out.Section
	plan.Created = out.Created
	plan.Match = out.Match
	plan.Updated = f.String()

	diff, err := unifiedDiff(plan.RelPath, plan.Original, plan.Updated)
	if err != nil {
		return e.skip(plan, fmt.Errorf("computing diff: %w", err))
	}
	plan.Diff = diff

	return plan
}

func (e *Engine) skip(plan UpdatePlan, err error) UpdatePlan {
	e.logger.Warn("skipping instruction file", zap.String("path", plan.Path), zap.Error(err))
	plan.Outcome = OutcomeSkippedError
	plan.Err = err
	plan.Updated = ""
	plan.Diff = ""
	return plan
}

// ApplyUpdate writes every inserted plan. A plan whose file no longer holds
// the planned original is not written. Each plan yields one result; a
// failure never stops the remaining writes.
func (e *Engine) ApplyUpdate(plans []UpdatePlan) []WriteResult {
	results := make([]WriteResult, 0, len(plans))

	for _, plan := range plans {
		res := WriteResult{Path: plan.Path}

		switch plan.Outcome {
		case OutcomeInserted:
			if err := write(plan); err != nil {
				res.Err = err
				e.logger.Warn("update not applied", zap.String("path", plan.Path), zap.Error(err))
			} else {
				res.Written = true
				e.audit.Info("instruction added",
					zap.String("path", plan.Path),
					zap.String("section", plan.Section),
					zap.Bool("section_created", plan.Created),
					zap.String("instruction", plan.Instruction),
					zap.String("rationale", plan.Rationale),
				)
			}
		case OutcomeSkippedError:
			res.Err = plan.Err
		}

		results = append(results, res)
	}

	return results
}

func write(plan UpdatePlan) error {
	info, err := os.Stat(plan.Path)
	if err != nil {
		return &WriteError{Path: plan.Path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &WriteError{Path: plan.Path, Err: errors.New("not a regular file")}
	}

	current, err := os.ReadFile(plan.Path)
	if err != nil {
		return &WriteError{Path: plan.Path, Err: err}
	}
	if string(current) != plan.Original {
		return &WriteError{Path: plan.Path, Err: ErrStalePlan}
	}

	if err := os.WriteFile(plan.Path, []byte(plan.Updated), info.Mode().Perm()); err != nil {
		return &WriteError{Path: plan.Path, Err: err}
	}
	return nil
}

// unifiedDiff renders the change to one file in unified format.
func unifiedDiff(name, before, after string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}

func relPath(root, path string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
