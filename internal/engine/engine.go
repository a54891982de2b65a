package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Nas4146/brief/internal/dedupe"
	"github.com/Nas4146/brief/internal/discovery"
	"github.com/Nas4146/brief/internal/inserter"
	"github.com/Nas4146/brief/internal/projectctx"
	"github.com/Nas4146/brief/internal/settings"
	"github.com/Nas4146/brief/internal/similarity"
	"go.uber.org/zap"
)

// Engine runs synchronization operations against a project root. It holds
// no state between calls; every operation re-reads the files it needs.
type Engine struct {
	logger    *zap.Logger
	audit     *zap.Logger
	scorer    similarity.Scorer
	threshold float64
	patterns  []string
	fallback  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Applied updates are recorded on its "audit"
// child.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScorer replaces the similarity scorer used for duplicate detection.
func WithScorer(s similarity.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithThreshold sets the duplicate threshold used when the project settings
// do not set one.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithPatterns replaces the default discovery patterns. Patterns listed in
// the project settings still take precedence.
func WithPatterns(patterns []string) Option {
	return func(e *Engine) { e.patterns = patterns }
}

// WithFallbackTitle sets the fallback section title used when the project
// settings do not set one.
func WithFallbackTitle(title string) Option {
	return func(e *Engine) { e.fallback = title }
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.audit = e.logger.Named("audit")
	return e
}

// project is the per-call view of a root: its settings, if usable.
type project struct {
	root     string
	settings *settings.Settings
}

// load reads the settings document of root. A malformed document is logged
// and ignored so that defaults and detection apply.
func (e *Engine) load(root string) project {
	p := project{root: root}

	s, err := settings.Load(root)
	switch {
	case err == nil:
		p.settings = s
	case errors.Is(err, fs.ErrNotExist):
	default:
		var cfgErr *settings.ConfigError
		if errors.As(err, &cfgErr) {
			e.logger.Warn("ignoring invalid project settings",
				zap.String("path", cfgErr.Path),
				zap.Error(err),
			)
		} else {
			e.logger.Warn("ignoring unreadable project settings",
				zap.String("path", settings.Path(root)),
				zap.Error(err),
			)
		}
	}

	return p
}

func (e *Engine) patternsFor(p project, override []string) []string {
	switch {
	case len(override) > 0:
		return override
	case p.settings != nil && len(p.settings.Files) > 0:
		return p.settings.Files
	case len(e.patterns) > 0:
		return e.patterns
	default:
		return discovery.DefaultPatterns()
	}
}

func (e *Engine) contextFor(p project) projectctx.Context {
	if p.settings != nil {
		if ctx, ok := p.settings.Declared(); ok {
			return ctx
		}
	}
	return projectctx.Analyze(p.root)
}

func (e *Engine) inserterFor(p project) *inserter.Inserter {
	threshold, fallback := e.threshold, e.fallback
	if p.settings != nil {
		if p.settings.Duplicates.Threshold > 0 {
			threshold = p.settings.Duplicates.Threshold
		}
		if p.settings.FallbackSection != "" {
			fallback = p.settings.FallbackSection
		}
	}
	return inserter.New(dedupe.New(e.scorer, threshold), fallback)
}

// Patterns returns the discovery patterns in effect for root.
func (e *Engine) Patterns(root string) []string {
	return e.patternsFor(e.load(root), nil)
}

// Discover returns the instruction files under root in priority order. A
// non-empty override replaces every other pattern source.
func (e *Engine) Discover(root string, override []string) []string {
	p := e.load(root)
	return e.discover(p, override)
}

func (e *Engine) discover(p project, override []string) []string {
	paths := discovery.Discover(p.root, e.patternsFor(p, override))
	e.logger.Debug("discovered instruction files",
		zap.String("root", p.root),
		zap.Int("count", len(paths)),
	)
	return paths
}

// AnalyzeContext returns the project metadata declared in the settings
// document, or detects it from the project tree.
func (e *Engine) AnalyzeContext(root string) projectctx.Context {
	return e.contextFor(e.load(root))
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("opening project root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root %s is not a directory", root)
	}
	return nil
}
