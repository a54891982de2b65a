package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Nas4146/brief/internal/branding"
	"github.com/Nas4146/brief/internal/discovery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches the directories that can hold instruction files.
type Watcher struct {
	root     string
	patterns []string
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
	dirs     []string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New prepares a Watcher for root. Changes are reported for files matching
// patterns and for the settings document. Directories are registered here;
// those that do not exist yet are not watched.
func New(root string, patterns []string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("opening project root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}

	if len(patterns) == 0 {
		patterns = discovery.DefaultPatterns()
	}

	w := &Watcher{
		root:     abs,
		patterns: patterns,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w.fsw = fsw

	for _, dir := range watchDirs(abs, patterns) {
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("not watching directory", zap.String("path", dir), zap.Error(err))
			continue
		}
		w.dirs = append(w.dirs, dir)
	}

	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	out := make([]string, len(w.dirs))
	copy(out, w.dirs)
	return out
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers settled changes to onChange as sorted slash-separated paths
// relative to the root. It blocks until ctx is cancelled and releases the
// underlying watcher before returning. A Watcher runs once.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	defer w.fsw.Close()

	ticker := time.NewTicker(tickFor(w.debounce))
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.relevant(event); ok {
				w.logger.Debug("instruction file changed",
					zap.String("path", rel),
					zap.String("op", event.Op.String()),
				)
				pending[rel] = time.Now()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			var settled []string
			for rel, at := range pending {
				if now.Sub(at) >= w.debounce {
					settled = append(settled, rel)
					delete(pending, rel)
				}
			}
			if len(settled) > 0 {
				sort.Strings(settled)
				onChange(settled)
			}
		}
	}
}

// relevant reports whether event concerns a watched file.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if rel == branding.SettingsFile() || discovery.IsInstructionFile(rel, w.patterns) {
		return rel, true
	}
	return "", false
}

// watchDirs returns the existing directories that hold the static prefix of
// each pattern, the root first.
func watchDirs(root string, patterns []string) []string {
	seen := map[string]bool{root: true}
	dirs := []string{root}

	for _, p := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		dir := filepath.Join(root, filepath.FromSlash(base))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

func tickFor(debounce time.Duration) time.Duration {
	tick := debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}
