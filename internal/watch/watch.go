// Package watch keeps the published page maps current while content
// changes. File events are debounced, grouped by directory and spliced into
// the affected subtree of the locale's page map; only the changed files'
// compile cache entries are dropped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagecompiler/internal/build"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
	"git.home.luguber.info/inful/pagecompiler/internal/util/sets"
)

// DefaultDebounce is the quiet period before pending changes are applied.
const DefaultDebounce = 300 * time.Millisecond

// Changes is a batch of filesystem changes.
type Changes struct {
	Dirs  sets.Set[string]
	Files sets.Set[string]
}

// Watcher applies content changes to a builder's registry and cache.
type Watcher struct {
	builder  *build.Builder
	root     string
	debounce time.Duration
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	pending Changes
	timer   *time.Timer
	ready   chan struct{}

	// Applied, when set, observes every applied batch.
	Applied func(Changes, error)
}

// New creates a watcher for b. The builder must have a Registry and Cache,
// and its registry should already hold a snapshot.
func New(b *build.Builder, debounce time.Duration) (*Watcher, error) {
	if b.Registry == nil || b.Cache == nil {
		return nil, errors.New("watch: builder needs a registry and a cache")
	}
	root, err := filepath.Abs(b.Config.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		builder:  b,
		root:     root,
		debounce: debounce,
		recorder: metrics.OrNoop(b.Recorder),
		logger:   logger,
		pending:  Changes{Dirs: sets.New[string](), Files: sets.New[string]()},
		ready:    make(chan struct{}, 1),
	}, nil
}

// Run watches the content tree until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := w.addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("Watching content", logfields.Dir(w.root), slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-w.ready:
			changes := w.takePending()
			err := w.Apply(ctx, changes)
			if err != nil {
				w.logger.Warn("Applying content changes failed", logfields.Error(err))
			}
			if w.Applied != nil {
				w.Applied(changes, err)
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("Content change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.Files.Add(ev.Name)
	w.pending.Dirs.Add(filepath.Dir(ev.Name))
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.ready <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) takePending() Changes {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.pending
	w.pending = Changes{Dirs: sets.New[string](), Files: sets.New[string]()}
	return c
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && shouldIgnore(path) {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// Apply invalidates the changed files and splices every changed directory
// into its locale's page map. A directory that cannot be spliced triggers a
// full re-index. The registry is only updated when every splice succeeded.
func (w *Watcher) Apply(ctx context.Context, c Changes) error {
	for _, f := range sets.Sorted(c.Files) {
		w.builder.Cache.Invalidate(ctx, f)
	}

	snap := w.builder.Registry.Snapshot()
	if snap == nil {
		return w.reindex(ctx)
	}
	pb := w.builder.PageMapBuilder()
	opts := w.builder.ScanOptions()

	for _, dir := range topmost(c.Dirs) {
		locale, ok := w.localeOf(dir)
		if !ok {
			continue
		}
		pm, ok := snap.PageMaps[locale]
		if !ok {
			continue
		}
		d, err := scan.ScanDir(ctx, dir, opts)
		if err != nil {
			var se *scan.ScanError
			if errors.As(err, &se) {
				w.logger.Debug("Changed directory unreadable; re-indexing", logfields.Dir(dir), logfields.Error(err))
				return w.reindex(ctx)
			}
			return err
		}
		spliced, diags, err := pb.Splice(ctx, pm, d)
		if errors.Is(err, pagemap.ErrNotSpliceable) {
			w.logger.Debug("Directory not spliceable; re-indexing", logfields.Dir(dir))
			return w.reindex(ctx)
		}
		if err != nil {
			return err
		}
		for _, diag := range diags {
			w.logger.Warn("Page map diagnostic", logfields.Locale(locale), slog.String("diagnostic", diag.String()))
		}
		next, err := snap.With(locale, spliced)
		if err != nil {
			return err
		}
		snap = next
	}

	w.publish(snap)
	return nil
}

func (w *Watcher) reindex(ctx context.Context) error {
	_, err := w.builder.Index(ctx)
	return err
}

func (w *Watcher) publish(snap *routes.Snapshot) {
	w.builder.Registry.Publish(snap)
	for locale, t := range snap.Tables {
		w.recorder.SetRoutes(locale, t.Len())
	}
	w.logger.Info("Page maps updated", logfields.Count(len(snap.Tables)))
}

// localeOf maps a directory to the locale whose tree contains it.
func (w *Watcher) localeOf(dir string) (string, bool) {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if !w.builder.Config.Localized() {
		return "", true
	}
	first := strings.Split(filepath.ToSlash(rel), "/")[0]
	for _, l := range w.builder.Config.Locales {
		if l == first {
			return l, true
		}
	}
	return "", false
}

// topmost drops directories nested inside another changed directory.
func topmost(dirs sets.Set[string]) []string {
	cleaned := sets.New[string]()
	for d := range dirs {
		cleaned.Add(filepath.Clean(d))
	}
	var out []string
	for _, d := range sets.Sorted(cleaned) {
		nested := false
		for _, kept := range out {
			if d == kept || strings.HasPrefix(d, kept+string(filepath.Separator)) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, d)
		}
	}
	return out
}

// shouldIgnore reports hidden, editor swap and temp files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
