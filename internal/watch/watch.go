// Package watch delivers debounced filesystem change batches so the
// pipeline can be re-run while editing.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before its change
// is reported.
const DefaultDebounce = 400 * time.Millisecond

// defaultIgnore names directories that never trigger a re-run. Build
// output is excluded so a run does not re-trigger itself.
var defaultIgnore = []string{".git", "node_modules", "dist", ".shakedown"}

// Options configures a Watcher.
type Options struct {
	Root     string
	Paths    []string // subtrees to watch, relative to Root; empty watches the whole root
	Ignore   []string // extra directory names or root-relative prefixes to skip
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher wraps fsnotify and coalesces raw events into settled batches.
type Watcher struct {
	opts Options
	fsw  *fsnotify.Watcher

	changes chan []string

	mu      sync.Mutex
	pending map[string]time.Time
	batch   map[string]struct{}
	stats   Stats
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Stats counts watcher activity for diagnostics.
type Stats struct {
	Events   int
	Batches  int
	Errors   int
	LastPath string
}

// New creates a Watcher for the given project root.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Ignore = append(append([]string{}, defaultIgnore...), opts.Ignore...)

	return &Watcher{
		opts:    opts,
		fsw:     fsw,
		changes: make(chan []string, 1),
		pending: make(map[string]time.Time),
		batch:   make(map[string]struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Changes returns the channel on which settled change batches arrive.
// The channel is closed when the watcher stops. Paths are relative to
// the project root and sorted.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Start registers the watched directories and begins the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs, err := collectDirs(w.opts.Root, w.opts.Paths, w.opts.Ignore)
	if err != nil {
		w.abortStart()
		return err
	}
	for _, dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			w.abortStart()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.opts.Logger.Debug("watching directory", zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// abortStart unwinds a failed Start so the event loop is never waited on.
func (w *Watcher) abortStart() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.fsw.Close()
}

// Stop shuts the event loop down and closes the change channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.opts.Logger.Warn("close watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.changes)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.opts.Logger.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.opts.Root, event.Name)
	if err != nil {
		rel = event.Name
	}
	if ignoredPath(rel, w.opts.Ignore) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		// New directories join the watch so files created inside
		// them are seen too.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.opts.Logger.Warn("watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
		}
	case event.Op&fsnotify.Write != 0:
	case event.Op&fsnotify.Remove != 0:
	case event.Op&fsnotify.Rename != 0:
	default:
		// Chmod and friends never warrant a re-run.
		return
	}

	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.stats.Events++
	w.stats.LastPath = rel
	w.mu.Unlock()
}

// flush moves settled events into the outgoing batch and attempts a
// non-blocking delivery. If the consumer is mid-run the batch keeps
// accumulating and is re-sent on a later tick.
func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for path, eventTime := range w.pending {
		if now.Sub(eventTime) >= w.opts.Debounce {
			w.batch[path] = struct{}{}
			delete(w.pending, path)
		}
	}
	if len(w.batch) == 0 {
		return
	}

	paths := make([]string, 0, len(w.batch))
	for path := range w.batch {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	select {
	case w.changes <- paths:
		w.batch = make(map[string]struct{})
		w.stats.Batches++
	default:
	}
}

// collectDirs walks the watched subtrees and returns every directory
// that is not ignored.
func collectDirs(root string, paths, ignore []string) ([]string, error) {
	starts := []string{root}
	if len(paths) > 0 {
		starts = starts[:0]
		for _, p := range paths {
			starts = append(starts, filepath.Join(root, p))
		}
	}

	var dirs []string
	for _, start := range starts {
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if rel != "." && ignoredPath(rel, ignore) {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", start, err)
		}
	}
	return dirs, nil
}

// ignoredPath reports whether a root-relative path falls under any
// ignore entry. Entries containing a slash match as prefixes; plain
// names match any path component.
func ignoredPath(rel string, ignore []string) bool {
	rel = filepath.ToSlash(rel)
	for _, entry := range ignore {
		entry = strings.Trim(filepath.ToSlash(entry), "/")
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if rel == entry || strings.HasPrefix(rel, entry+"/") {
				return true
			}
			continue
		}
		for _, part := range strings.Split(rel, "/") {
			if part == entry {
				return true
			}
		}
	}
	return false
}
