// Package watch re-runs verification when a compiled model directory changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher observes a directory tree and reports debounced change bursts.
type Watcher struct {
	root        string
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	debugLogger func(format string, args ...any)

	mu     sync.Mutex
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithDebugLogger sets a logger for watcher diagnostics.
func WithDebugLogger(logger func(format string, args ...any)) Option {
	return func(w *Watcher) {
		w.debugLogger = logger
	}
}

// New creates a Watcher for the tree rooted at root. Subdirectories present
// now or created later are watched too; hidden directories are skipped.
func New(root string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{root: root, debounce: DefaultDebounce, watcher: fw}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) logDebug(format string, args ...any) {
	if w.debugLogger != nil {
		w.debugLogger(format, args...)
	}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.logDebug("watch: watching %s", path)
		return nil
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// relevant reports whether an event should trigger a run.
func relevant(event fsnotify.Event) bool {
	if isHidden(event.Name) || strings.HasSuffix(event.Name, "~") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Run calls onChange after every burst of changes, once the tree has been quiet
// for the debounce period. It blocks until ctx is done or the watcher fails and
// closes the watcher on return. onChange runs on Run's goroutine, so events
// arriving during a run are coalesced into the next one.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer w.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if !relevant(event) {
				continue
			}
			w.logDebug("watch: %s", event)
			if event.Has(fsnotify.Create) {
				w.watchIfDir(event.Name)
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			w.logDebug("watch: error: %v", err)

		case <-timer.C:
			onChange(ctx)
		}
	}
}

// watchIfDir starts watching a newly created directory.
func (w *Watcher) watchIfDir(path string) {
	if isHidden(path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logDebug("watch: %v", err)
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
