// Package watcher reports settled changes under a file or directory tree.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 2 * time.Second

// Handler receives the sorted set of paths changed during one quiet period.
type Handler func(ctx context.Context, changed []string)

// Watcher watches a file, or a directory tree recursively.
type Watcher struct {
	root     string
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, calling handle after each burst of
// changes settles. Calls to handle never overlap.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// A single file is watched through its directory so that editors which
	// replace the file on save keep being observed.
	target := w.root
	if !info.IsDir() {
		target = filepath.Dir(w.root)
	}
	if err := w.addTree(fw, target); err != nil {
		return err
	}
	logger.Info("Watching %s for changes", w.root)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, info.IsDir()) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn("Cannot watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			logger.Debug("Change: %s %s", event.Op, event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			handle(ctx, changed)
		}
	}
}

// relevant filters out hidden paths, chmod-only events and, when a single
// file is watched, its siblings.
func (w *Watcher) relevant(event fsnotify.Event, dirMode bool) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if hidden(event.Name) {
		return false
	}
	if !dirMode {
		return filepath.Clean(event.Name) == filepath.Clean(w.root)
	}
	return true
}

// addTree adds dir and every non-hidden subdirectory.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
