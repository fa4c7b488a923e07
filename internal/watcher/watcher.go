package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory tree and reports changed files matching its
// patterns. Changes are grouped by key and debounced, so a burst of writes
// to one key results in a single callback.
type Watcher struct {
	root     string
	patterns []string
	onChange func(key string)
	keyOf    func(rel string) string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a new watcher for the directory tree below root
func New(root string, onChange func(key string)) *Watcher {
	return &Watcher{
		root:     root,
		onChange: onChange,
		keyOf:    func(rel string) string { return rel },
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// WithPatterns restricts reported files to the doublestar patterns,
// matched against the slash separated path relative to the root
func (w *Watcher) WithPatterns(patterns ...string) *Watcher {
	w.patterns = patterns
	return w
}

// WithKey groups changed paths; the callback receives the key
func (w *Watcher) WithKey(keyOf func(rel string) string) *Watcher {
	w.keyOf = keyOf
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// Matches reports whether the relative path is covered by the patterns.
// Without patterns every path matches.
func (w *Watcher) Matches(rel string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	for _, pattern := range w.patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Watch starts watching the tree for changes
// It blocks until the context is cancelled or an error occurs
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return err
	}

	w.logger.Info("Watching directory for changes", "root", w.root, "patterns", w.patterns)

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// new directories are not watched by fsnotify automatically
			if event.Op&fsnotify.Create != 0 {
				if isDir(event.Name) {
					if err := w.addRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("Failed to watch directory", "path", event.Name, "error", err)
					}
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !w.Matches(rel) {
				continue
			}

			key := w.keyOf(rel)
			if key == "" {
				continue
			}

			mu.Lock()
			if timer, exists := timers[key]; exists {
				timer.Stop()
			}
			timers[key] = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				delete(timers, key)
				mu.Unlock()
				w.logger.Debug("Change detected", "key", key)
				w.onChange(key)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ctx.Done():
			mu.Lock()
			for _, timer := range timers {
				timer.Stop()
			}
			mu.Unlock()
			return ctx.Err()
		}
	}
}

// addRecursive adds watches to all directories below root, skipping hidden ones
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
