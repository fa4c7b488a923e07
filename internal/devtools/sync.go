package devtools

import (
	"context"
	"log/slog"
	"time"

	"contentnode/internal/watcher"
)

// Importer applies a loaded package to the content repository
type Importer interface {
	Import(ctx context.Context, name string, c *Contents) error
}

// ImporterFunc adapts a function to Importer
type ImporterFunc func(ctx context.Context, name string, c *Contents) error

// Import calls f
func (f ImporterFunc) Import(ctx context.Context, name string, c *Contents) error {
	return f(ctx, name, c)
}

// SyncOptions configure package synchronization
type SyncOptions struct {
	// Patterns restrict the watched files, relative to the packages directory.
	// Empty means every file.
	Patterns []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Sync watches the packages directory and re-imports every package whose
// files change. It blocks until the context is cancelled.
func (p *Packages) Sync(ctx context.Context, imp Importer, opts SyncOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	onChange := func(name string) {
		contents, err := p.Load(name)
		if err != nil {
			logger.Warn("Failed to load changed package", "package", name, "error", err)
			return
		}
		if err := imp.Import(ctx, name, contents); err != nil {
			logger.Error("Failed to import package", "package", name, "error", err)
			return
		}
		logger.Info("Imported package",
			"package", name,
			"constructs", len(contents.Constructs),
			"datasources", len(contents.Datasources),
			"templates", len(contents.Templates),
			"objectproperties", len(contents.ObjectProperties))
	}

	w := watcher.New(p.root, onChange).
		WithPatterns(opts.Patterns...).
		WithKey(p.PackageOf).
		WithLogger(logger)
	if opts.Debounce > 0 {
		w = w.WithDebounce(opts.Debounce)
	}
	return w.Watch(ctx)
}
