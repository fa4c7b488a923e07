// Package worker runs the long-lived background components of the server
// and restarts them when they fail.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Worker is a background component. Run blocks until the context is
// cancelled or the worker fails.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a function to Worker
type Func struct {
	WorkerName string
	Fn         func(ctx context.Context) error
}

func (f Func) Name() string { return f.WorkerName }

func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }

// Config holds the registry settings of a worker
type Config struct {
	Enabled bool
	// RestartDelay is the pause before a failed worker is started again.
	// Zero disables restarts.
	RestartDelay time.Duration
}

// Info provides read-only information about a worker
type Info struct {
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	Running  bool   `json:"running"`
	Restarts int    `json:"restarts"`
	LastErr  string `json:"last_error,omitempty"`
}

type entry struct {
	worker   Worker
	config   Config
	running  bool
	restarts int
	lastErr  error
}

// Registry manages the registered workers and their lifecycle
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewRegistry creates a new worker registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Register adds a worker to the registry
func (r *Registry) Register(w Worker, config Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := w.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("worker %s already registered", name)
	}
	r.entries[name] = &entry{worker: w, config: config}
	r.logger.Debug("Registered worker", "worker", name, "enabled", config.Enabled)
	return nil
}

// Start runs every enabled worker in its own goroutine
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, r.cancel = context.WithCancel(ctx)
	for name, e := range r.entries {
		if !e.config.Enabled {
			r.logger.Debug("Worker is disabled, skipping", "worker", name)
			continue
		}
		e.running = true
		r.wg.Add(1)
		go r.loop(ctx, e)
	}
}

// Stop cancels all workers and waits for them to return
func (r *Registry) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// List returns information about the registered workers ordered by name
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.entries))
	for name, e := range r.entries {
		info := Info{Name: name, Enabled: e.config.Enabled, Running: e.running, Restarts: e.restarts}
		if e.lastErr != nil {
			info.LastErr = e.lastErr.Error()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (r *Registry) loop(ctx context.Context, e *entry) {
	defer r.wg.Done()
	name := e.worker.Name()
	r.logger.Info("Started worker", "worker", name)

	for {
		err := e.worker.Run(ctx)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}

		r.mu.Lock()
		e.lastErr = err
		restart := e.config.RestartDelay > 0
		if restart {
			e.restarts++
		}
		r.mu.Unlock()

		if err != nil {
			r.logger.Error("Worker failed", "worker", name, "error", err)
		}
		if !restart {
			break
		}

		select {
		case <-ctx.Done():
		case <-time.After(e.config.RestartDelay):
			r.logger.Info("Restarting worker", "worker", name)
			continue
		}
		break
	}

	r.mu.Lock()
	e.running = false
	r.mu.Unlock()
	r.logger.Info("Stopped worker", "worker", name)
}
