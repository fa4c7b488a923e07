package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"contentnode/internal/devtools"
	"contentnode/internal/event"
	"contentnode/internal/handler"
	"contentnode/internal/hub"
	"contentnode/internal/service"
	"contentnode/internal/worker"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

// registration pairs a worker with its registry settings
type registration struct {
	worker worker.Worker
	config worker.Config
}

// workers registers the background components of the server. The returned
// function releases their connections once the workers have stopped.
func (a *app) workers(sseHub *hub.Hub) (*worker.Registry, func(), error) {
	registry := worker.NewRegistry(a.logger)
	cleanup := func() {}

	// Connect event bus to SSE hub
	events := make(chan event.ObjectEvent, 256)
	a.bus.Subscribe(events)
	regs := []registration{
		{worker.Func{WorkerName: "sse-hub", Fn: func(ctx context.Context) error {
			sseHub.Run(ctx)
			return ctx.Err()
		}}, worker.Config{Enabled: true}},
		{worker.Func{WorkerName: "sse-events", Fn: func(ctx context.Context) error {
			sseHub.Listen(ctx, events)
			return ctx.Err()
		}}, worker.Config{Enabled: true}},
	}

	if a.cfg.NATS.URL != "" {
		conn, err := service.ConnectNATS(a.cfg.NATS.URL, a.cfg.NATS.Name, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("Connected to NATS", "url", conn.ConnectedUrl(), "prefix", a.cfg.NATS.Prefix)
		cleanup = func() {
			if err := conn.Drain(); err != nil {
				a.logger.Warn("Failed to drain NATS connection", "error", err)
			}
		}
		bridge := service.NewNATSBridge(conn, a.cfg.NATS.Prefix).WithLogger(a.logger)
		regs = append(regs, registration{worker.Func{WorkerName: "nats-bridge", Fn: func(ctx context.Context) error {
			return bridge.Run(ctx, a.bus)
		}}, worker.Config{Enabled: true, RestartDelay: 5 * time.Second}})
	}

	if a.packages != nil {
		regs = append(regs, registration{worker.Func{WorkerName: "devtools-sync", Fn: func(ctx context.Context) error {
			return a.packages.Sync(ctx, a.services.Devtools, devtools.SyncOptions{
				Patterns: a.cfg.Devtools.Patterns,
				Debounce: a.cfg.Devtools.Debounce.Duration(),
				Logger:   a.logger,
			})
		}}, worker.Config{Enabled: a.cfg.Devtools.Watch, RestartDelay: 5 * time.Second}})
	}

	for _, r := range regs {
		if err := registry.Register(r.worker, r.config); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return registry, cleanup, nil
}

// routes builds the HTTP handler with all endpoints and middleware
func (a *app) routes(sseHub *hub.Hub) http.Handler {
	mux := http.NewServeMux()
	handler.New(a.services, a.logger).Register(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	if path := a.cfg.Server.MetricsPath; path != "" {
		mux.Handle("GET "+path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	return handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
		handler.Authenticate(a.services.Users, a.cfg.Server.RequireAuth),
	)
}

// serve runs the server until the context is cancelled
func (a *app) serve(ctx context.Context) error {
	sseHub := hub.New(a.logger)
	workers, cleanup, err := a.workers(sseHub)
	if err != nil {
		return err
	}
	defer cleanup()
	workers.Start(ctx)
	defer workers.Stop()

	server := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.routes(sseHub),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  a.cfg.Server.IdleTimeout.Duration(),
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("Server listening", "addr", a.cfg.Server.Addr, "version", Version)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown error", "error", err)
	}
	a.logger.Info("Server stopped")
	return nil
}
