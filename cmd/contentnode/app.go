package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"contentnode/internal/binstore"
	"contentnode/internal/codec"
	"contentnode/internal/config"
	"contentnode/internal/devtools"
	"contentnode/internal/handler"
	"contentnode/internal/repository/sqlstore"
	"contentnode/internal/service"
)

// app holds the wired components shared by the commands
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqlstore.Store
	bus      *service.EventBus
	registry *prometheus.Registry
	services handler.Services
	packages *devtools.Packages
}

// newApp opens the database and creates the services. Binary storage is
// only connected when binaries is set.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, binaries bool) (*app, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Database.Dialect)
	if err != nil {
		return nil, err
	}
	store, err := sqlstore.Open(dialect, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	logger.Info("Database opened", "dialect", dialect)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	bus := service.NewEventBus().WithMetrics(metrics)
	objects := service.NewObjectService(store, bus).WithLogger(logger).WithMetrics(metrics)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		bus:      bus,
		registry: registry,
		services: handler.Services{
			Objects:  objects,
			Channels: service.NewChannelService(objects),
			Render:   service.NewRenderService(objects),
			Users:    service.NewUserService(objects),
		},
	}

	if binaries {
		bs, err := openBinstore(ctx, cfg.Binstore)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.services.Files = service.NewFileService(objects, bs)
		logger.Info("Binary store ready", "backend", cfg.Binstore.Backend)
	}

	if cfg.Devtools.Enabled {
		c, err := codec.ForFormat(cfg.Devtools.Format)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.packages = devtools.New(cfg.Devtools.Dir, c)
		a.services.Devtools = service.NewDevtoolsService(objects, a.packages).WithNode(cfg.Devtools.NodeID)
		logger.Info("Devtools enabled", "dir", cfg.Devtools.Dir, "format", c.Format())
	}

	return a, nil
}

func openBinstore(ctx context.Context, cfg config.BinstoreConfig) (binstore.Store, error) {
	switch cfg.Backend {
	case "minio":
		store, err := binstore.NewMinIOStore(ctx, binstore.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Region:    cfg.MinIO.Region,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("connect binary store: %w", err)
		}
		return store, nil
	default:
		return binstore.NewFSStore(cfg.Path)
	}
}

// requireDevtools fails when devtools are not enabled in the config
func (a *app) requireDevtools() (*service.DevtoolsService, error) {
	if a.services.Devtools == nil {
		return nil, fmt.Errorf("devtools are disabled, set devtools.enabled in the config")
	}
	return a.services.Devtools, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close database", "error", err)
	}
}
