// Package config provides configuration management for contentnode.
//
// Settings are read from a YAML file and then overridden from the
// environment, so secrets need not be written to the file.
//
// Config file locations (priority order):
//  1. $CONTENTNODE_CONFIG
//  2. ./contentnode.yaml
//  3. ~/.config/contentnode/config.yaml
//  4. /etc/contentnode/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings
const (
	EnvDatabaseURL    = "CONTENTNODE_DATABASE_URL"
	EnvMinIOEndpoint  = "CONTENTNODE_MINIO_ENDPOINT"
	EnvMinIOAccessKey = "CONTENTNODE_MINIO_ACCESS_KEY"
	EnvMinIOSecretKey = "CONTENTNODE_MINIO_SECRET_KEY"
	EnvMinIOBucket    = "CONTENTNODE_MINIO_BUCKET"
	EnvNATSURL        = "CONTENTNODE_NATS_URL"
	EnvLogLevel       = "CONTENTNODE_LOG_LEVEL"
	EnvAddr           = "CONTENTNODE_ADDR"
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Database.Dialect == "" {
		c.Database.Dialect = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./contentnode.db"
	}

	if c.Binstore.Backend == "" {
		c.Binstore.Backend = "fs"
	}
	if c.Binstore.Path == "" {
		c.Binstore.Path = "./binaries"
	}
	if c.Binstore.MinIO.Bucket == "" {
		c.Binstore.MinIO.Bucket = "contentnode"
	}

	if c.NATS.Prefix == "" {
		c.NATS.Prefix = "contentnode"
	}
	if c.NATS.Name == "" {
		c.NATS.Name = "contentnode"
	}

	if c.Devtools.Dir == "" {
		c.Devtools.Dir = "./packages"
	}
	if c.Devtools.Format == "" {
		c.Devtools.Format = "yaml"
	}
	if c.Devtools.Debounce == 0 {
		c.Devtools.Debounce = Duration(500 * time.Millisecond)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv overrides settings from CONTENTNODE_* environment variables.
// A postgres:// database URL also switches the dialect.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			c.Database.Dialect = "postgres"
		}
	}
	if v := os.Getenv(EnvMinIOEndpoint); v != "" {
		c.Binstore.MinIO.Endpoint = v
		c.Binstore.Backend = "minio"
	}
	if v := os.Getenv(EnvMinIOAccessKey); v != "" {
		c.Binstore.MinIO.AccessKey = v
	}
	if v := os.Getenv(EnvMinIOSecretKey); v != "" {
		c.Binstore.MinIO.SecretKey = v
	}
	if v := os.Getenv(EnvMinIOBucket); v != "" {
		c.Binstore.MinIO.Bucket = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Dialect) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "pgx":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database: postgres requires a dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("database: unknown dialect %q", c.Database.Dialect))
	}

	switch c.Binstore.Backend {
	case "fs":
	case "minio":
		if c.Binstore.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("binstore: minio requires an endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("binstore: unknown backend %q", c.Binstore.Backend))
	}

	if c.Devtools.Format != "yaml" && c.Devtools.Format != "json" {
		errs = append(errs, fmt.Errorf("devtools: unknown format %q", c.Devtools.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// DatabaseDSN returns the data source name for the configured dialect
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return c.Database.Path
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s, Binaries: %s\n",
		c.Server.Addr, c.Database.Dialect, c.Binstore.Backend)
	nats := "disabled"
	if c.NATS.URL != "" {
		nats = c.NATS.URL
	}
	devtools := "disabled"
	if c.Devtools.Enabled {
		devtools = c.Devtools.Dir + " (" + c.Devtools.Format + ", watch=" + strconv.FormatBool(c.Devtools.Watch) + ")"
	}
	summary += fmt.Sprintf("NATS: %s, Devtools: %s", nats, devtools)
	return summary
}
