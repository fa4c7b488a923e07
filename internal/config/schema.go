package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Binstore BinstoreConfig `yaml:"binstore"`
	NATS     NATSConfig     `yaml:"nats"`
	Devtools DevtoolsConfig `yaml:"devtools"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// RequireAuth rejects API requests without valid basic credentials
	RequireAuth bool `yaml:"require_auth"`
	// MetricsPath serves prometheus metrics; empty disables them
	MetricsPath string `yaml:"metrics_path"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Dialect string `yaml:"dialect"` // sqlite, postgres
	Path    string `yaml:"path"`    // sqlite file
	DSN     string `yaml:"dsn,omitempty"`
}

// BinstoreConfig selects where file and image contents are kept
type BinstoreConfig struct {
	Backend string      `yaml:"backend"` // fs, minio
	Path    string      `yaml:"path"`
	MinIO   MinIOConfig `yaml:"minio"`
}

// MinIOConfig holds S3 compatible storage settings
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// NATSConfig configures forwarding of object events; an empty URL disables it
type NATSConfig struct {
	URL    string `yaml:"url,omitempty"`
	Prefix string `yaml:"subject_prefix"`
	Name   string `yaml:"client_name"`
}

// DevtoolsConfig configures the package directory
type DevtoolsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"` // yaml, json
	// NodeID receives imported templates
	NodeID int `yaml:"node_id,omitempty"`
	// Watch re-imports packages when their files change
	Watch    bool     `yaml:"watch"`
	Patterns []string `yaml:"patterns,omitempty"`
	Debounce Duration `yaml:"debounce"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
