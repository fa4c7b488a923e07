package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentnode/internal/config"
	"contentnode/internal/hub"
)

// writeConfig creates a config file using a database and directories below dir
func writeConfig(t *testing.T, dir string, modify func(*config.Config)) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "contentnode.db")
	cfg.Binstore.Path = filepath.Join(dir, "binaries")
	cfg.Devtools.Dir = filepath.Join(dir, "packages")
	cfg.Log.Level = "error"
	if modify != nil {
		modify(cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

// execute runs the CLI with the arguments and returns its output
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "contentnode version "+Version)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, nil)

	out, err := execute(t, "", "--config", path, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date (sqlite)")
	assert.FileExists(t, filepath.Join(dir, "contentnode.db"))
}

func TestUserCreateCommand(t *testing.T) {
	path := writeConfig(t, t.TempDir(), nil)

	out, err := execute(t, "", "--config", path, "user", "create", "editor",
		"--first-name", "Erin", "--last-name", "Editor", "--password", "correct horse")
	require.NoError(t, err)
	assert.Contains(t, out, `"login":"editor"`)

	_, err = execute(t, "", "--config", path, "user", "create", "EDITOR", "--password", "correct horse")
	assert.ErrorContains(t, err, "conflicts with an existing object")

	_, err = execute(t, "correct horse\n", "--config", path, "user", "create", "author")
	assert.NoError(t, err, "password should be read from stdin")
}

func TestDevtoolsCommands(t *testing.T) {
	dir := t.TempDir()

	disabled := writeConfig(t, dir, nil)
	_, err := execute(t, "", "--config", disabled, "devtools", "list")
	assert.ErrorContains(t, err, "devtools are disabled")

	enabled := writeConfig(t, dir, func(c *config.Config) { c.Devtools.Enabled = true })
	out, err := execute(t, "", "--config", enabled, "devtools", "export", "base")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported package base")

	out, err = execute(t, "", "--config", enabled, "devtools", "list")
	require.NoError(t, err)
	assert.Equal(t, "base\n", out)

	out, err = execute(t, "", "--config", enabled, "devtools", "import", "base")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported package base: 0 constructs")

	_, err = execute(t, "", "--config", enabled, "devtools", "import", "missing")
	assert.Error(t, err)
}

func TestInvalidLogLevelFlag(t *testing.T) {
	path := writeConfig(t, t.TempDir(), nil)
	_, err := execute(t, "", "--config", path, "--log-level", "loud", "migrate")
	assert.ErrorContains(t, err, "unknown log level")
}

func newTestApp(t *testing.T, modify func(*config.Config)) *app {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = ":memory:"
	cfg.Binstore.Path = t.TempDir()
	cfg.Server.MetricsPath = "/metrics"
	if modify != nil {
		modify(cfg)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	a, err := newApp(context.Background(), cfg, logger, true)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, nil)
	h := a.routes(hub.New(nil))

	tests := []struct {
		name string
		path string
		want int
		body string
	}{
		{"health", "/healthz", http.StatusOK, `"ok"`},
		{"metrics", "/metrics", http.StatusOK, "go_goroutines"},
		{"api", "/api/node", http.StatusOK, `"numItems":0`},
		{"events with unknown type", "/events?type=bogus", http.StatusBadRequest, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.Server.RequireAuth = true })
	h := a.routes(hub.New(nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/node", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkers(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.Devtools.Enabled = true })

	registry, cleanup, err := a.workers(hub.New(nil))
	require.NoError(t, err)
	defer cleanup()

	var names []string
	for _, info := range registry.List() {
		names = append(names, info.Name)
		if info.Name == "devtools-sync" {
			assert.False(t, info.Enabled, "package watching is off by default")
		}
	}
	assert.Equal(t, []string{"devtools-sync", "sse-events", "sse-hub"}, names)
}
