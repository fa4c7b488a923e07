// Package main provides the contentnode binary entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"contentnode/internal/config"
)

const (
	Version = "0.1.0"
	appName = "contentnode"
)

// BuildTime is set by the linker
var BuildTime = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags of all commands
type globalOptions struct {
	configPath string
	logLevel   string
}

// load reads the configuration and sets up the default logger
func (o *globalOptions) load() (*config.Config, *slog.Logger, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if o.configPath != "" {
		cfg, path, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		if _, err := config.ParseLevel(o.logLevel); err != nil {
			return nil, nil, err
		}
		cfg.Log.Level = o.logLevel
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("Loaded config", "path", path)
	} else {
		logger.Debug("No config file found, using defaults")
	}
	return cfg, logger, nil
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Content repository server",
		Long: `contentnode stores the objects of a web content management system:
nodes and channels, folders, pages, templates, files and images.

It serves them over a REST API with multichannelling (localized copies
and disinheritance per channel), streams change events via server-sent
events and NATS, and synchronizes implementation objects with devtools
packages on disk.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(opts),
		migrateCmd(opts),
		devtoolsCmd(opts),
		userCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
