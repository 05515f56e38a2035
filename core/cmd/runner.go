// Package cmd hosts the reusable entrypoint: resolve the config path, load
// configuration, build the app, and serve until interrupted.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postbot/core/bootstrap"
	coreconfig "postbot/core/config"
	"postbot/core/logger"
)

// Options describe how to load configuration and build the application.
// The function fields exist for tests; nil selects the production default.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Build      func(cfg *coreconfig.Config) (*bootstrap.App, error)

	ShutdownLogger func() error
}

// Run executes the full application lifecycle and blocks until shutdown.
func Run(opts Options) error {
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	build := opts.Build
	if build == nil {
		build = bootstrap.Build
	}
	startedAt := time.Now()
	app, err := build(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("app close error: %v", err)
		}
	}()

	logger.Info(context.Background(), "app", "ready",
		slog.Duration("duration", logger.RoundMS(time.Since(startedAt))),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := app.Run(ctx)

	logger.Info(context.Background(), "app", "shutdown")
	return runErr
}
