// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/adsgate/internal/api"
	"github.com/tomtom215/adsgate/internal/config"
	"github.com/tomtom215/adsgate/internal/logging"
	"github.com/tomtom215/adsgate/internal/manager"
	"github.com/tomtom215/adsgate/internal/supervisor"
	"github.com/tomtom215/adsgate/internal/supervisor/services"
	"github.com/tomtom215/adsgate/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("api_version", cfg.Ads.APIVersion).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("http_enabled", cfg.Server.Enabled).
		Msg("Starting Adsgate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Adsgate stopped with an error")
	}
	logging.Info().Msg("Adsgate stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	mgr, err := manager.New(cfg)
	if err != nil {
		return fmt.Errorf("manager: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			logging.Warn().Err(err).Msg("Manager close reported an error")
		}
	}()

	watchLogLevel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	tree.AddMaintenanceService(services.NewTokenSweeperService(mgr.Tokens()))

	if cfg.Server.Enabled {
		server := &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: api.NewRouter(mgr, api.RouterConfig{
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
				CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
				AdminJWTSecret:     cfg.Server.AdminJWTSecret,
				Version:            version,
			}),
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// The tree sends exactly one result once every service has stopped.
	var treeErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		treeErr = err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}

// watchLogLevel applies log level changes from the config file without a
// restart. Every other setting still needs one.
func watchLogLevel() {
	path := config.FilePath()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		next, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(next.Logging.Level)
		logging.Info().Str("level", next.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
