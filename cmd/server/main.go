// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Command server runs the prospectd authentication server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codrava/prospectd/internal/config"
	"github.com/codrava/prospectd/internal/rest"
	"github.com/codrava/prospectd/internal/storage"
	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/logging"
	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/metrics"
	"github.com/codrava/prospectd/pkg/ratelimit"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/token"
	"github.com/codrava/prospectd/pkg/webauthn"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "/etc/prospectd/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("prospectd server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	if envConfig := os.Getenv("PROSPECTD_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("Starting prospectd server",
		"config", *configPath,
		"version", version,
		"rp_id", cfg.WebAuthn.RPID,
		"storage", cfg.Storage.Backend)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := token.NewService([]byte(cfg.Auth.TokenSecret))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	var (
		accounts account.Store
		events   securitylog.Store
	)
	switch cfg.Storage.Backend {
	case "postgres":
		if err := storage.RunMigrations(ctx, cfg.Storage.DSN); err != nil {
			return err
		}
		pool, err := storage.NewPool(ctx, cfg.Storage.DSN, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		accounts = account.NewPostgresStore(pool)
		events = securitylog.NewPostgresStore(pool)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		accounts = account.NewMemoryStore()
		events = securitylog.NewMemoryStore()
	}

	eventSvc := securitylog.NewService(events, logger)

	webauthnSvc, err := webauthn.NewService(webauthn.ServiceParams{
		Config:   &cfg.WebAuthn,
		Accounts: accounts,
		Tokens:   tokens,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("webauthn service: %w", err)
	}

	engine, err := login.NewEngine(login.EngineParams{
		Accounts:   accounts,
		Tokens:     tokens,
		Events:     eventSvc,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("login engine: %w", err)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})
	defer limiter.Stop()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		collector := metrics.StartResourceCollector(ctx, 15*time.Second)
		defer collector.Stop()
	} else {
		metrics.Disable()
	}

	tlsConfig, err := cfg.TLS.LoadTLSConfig()
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}

	server, err := rest.NewServer(&rest.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		WebAuthn:      webauthnSvc,
		Engine:        engine,
		Events:        eventSvc,
		Tokens:        tokens,
		SessionTTL:    cfg.Auth.SessionTTL,
		RateLimiter:   limiter,
		MetricsPath:   metricsPath,
		SecureCookies: cfg.TLS.Enabled,
		TLSConfig:     tlsConfig,
		Logger:        logger,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("rest server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Stop(shutdownCtx)
}
