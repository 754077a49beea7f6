// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/trailpass/trailpass/internal/auth"
	"github.com/trailpass/trailpass/internal/auth/postgres"
	"github.com/trailpass/trailpass/internal/config"
	"github.com/trailpass/trailpass/internal/httpapi"
	"github.com/trailpass/trailpass/internal/logging"
	"github.com/trailpass/trailpass/internal/mailer"
	"github.com/trailpass/trailpass/internal/observability"
	"github.com/trailpass/trailpass/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TrailPass API server",
		Long: `Start the API server, which serves the account and session
endpoints plus a separate observability listener for metrics and
health probes.`,
		RunE: runServe,
	}

	// Flag names match the config keys so file values and flag
	// overrides merge without translation.
	def := config.Default()
	cmd.Flags().String("env", def.Env, "environment (development or production)")
	cmd.Flags().String("listen_addr", def.ListenAddr, "API listen address")
	cmd.Flags().String("observability_addr", def.ObservabilityAddr, "metrics and health listen address")
	cmd.Flags().String("public_base_url", def.PublicBaseURL, "base URL used in outbound mail links")
	cmd.Flags().String("log_format", def.LogFormat, "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("trailpass", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	hasher := auth.NewArgon2idHasher()
	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	mail := mailer.NewLogMailer(logger)

	svc, err := auth.NewService(users, hasher, tokens, mail)
	if err != nil {
		return err
	}
	resets, err := auth.NewPasswordResetService(users, hasher, tokens, mail)
	if err != nil {
		return err
	}

	obs := observability.NewServer(cfg.ObservabilityAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if stopErr := obs.Stop(stopCtx); stopErr != nil {
			logger.Error("observability server stop failed", "error", stopErr)
		}
	}()

	handler := httpapi.NewHandler(svc, resets, logger, httpapi.Options{
		Production:    cfg.IsProduction(),
		CookieTTL:     time.Duration(cfg.CookieTTLDays) * 24 * time.Hour,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		logger.Info("api server started", "addr", cfg.ListenAddr, "env", cfg.Env)
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			serveErrCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-serveErrCh:
		return oops.Code("SERVER_FAILED").With("addr", cfg.ListenAddr).Wrap(serveErr)
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return oops.Code("SERVER_FAILED").With("addr", cfg.ObservabilityAddr).Wrap(obsErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	logger.Info("api server stopped")
	return nil
}
