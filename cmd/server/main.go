// Copyright 2026 The NexusSuite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/config"
	"github.com/nexussuite/clubcore/internal/gateway"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"github.com/nexussuite/clubcore/internal/observability/metrics"
	"github.com/nexussuite/clubcore/internal/observability/tracing"
	"github.com/nexussuite/clubcore/internal/record"
	"github.com/nexussuite/clubcore/internal/store"
	"github.com/nexussuite/clubcore/internal/tenant"
	transportHTTP "github.com/nexussuite/clubcore/internal/transport/http"
)

func main() {
	configPath := flag.String("config", os.Getenv("CLUBCORE_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting clubcore", slog.String("version", cfg.Observability.ServiceVersion))

	if err := run(cfg, log); err != nil {
		slog.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Endpoint:       cfg.Observability.OTELEndpoint,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tracer.Shutdown(ctx)
	}

	meter := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName)
	core, err := metrics.NewCore(meter)
	if err != nil {
		slog.Error("failed to initialize metrics", logger.Error(err))
		core = metrics.NoopCore()
	}

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	slog.Info("store ready", slog.String("driver", cfg.Store.Driver))

	security := logger.NewSecurityLogger(log)
	recorder := audit.NewRecorder(stores.Ledger,
		audit.WithLogger(log),
		audit.WithFailureCounter(core.AuditWriteFailures),
		audit.WithFailureHook(func(ctx context.Context, e audit.Entry, err error) {
			slog.ErrorContext(ctx, "audit entry dropped",
				logger.TenantID(e.TenantID),
				logger.Action(e.Action),
				logger.EntityID(e.EntityID),
				logger.Error(err),
			)
		}),
		audit.WithDefaultListLimit(cfg.Audit.DefaultLimit),
	)

	gw := gateway.New(gateway.Deps{
		Tenants:   stores.Tenants,
		Members:   stores.Members,
		Records:   stores.Records,
		Reader:    record.NewReader(stores.Records, cfg.Resolver.Limit, log),
		Invites:   stores.Invites,
		Recorder:  recorder,
		Security:  security,
		Metrics:   core,
		Logger:    log,
		InviteTTL: cfg.Invites.TTL,
	})
	tenants := tenant.NewService(stores.Tenants, stores.Members, recorder)
	tokens := identity.NewTokenResolver([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.Audience)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(gw, tenants, tokens, transportHTTP.Options{
		Issuer:         tokens,
		TokenTTL:       cfg.Auth.TokenTTL,
		Security:       security,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	router := transportHTTP.NewRouter(handler, rateLimiter)

	addr := cfg.Server.Address()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"), slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		slog.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}
