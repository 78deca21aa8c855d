// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the entry point for the Marquee recommendation server.
//
// The server loads the latest model artifact written by cmd/train and serves
// recommendations over HTTP. It never builds a model itself.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config.yaml and environment (Koanf v2)
//  2. Model store: file directory or BadgerDB (MODEL_STORE)
//  3. Engine: holds the active snapshot behind a circuit breaker
//  4. Event bus: model-built notifications (gochannel, NATS or none)
//  5. Supervisor tree: reload service in the data layer, HTTP server in the
//     api layer
//
// The reload service performs the first load at startup, then reloads on
// model-built events and on a polling interval. Until a model is loaded
// /health/ready answers 503 and /recommend returns an empty list.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server, which drains in-flight requests for HTTP_SHUTDOWN_TIMEOUT.
//
// # Example Usage
//
//	export MODEL_PATH=/data/models
//	export CORS_ORIGINS=http://localhost:3000
//	./marquee-server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/storage"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "marquee-server",
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Server stopped")
}

//nolint:gocritic // cfg is read once at startup
func run(cfg *config.Config) error {
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store_backend", cfg.Store.Backend).
		Str("store_path", cfg.Store.Path).
		Str("model_name", cfg.Store.ModelName).
		Str("events_transport", cfg.Events.Transport).
		Msg("Starting Marquee server")

	store, err := storage.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()

	engine := recommend.NewEngine(store, recommend.EngineConfig{
		ModelName:        cfg.Store.ModelName,
		DefaultTopN:      cfg.Recommend.DefaultTopN,
		MaxTopN:          cfg.Recommend.MaxTopN,
		MinRating:        cfg.Recommend.MinRating,
		MinYear:          cfg.Recommend.MinYear,
		LoadTimeout:      cfg.Recommend.LoadTimeout,
		SimilarCacheSize: cfg.Recommend.SimilarCacheSize,
		SimilarCacheTTL:  cfg.Recommend.SimilarCacheTTL,
	})

	bus, err := events.New(events.Config{
		Transport:  cfg.Events.Transport,
		NATSURL:    cfg.Events.NATSURL,
		Topic:      cfg.Events.Topic,
		QueueGroup: cfg.Events.QueueGroup,
		NATSName:   "marquee-server",
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	reloader := services.NewReloadService(engine, bus, services.ReloadServiceConfig{
		PollInterval: cfg.Recommend.ReloadInterval,
		MinInterval:  cfg.Recommend.MinReloadInterval,
	})

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	mw := api.NewMiddleware(api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	handler := api.NewHandler(engine, reloader, api.HandlerConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, mw),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout + 5*time.Second
	tree := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), treeCfg)
	tree.AddDataService(reloader)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
