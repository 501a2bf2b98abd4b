// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package main is the entry point for the Recserve server.
//
// Recserve serves blended recommendations from three precomputed parquet
// artifacts (item similarity, per-user personal lists, global popularity)
// combined with a bounded in-memory event history per user.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and optional config file (Koanf v2)
//  2. Artifacts: similarity, personal and popularity tables via DuckDB
//  3. Event store: bounded per-user history with LRU user eviction
//  4. Event bus: in-process Watermill pub/sub feeding the audit consumer
//  5. Recommendation service: offline catalog, online generator, blender
//  6. HTTP server: REST API with Prometheus metrics, under supervision
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults.
//
// # Split Deployment
//
// With EVENTS_MODE=http or SIMILARITY_MODE=http the server calls a remote
// events or features service through a circuit-breaker HTTP client instead
// of owning the store locally:
//   - EVENTS_URL: base URL of the remote events service
//   - SIMILARITY_URL: base URL of the remote features service
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests up to the
// shutdown timeout, then logs offline serving statistics.
//
// # Example Usage
//
// Local mode with all artifacts on disk:
//
//	export SIMILAR_ARTIFACT=/data/recsys/similar.parquet
//	export PERSONAL_ARTIFACT=/data/recsys/recommendations.parquet
//	export POPULAR_ARTIFACT=/data/recsys/top_popular.parquet
//	./recserve
//
// Split mode against a remote events service:
//
//	export EVENTS_MODE=http
//	export EVENTS_URL=http://events:8020
//	./recserve
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/recserve/recserve/internal/api"
	"github.com/recserve/recserve/internal/artifact"
	"github.com/recserve/recserve/internal/catalog"
	"github.com/recserve/recserve/internal/client"
	"github.com/recserve/recserve/internal/config"
	"github.com/recserve/recserve/internal/eventbus"
	"github.com/recserve/recserve/internal/events"
	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/recommend"
	"github.com/recserve/recserve/internal/similarity"
	"github.com/recserve/recserve/internal/supervisor"
	"github.com/recserve/recserve/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("events_mode", cfg.Deps.EventsMode).
		Str("similarity_mode", cfg.Deps.SimilarityMode).
		Msg("Starting Recserve")

	loader, err := artifact.NewLoader()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifact loader")
	}
	defer func() {
		if err := loader.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing artifact loader")
		}
	}()

	simStore := similarity.NewStore()
	cat := catalog.New()

	// The popularity artifact is mandatory: without a fallback ranking the
	// server cannot answer offline requests and refuses to start.
	startupCtx := context.Background()
	if err := loadArtifacts(startupCtx, loader, cfg, simStore, cat); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load serving artifacts")
	}
	logging.Info().Msg("Serving artifacts loaded")

	eventSource, err := buildEventSource(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event source")
	}
	simSource := buildSimilaritySource(cfg, simStore)

	// In-process bus: every accepted event is published for the audit
	// consumer, which runs supervised next to the HTTP server.
	bus := eventbus.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	consumer := eventbus.NewAuditConsumer(bus)

	svc := recommend.NewService(cfg.Recommend, eventSource, simSource, cat, bus)

	handler := api.NewHandler(svc)
	handler.AddReadinessCheck("catalog", cat.Ready)
	if cfg.Deps.SimilarityMode == "local" {
		handler.AddReadinessCheck("similarity", simStore.Ready)
	}

	router := api.NewRouter(handler, cfg.API)
	if cfg.Reload.Enabled {
		reloader := &artifactReloader{
			loader: loader,
			cfg:    cfg,
			sim:    simStore,
			cat:    cat,
		}
		router.SetReloadHandler(api.NewReloadHandler(reloader, cfg.Reload.MinInterval))
		logging.Info().Dur("min_interval", cfg.Reload.MinInterval).Msg("Artifact reload endpoint enabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervisor tree: messaging layer (audit consumer) and API layer
	// (HTTP server) restart independently on failure.
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(services.NewHTTPServerService(httpServer, addr, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	cat.LogStats()
	logging.Info().
		Int64("events_audited", consumer.Processed()).
		Msg("Recserve stopped gracefully")
}

// buildEventSource wires the event history dependency: an in-process store
// in local mode, a circuit-breaker HTTP client in http mode.
func buildEventSource(cfg *config.Config) (recommend.EventSource, error) {
	if cfg.Deps.EventsMode == "http" {
		logging.Info().Str("url", cfg.Deps.EventsURL).Msg("Using remote events service")
		return client.NewEventsClient(cfg.Deps.EventsURL, cfg.Deps.Timeout), nil
	}

	store, err := events.NewStore(events.Config{
		Capacity: cfg.Events.Capacity,
		MaxUsers: cfg.Events.MaxUsers,
	})
	if err != nil {
		return nil, err
	}
	return recommend.NewLocalEventSource(store), nil
}

// buildSimilaritySource wires the similarity dependency the same way.
func buildSimilaritySource(cfg *config.Config, store *similarity.Store) recommend.SimilaritySource {
	if cfg.Deps.SimilarityMode == "http" {
		logging.Info().Str("url", cfg.Deps.SimilarityURL).Msg("Using remote features service")
		return client.NewSimilarityClient(cfg.Deps.SimilarityURL, cfg.Deps.Timeout)
	}
	return recommend.NewLocalSimilaritySource(store)
}
