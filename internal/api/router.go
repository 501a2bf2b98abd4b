// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recserve/recserve/internal/config"
	"github.com/recserve/recserve/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	reloadHandler *ReloadHandler
}

func NewRouter(handler *Handler, cfg config.APIConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg),
	}
}

// SetReloadHandler enables the admin artifact reload route.
func (router *Router) SetReloadHandler(h *ReloadHandler) {
	router.reloadHandler = h
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints get a permissive rate limit so frequent probes
	// never 429.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Event history endpoints.
	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/", router.handler.CreateEvent)
		r.Get("/recent", router.handler.RecentEvents)
		r.Get("/users", router.handler.KnownUsers)
	})

	// Similarity endpoints.
	r.Route("/api/v1/similar", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", router.handler.Similar)
		r.Get("/sample", router.handler.SimilarSample)
	})

	// Recommendation endpoints.
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", router.handler.Recommendations)
		r.Get("/offline", router.handler.OfflineRecommendations)
		r.Get("/online", router.handler.OnlineRecommendations)
		r.Get("/stats", router.handler.RecommendStats)
	})

	// Admin endpoints, registered only when configured.
	if router.reloadHandler != nil {
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/reload", router.reloadHandler.Reload)
		})
	}

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
