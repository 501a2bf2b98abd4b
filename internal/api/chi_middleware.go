// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/recserve/recserve/internal/config"
)

// ChiMiddleware builds the production middleware stack from configuration:
// go-chi/cors and go-chi/httprate rather than hand-rolled equivalents.
type ChiMiddleware struct {
	cfg  config.APIConfig
	cors func(http.Handler) http.Handler
}

func NewChiMiddleware(cfg config.APIConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	})

	return &ChiMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the CORS middleware. With no configured origins all
// cross-origin requests are refused.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiter for the API routes.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		m.cfg.RateLimitRequests,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitHealth returns a permissive limiter for the health endpoints so
// aggressive monitoring cannot starve them.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		m.cfg.RateLimitRequests*10,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
