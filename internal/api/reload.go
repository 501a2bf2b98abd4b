// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
	"github.com/recserve/recserve/internal/models"
)

// ArtifactReloader re-reads the offline artifacts and swaps them in
// atomically. In-flight requests keep the snapshot they started with.
type ArtifactReloader interface {
	Reload(ctx context.Context) error
}

// ReloadHandler serves the admin artifact reload endpoint, throttled so a
// misfiring automation cannot hammer the artifact store.
type ReloadHandler struct {
	reloader ArtifactReloader
	limiter  *rate.Limiter
}

// NewReloadHandler allows one reload per minInterval with no burst beyond
// the first.
func NewReloadHandler(reloader ArtifactReloader, minInterval time.Duration) *ReloadHandler {
	return &ReloadHandler{
		reloader: reloader,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Reload handles POST /api/v1/admin/reload.
func (h *ReloadHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		metrics.ArtifactReloadsTotal.WithLabelValues("throttled").Inc()
		respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
			"reload already in progress or requested too recently", nil)
		return
	}

	logging.Info().Msg("artifact reload requested")
	if err := h.reloader.Reload(r.Context()); err != nil {
		metrics.ArtifactReloadsTotal.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, "RELOAD_ERROR", "artifact reload failed", err)
		return
	}

	metrics.ArtifactReloadsTotal.WithLabelValues("success").Inc()
	respondJSON(w, http.StatusOK, models.HealthData{Status: "reloaded"})
}
