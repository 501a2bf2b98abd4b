// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/models"
	"github.com/recserve/recserve/internal/recerr"
	"github.com/recserve/recserve/internal/recommend"
)

// Handler holds the endpoint implementations. All domain logic lives in the
// recommendation service; handlers only translate HTTP to service calls and
// apply the error taxonomy: invalid arguments map to 400, unavailable
// dependencies degrade to empty results, unknown entities are empty results.
type Handler struct {
	svc    *recommend.Service
	checks map[string]func() bool
}

func NewHandler(svc *recommend.Service) *Handler {
	return &Handler{
		svc:    svc,
		checks: make(map[string]func() bool),
	}
}

// AddReadinessCheck registers a named readiness probe evaluated by
// HealthReady.
func (h *Handler) AddReadinessCheck(name string, check func() bool) {
	h.checks[name] = check
}

// respondListError applies the taxonomy for list-returning endpoints: a
// degraded dependency yields an empty-but-successful response.
func respondListError(w http.ResponseWriter, err error, empty interface{}) {
	switch {
	case errors.Is(err, recerr.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, recerr.ErrDependencyUnavailable):
		logging.Warn().Err(err).Msg("dependency unavailable, serving empty result")
		respondJSON(w, http.StatusOK, empty)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", err)
	}
}

// CreateEvent handles POST /api/v1/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := h.svc.RecordEvent(r.Context(), req.UserID, req.ItemID); err != nil {
		switch {
		case errors.Is(err, recerr.ErrInvalidArgument):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, recerr.ErrDependencyUnavailable):
			respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "event store unavailable", err)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, models.EventAccepted{UserID: req.UserID, ItemID: req.ItemID})
}

// RecentEvents handles GET /api/v1/events/recent.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := getInt64Param(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	k, err := getIntParam(r, "k", 10)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	events, err := h.svc.RecentEvents(r.Context(), userID, k)
	if err != nil {
		respondListError(w, err, models.EventsData{UserID: userID, Events: []int64{}})
		return
	}
	respondJSON(w, http.StatusOK, models.EventsData{UserID: userID, Events: events})
}

// KnownUsers handles GET /api/v1/events/users.
func (h *Handler) KnownUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.KnownUsers(r.Context())
	if err != nil {
		respondListError(w, err, models.UsersData{Users: []int64{}})
		return
	}
	respondJSON(w, http.StatusOK, models.UsersData{Users: users})
}

// Similar handles GET /api/v1/similar.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	itemID, err := getInt64Param(r, "item_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	k, err := getIntParam(r, "k", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	items, err := h.svc.SimilarItems(r.Context(), itemID, k)
	if err != nil {
		respondListError(w, err, models.SimilarData{ItemID: itemID, Items: []models.ScoredItem{}})
		return
	}

	out := make([]models.ScoredItem, len(items))
	for i, item := range items {
		out[i] = models.ScoredItem{ItemID: item.ItemID, Score: item.Score}
	}
	respondJSON(w, http.StatusOK, models.SimilarData{ItemID: itemID, Items: out})
}

// SimilarSample handles GET /api/v1/similar/sample.
func (h *Handler) SimilarSample(w http.ResponseWriter, r *http.Request) {
	id, found, err := h.svc.SampleProbeItem(r.Context())
	if err != nil {
		respondListError(w, err, models.SampleItemData{Found: false})
		return
	}
	respondJSON(w, http.StatusOK, models.SampleItemData{ItemID: id, Found: found})
}

// Recommendations handles GET /api/v1/recommendations (blended).
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	h.recommendationsWith(w, r, h.svc.BlendedRecommendations)
}

// OfflineRecommendations handles GET /api/v1/recommendations/offline.
func (h *Handler) OfflineRecommendations(w http.ResponseWriter, r *http.Request) {
	h.recommendationsWith(w, r, h.svc.OfflineRecommendations)
}

// OnlineRecommendations handles GET /api/v1/recommendations/online.
func (h *Handler) OnlineRecommendations(w http.ResponseWriter, r *http.Request) {
	h.recommendationsWith(w, r, h.svc.OnlineRecommendations)
}

func (h *Handler) recommendationsWith(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, userID int64, k int) ([]int64, error)) {
	userID, err := getInt64Param(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	k, err := getIntParam(r, "k", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	recs, err := fetch(r.Context(), userID, k)
	if err != nil {
		respondListError(w, err, models.RecommendationsData{UserID: userID, Recs: []int64{}})
		return
	}
	respondJSON(w, http.StatusOK, models.RecommendationsData{UserID: userID, Recs: recs})
}

// RecommendStats handles GET /api/v1/recommendations/stats.
func (h *Handler) RecommendStats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	respondJSON(w, http.StatusOK, models.StatsData{
		RequestPersonalCount: stats.PersonalServed,
		RequestDefaultCount:  stats.FallbackServed,
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthData{Status: "ok"})
}

// HealthReady handles GET /api/v1/health/ready. The server is ready only
// once every registered check passes, which requires all artifacts loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if check() {
			checks[name] = "ok"
		} else {
			checks[name] = "not ready"
			ready = false
		}
	}

	if !ready {
		respondEnvelope(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     models.HealthData{Status: "not ready", Checks: checks},
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    &models.APIError{Code: "NOT_READY", Message: "service not ready"},
		})
		return
	}
	respondJSON(w, http.StatusOK, models.HealthData{Status: "ready", Checks: checks})
}
