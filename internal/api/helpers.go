// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package api provides HTTP routing and handlers for the recommendation
// service using the Chi router.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// sanitizeLogValue removes control characters from strings so request data
// cannot forge or corrupt log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends an enveloped JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	respondEnvelope(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError sends an enveloped error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondEnvelope(w, status, &models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

func respondEnvelope(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	payload, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// validateRequest runs struct validation and converts the first failure to
// an API error.
func validateRequest(v interface{}) *models.APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		field := verrs[0]
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("field %s failed on %s", field.Field(), field.Tag()),
			Details: map[string]interface{}{"field": field.Field(), "constraint": field.Tag()},
		}
	}
	return &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
}

// getInt64Param extracts a required int64 query parameter.
func getInt64Param(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %s", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", name)
	}
	return v, nil
}

// getIntParam extracts an optional integer query parameter with a default.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", name)
	}
	return v, nil
}
