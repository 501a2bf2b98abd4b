// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package models holds the wire types shared by the HTTP handlers and the
// remote dependency clients. Keeping them in one place guarantees both sides
// of a split deployment agree on the JSON shapes.
package models

import "time"

// APIResponse is the uniform envelope for every JSON endpoint.
//
// Example success response:
//
//	{
//	  "status": "success",
//	  "data": {"recs": [101, 57, 3]},
//	  "metadata": {"timestamp": "2026-01-15T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "user_id must be positive"},
//	  "metadata": {"timestamp": "2026-01-15T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error payload.
//
// Common codes: VALIDATION_ERROR, CONFIGURATION_ERROR, DEPENDENCY_ERROR,
// RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// EventRequest is the body of POST /api/v1/events.
type EventRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

// EventAccepted confirms a recorded event.
type EventAccepted struct {
	UserID int64 `json:"user_id"`
	ItemID int64 `json:"item_id"`
}

// EventsData is the payload of GET /api/v1/events/recent.
type EventsData struct {
	UserID int64   `json:"user_id"`
	Events []int64 `json:"events"`
}

// UsersData is the payload of GET /api/v1/events/users.
type UsersData struct {
	Users []int64 `json:"users"`
}

// ScoredItem pairs an item with its similarity score.
type ScoredItem struct {
	ItemID int64   `json:"item_id"`
	Score  float32 `json:"score"`
}

// SimilarData is the payload of GET /api/v1/similar.
type SimilarData struct {
	ItemID int64        `json:"item_id"`
	Items  []ScoredItem `json:"items"`
}

// SampleItemData is the payload of GET /api/v1/similar/sample.
type SampleItemData struct {
	ItemID int64 `json:"item_id,omitempty"`
	Found  bool  `json:"found"`
}

// RecommendationsData is the payload of the recommendation endpoints.
type RecommendationsData struct {
	UserID int64   `json:"user_id"`
	Recs   []int64 `json:"recs"`
}

// StatsData is the payload of GET /api/v1/recommendations/stats.
type StatsData struct {
	RequestPersonalCount int64 `json:"request_personal_count"`
	RequestDefaultCount  int64 `json:"request_default_count"`
}

// HealthData is the payload of the health endpoints.
type HealthData struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
