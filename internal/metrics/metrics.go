// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package metrics provides Prometheus instrumentation for Recserve:
// API latency and throughput, offline serve counters (personalized vs
// fallback), online candidate generation, event store occupancy, and
// circuit breaker state for remote dependencies.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Offline recommendation metrics
	OfflineServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_offline_served_total",
			Help: "Offline recommendation lists served, by source list",
		},
		[]string{"source"}, // "personalized", "fallback"
	)

	// Online recommendation metrics
	SimilarityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_lookups_total",
			Help: "Similarity index lookups, by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "error"
	)

	OnlineCandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "online_candidate_pool_size",
			Help:    "Combined candidate pool size before deduplication",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		},
	)

	BlendRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blend_requests_total",
			Help: "Total blended recommendation requests",
		},
	)

	// Event store metrics
	EventsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_recorded_total",
			Help: "Total interaction events recorded",
		},
	)

	EventStoreUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_store_users",
			Help: "Current number of users with recorded events",
		},
	)

	EventStoreEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_store_user_evictions_total",
			Help: "Users evicted from the event store by the LRU bound",
		},
	)

	// Artifact metrics
	ArtifactRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "artifact_rows",
			Help: "Row count of the last loaded artifact",
		},
		[]string{"artifact"}, // "similarity", "personal", "popular"
	)

	ArtifactLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_load_duration_seconds",
			Help:    "Artifact load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"artifact"},
	)

	ArtifactReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_reloads_total",
			Help: "Artifact reload attempts, by result",
		},
		[]string{"result"}, // "success", "error", "throttled"
	)

	// Circuit breaker metrics for remote dependency clients
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"dependency"},
	)

	DependencyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dependency_requests_total",
			Help: "Requests to remote dependencies, by outcome",
		},
		[]string{"dependency", "outcome"}, // "success", "failure", "rejected"
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
