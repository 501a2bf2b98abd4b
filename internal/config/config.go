// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package config loads and validates Recserve configuration via Koanf v2
// with layered sources: built-in defaults, optional YAML file, environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Recserve server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Events    EventsConfig    `koanf:"events"`
	Recommend RecommendConfig `koanf:"recommend"`
	Deps      DepsConfig      `koanf:"deps"`
	API       APIConfig       `koanf:"api"`
	Reload    ReloadConfig    `koanf:"reload"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ArtifactsConfig holds the locations of the three precomputed artifacts.
// Paths may be local parquet files or http(s)/s3 URLs (loaded through
// DuckDB's httpfs extension).
type ArtifactsConfig struct {
	// Similarity is the (item_id_1, item_id_2, score) edge table.
	Similarity string `koanf:"similarity" validate:"required"`

	// Personal is the (user_id, item_id) per-user recommendation table.
	// Optional: an empty or missing table disables personalization.
	Personal string `koanf:"personal"`

	// Popular is the single-column (item_id) global fallback ranking.
	// Mandatory: the server refuses to start without it.
	Popular string `koanf:"popular" validate:"required"`
}

// EventsConfig holds event history store settings.
type EventsConfig struct {
	// Capacity is the per-user event buffer size.
	Capacity int `koanf:"capacity" validate:"min=1"`

	// MaxUsers bounds the number of tracked users; least-recently-active
	// users are evicted beyond this. History is volatile and best-effort.
	MaxUsers int `koanf:"max_users" validate:"min=1"`
}

// RecommendConfig holds candidate generation and blending settings.
type RecommendConfig struct {
	// EventsKLast is how many most-recent events feed the online path.
	EventsKLast int `koanf:"events_k_last" validate:"min=1"`

	// OnlineRun and OfflineRun are the round-robin interleave run lengths.
	OnlineRun  int `koanf:"online_run" validate:"min=1"`
	OfflineRun int `koanf:"offline_run" validate:"min=1"`

	// DefaultK and MaxK bound the result size.
	DefaultK int `koanf:"default_k" validate:"min=1"`
	MaxK     int `koanf:"max_k" validate:"min=1"`

	// LookupTimeout bounds each per-event similarity lookup.
	LookupTimeout time.Duration `koanf:"lookup_timeout"`

	// RequestTimeout bounds a whole blended request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// DepsConfig selects local or remote dependency wiring. In "local" mode the
// serving process owns the stores; in "http" mode it calls a remote events
// or features service, mirroring a split-service deployment.
type DepsConfig struct {
	EventsMode     string        `koanf:"events_mode" validate:"oneof=local http"`
	EventsURL      string        `koanf:"events_url" validate:"required_if=EventsMode http,omitempty,url"`
	SimilarityMode string        `koanf:"similarity_mode" validate:"oneof=local http"`
	SimilarityURL  string        `koanf:"similarity_url" validate:"required_if=SimilarityMode http,omitempty,url"`
	Timeout        time.Duration `koanf:"timeout"`
}

// APIConfig holds transport-level settings.
type APIConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// ReloadConfig controls the admin artifact reload endpoint.
type ReloadConfig struct {
	Enabled bool `koanf:"enabled"`

	// MinInterval throttles reloads; requests inside the window get 429.
	MinInterval time.Duration `koanf:"min_interval"`
}

// defaultConfig returns a Config with all defaults applied. Defaults mirror
// the reference deployment: capacity 10 events per user, last 3 events for
// the online path, 1/1 interleave, k=100.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8030,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Artifacts: ArtifactsConfig{
			Similarity: "/data/recsys/similar.parquet",
			Personal:   "/data/recsys/recommendations.parquet",
			Popular:    "/data/recsys/top_popular.parquet",
		},
		Events: EventsConfig{
			Capacity: 10,
			MaxUsers: 100000,
		},
		Recommend: RecommendConfig{
			EventsKLast:    3,
			OnlineRun:      1,
			OfflineRun:     1,
			DefaultK:       100,
			MaxK:           1000,
			LookupTimeout:  2 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Deps: DepsConfig{
			EventsMode:     "local",
			SimilarityMode: "local",
			Timeout:        2 * time.Second,
		},
		API: APIConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
		},
		Reload: ReloadConfig{
			Enabled:     false,
			MinInterval: time.Minute,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for consistency. Field-level rules run
// through go-playground/validator; cross-field rules are checked here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Recommend.DefaultK > c.Recommend.MaxK {
		return fmt.Errorf("recommend.default_k (%d) exceeds recommend.max_k (%d)",
			c.Recommend.DefaultK, c.Recommend.MaxK)
	}
	if c.Recommend.LookupTimeout <= 0 {
		return fmt.Errorf("recommend.lookup_timeout must be positive")
	}
	if c.Recommend.RequestTimeout < c.Recommend.LookupTimeout {
		return fmt.Errorf("recommend.request_timeout (%s) below recommend.lookup_timeout (%s)",
			c.Recommend.RequestTimeout, c.Recommend.LookupTimeout)
	}

	return nil
}
