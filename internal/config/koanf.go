// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recserve/config.yaml",
	"/etc/recserve/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values into slices for
// known slice fields. Env vars arrive as strings, the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings translates environment variable names to koanf config paths.
// The EVENTS_K_LAST / ONLINE_WEIGHT / OFFLINE_WEIGHT / HTTP_TIMEOUT_SEC names
// are kept for compatibility with existing deployments.
var envMappings = map[string]string{
	"host":             "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"similar_artifact":  "artifacts.similarity",
	"personal_artifact": "artifacts.personal",
	"popular_artifact":  "artifacts.popular",

	"max_events_per_user": "events.capacity",
	"max_event_users":     "events.max_users",

	"events_k_last":   "recommend.events_k_last",
	"online_weight":   "recommend.online_run",
	"offline_weight":  "recommend.offline_run",
	"default_k":       "recommend.default_k",
	"max_k":           "recommend.max_k",
	"lookup_timeout":  "recommend.lookup_timeout",
	"request_timeout": "recommend.request_timeout",

	"events_mode":      "deps.events_mode",
	"events_url":       "deps.events_url",
	"similarity_mode":  "deps.similarity_mode",
	"similarity_url":   "deps.similarity_url",
	"http_timeout_sec": "deps.timeout",

	"rate_limit_requests": "api.rate_limit_requests",
	"rate_limit_window":   "api.rate_limit_window",
	"disable_rate_limit":  "api.rate_limit_disabled",
	"cors_origins":        "api.cors_origins",

	"reload_enabled":      "reload.enabled",
	"reload_min_interval": "reload.min_interval",
}

// envTransformFunc maps environment variable names to config paths. Unknown
// variables map to "" and are ignored, so unrelated process environment does
// not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
