// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package client provides HTTP implementations of the recommendation
// dependency interfaces for split deployments where the event history or
// the similarity index lives in a separate service. Every remote call is
// wrapped in a circuit breaker so a dead dependency fails fast instead of
// stalling request handling.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
	"github.com/recserve/recserve/internal/models"
	"github.com/recserve/recserve/internal/recerr"
)

// envelope mirrors models.APIResponse with the data left raw so each caller
// can decode its own payload type.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error,omitempty"`
}

// httpClient is the shared transport under EventsClient and
// SimilarityClient: one base URL, one timeout, one circuit breaker.
type httpClient struct {
	name    string
	baseURL string
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker[json.RawMessage]
}

// newHTTPClient builds a transport for one named dependency.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
// Invalid-argument responses count as successes: they indicate a caller
// bug, not dependency health.
func newHTTPClient(name, baseURL string, timeout time.Duration) *httpClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Str("dependency", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recerr.ErrInvalidArgument)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("dependency", name).
				Str("from", stateToString(from)).Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &httpClient{
		name:    name,
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// do performs one request through the circuit breaker and returns the raw
// data payload of the response envelope.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, reqBody interface{}) (json.RawMessage, error) {
	data, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.roundTrip(ctx, method, path, query, reqBody)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.DependencyRequestsTotal.WithLabelValues(c.name, "rejected").Inc()
			logging.Warn().Str("dependency", c.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %s circuit open: %v", recerr.ErrDependencyUnavailable, c.name, err)
		}
		if errors.Is(err, recerr.ErrInvalidArgument) {
			return nil, err
		}
		metrics.DependencyRequestsTotal.WithLabelValues(c.name, "failure").Inc()
		return nil, err
	}
	metrics.DependencyRequestsTotal.WithLabelValues(c.name, "success").Inc()
	return data, nil
}

// roundTrip builds and executes one HTTP exchange and maps the response to
// the shared error taxonomy.
func (c *httpClient) roundTrip(ctx context.Context, method, path string, query url.Values, reqBody interface{}) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %v", recerr.ErrDependencyUnavailable, c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s response read failed: %v", recerr.ErrDependencyUnavailable, c.name, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env envelope
	if decodeErr := json.Unmarshal(raw, &env); decodeErr != nil && ok {
		return nil, fmt.Errorf("%w: %s sent malformed response: %v", recerr.ErrDependencyUnavailable, c.name, decodeErr)
	}

	switch {
	case ok:
		return env.Data, nil
	case resp.StatusCode == http.StatusBadRequest:
		msg := "invalid request"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", recerr.ErrInvalidArgument, msg)
	default:
		return nil, fmt.Errorf("%w: %s returned status %d", recerr.ErrDependencyUnavailable, c.name, resp.StatusCode)
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s sent malformed payload: %v", recerr.ErrDependencyUnavailable, c.name, err)
	}
	return nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, reqBody, out interface{}) error {
	data, err := c.do(ctx, http.MethodPost, path, nil, reqBody)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s sent malformed payload: %v", recerr.ErrDependencyUnavailable, c.name, err)
	}
	return nil
}
