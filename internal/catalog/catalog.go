// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package catalog holds the offline recommendation data: per-user
// personalized lists plus the mandatory global popularity fallback.
//
// Offline retrieval must never fail the caller. A user absent from the
// personalization table is an expected state served from the fallback list;
// an empty personalization artifact disables personalization entirely. Only
// an empty fallback artifact is fatal, at startup.
package catalog

import (
	"fmt"
	"sync/atomic"

	"github.com/recserve/recserve/internal/artifact"
	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
	"github.com/recserve/recserve/internal/recerr"
)

// snapshot is the immutable loaded state, replaced wholesale on reload.
type snapshot struct {
	personal map[int64][]int64
	fallback []int64
}

// Catalog serves offline candidate lists. Safe for concurrent use; reads
// see a consistent snapshot across reloads.
type Catalog struct {
	state atomic.Pointer[snapshot]

	personalServed atomic.Int64
	fallbackServed atomic.Int64
}

// New creates an empty catalog. Load the fallback (and optionally the
// personal table) before serving.
func New() *Catalog {
	c := &Catalog{}
	c.state.Store(&snapshot{})
	return c
}

// Load replaces the catalog contents in one atomic swap. The personal table
// may be nil or empty (personalization disabled); the popular table must be
// non-empty or the load fails with a configuration error.
func (c *Catalog) Load(personal *artifact.PersonalTable, popular *artifact.PopularTable) error {
	if popular == nil || popular.Len() == 0 {
		return fmt.Errorf("%w: popularity fallback artifact is empty", recerr.ErrConfiguration)
	}

	next := &snapshot{
		fallback: append([]int64(nil), popular.Item...),
	}

	if personal == nil || personal.Len() == 0 {
		logging.Warn().Msg("personal recommendations empty: all users fall back to the popularity list")
	} else {
		next.personal = make(map[int64][]int64)
		for i := range personal.User {
			u := personal.User[i]
			next.personal[u] = append(next.personal[u], personal.Item[i])
		}
		logging.Info().Int("users", len(next.personal)).Int("rows", personal.Len()).
			Msg("personal recommendations loaded")
	}

	c.state.Store(next)
	return nil
}

// PersonalizationEnabled reports whether any personalized lists are loaded.
func (c *Catalog) PersonalizationEnabled() bool {
	return c.state.Load().personal != nil
}

// Ready reports whether the mandatory fallback list is loaded.
func (c *Catalog) Ready() bool {
	return len(c.state.Load().fallback) > 0
}

// OfflineCandidates returns the first k items of the user's personalized
// list, or of the global fallback when the user has none. It never returns
// an error: with nothing loaded the result is empty.
func (c *Catalog) OfflineCandidates(userID int64, k int) []int64 {
	if k <= 0 {
		return []int64{}
	}
	st := c.state.Load()

	if items, ok := st.personal[userID]; ok {
		c.personalServed.Add(1)
		metrics.OfflineServedTotal.WithLabelValues("personalized").Inc()
		return firstK(items, k)
	}

	if len(st.fallback) == 0 {
		return []int64{}
	}
	c.fallbackServed.Add(1)
	metrics.OfflineServedTotal.WithLabelValues("fallback").Inc()
	return firstK(st.fallback, k)
}

func firstK(items []int64, k int) []int64 {
	n := min(k, len(items))
	out := make([]int64, n)
	copy(out, items[:n])
	return out
}

// Stats holds the serve counters.
type Stats struct {
	PersonalServed int64 `json:"request_personal_count"`
	FallbackServed int64 `json:"request_default_count"`
}

// Stats returns the current serve counters. Read-only, non-destructive.
func (c *Catalog) Stats() Stats {
	return Stats{
		PersonalServed: c.personalServed.Load(),
		FallbackServed: c.fallbackServed.Load(),
	}
}

// LogStats writes the serve counters to the log, typically at shutdown.
func (c *Catalog) LogStats() {
	s := c.Stats()
	logging.Info().
		Int64("request_personal_count", s.PersonalServed).
		Int64("request_default_count", s.FallbackServed).
		Msg("offline recommendation stats")
}
