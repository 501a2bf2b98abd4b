// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package similarity

import (
	"sync/atomic"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
)

// Store owns the current index and supports atomic replacement, so a reload
// never exposes a half-built index to in-flight lookups.
type Store struct {
	index atomic.Pointer[Index]
}

// NewStore creates an empty store. Lookups before the first Swap return
// empty results and log a warning; this mirrors serving before load and is
// not an error for the caller.
func NewStore() *Store {
	return &Store{}
}

// Swap atomically replaces the current index.
func (s *Store) Swap(idx *Index) {
	s.index.Store(idx)
}

// Ready reports whether an index has been loaded.
func (s *Store) Ready() bool {
	return s.index.Load() != nil
}

// Lookup returns up to k related items for itemID, best first.
func (s *Store) Lookup(itemID int64, k int) []ScoredItem {
	idx := s.index.Load()
	if idx == nil {
		logging.Warn().Int64("item_id", itemID).Msg("similarity lookup before index load")
		metrics.SimilarityLookupsTotal.WithLabelValues("error").Inc()
		return []ScoredItem{}
	}

	out := idx.Lookup(itemID, k)
	if len(out) == 0 {
		metrics.SimilarityLookupsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.SimilarityLookupsTotal.WithLabelValues("hit").Inc()
	}
	return out
}

// SampleSourceItem returns a probe id with known edges, or false when the
// index is empty or not yet loaded.
func (s *Store) SampleSourceItem() (int64, bool) {
	idx := s.index.Load()
	if idx == nil {
		return 0, false
	}
	return idx.SampleSourceItem()
}
