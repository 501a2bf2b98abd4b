// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package recommend assembles recommendation lists from the event history,
// the similarity index, and the offline catalog. The event and similarity
// dependencies sit behind small interfaces so the service runs identically
// against in-process stores and remote services.
package recommend

import (
	"context"

	"github.com/recserve/recserve/internal/events"
	"github.com/recserve/recserve/internal/similarity"
)

// EventSource provides the per-user event history. Implemented in-process by
// events.Store and remotely by client.EventsClient.
type EventSource interface {
	RecordEvent(ctx context.Context, userID, itemID int64) error
	RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error)
	KnownUsers(ctx context.Context) ([]int64, error)
}

// SimilaritySource provides item-to-item similarity lookups. Results are
// parallel id/score slices; callers tolerate mismatched lengths by
// truncating to the common prefix.
type SimilaritySource interface {
	SimilarItems(ctx context.Context, itemID int64, k int) (ids []int64, scores []float32, err error)
	SampleSourceItem(ctx context.Context) (int64, bool, error)
}

// LocalEventSource adapts an in-process events.Store to EventSource.
type LocalEventSource struct {
	store *events.Store
}

func NewLocalEventSource(store *events.Store) *LocalEventSource {
	return &LocalEventSource{store: store}
}

func (s *LocalEventSource) RecordEvent(ctx context.Context, userID, itemID int64) error {
	return s.store.Record(ctx, userID, itemID)
}

func (s *LocalEventSource) RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error) {
	return s.store.Recent(ctx, userID, k)
}

func (s *LocalEventSource) KnownUsers(_ context.Context) ([]int64, error) {
	return s.store.KnownUsers(), nil
}

// LocalSimilaritySource adapts an in-process similarity.Store to
// SimilaritySource.
type LocalSimilaritySource struct {
	store *similarity.Store
}

func NewLocalSimilaritySource(store *similarity.Store) *LocalSimilaritySource {
	return &LocalSimilaritySource{store: store}
}

func (s *LocalSimilaritySource) SimilarItems(_ context.Context, itemID int64, k int) ([]int64, []float32, error) {
	scored := s.store.Lookup(itemID, k)
	ids := make([]int64, len(scored))
	scores := make([]float32, len(scored))
	for i, sc := range scored {
		ids[i] = sc.ItemID
		scores[i] = sc.Score
	}
	return ids, scores, nil
}

func (s *LocalSimilaritySource) SampleSourceItem(_ context.Context) (int64, bool, error) {
	id, ok := s.store.SampleSourceItem()
	return id, ok, nil
}
