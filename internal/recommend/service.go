// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/recserve/recserve/internal/catalog"
	"github.com/recserve/recserve/internal/config"
	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
	"github.com/recserve/recserve/internal/recerr"
	"github.com/recserve/recserve/internal/similarity"
)

// EventNotifier receives a notification after an event has been recorded.
// Implemented by the event bus; may be nil when no consumers are wired.
type EventNotifier interface {
	EventRecorded(userID, itemID int64)
}

// Service is the recommendation boundary. It validates arguments, applies
// the error taxonomy and composes the offline catalog, the online generator
// and the blender into the public operations.
type Service struct {
	cfg      config.RecommendConfig
	events   EventSource
	sim      SimilaritySource
	catalog  *catalog.Catalog
	online   *OnlineGenerator
	blender  *Blender
	notifier EventNotifier
}

func NewService(cfg config.RecommendConfig, ev EventSource, sim SimilaritySource, cat *catalog.Catalog, notifier EventNotifier) *Service {
	return &Service{
		cfg:      cfg,
		events:   ev,
		sim:      sim,
		catalog:  cat,
		online:   NewOnlineGenerator(sim, cfg.LookupTimeout),
		blender:  NewBlender(cfg.OnlineRun, cfg.OfflineRun),
		notifier: notifier,
	}
}

// clampK normalizes a requested result size: non-positive falls back to the
// configured default, oversized requests are capped.
func (s *Service) clampK(k int) int {
	if k <= 0 {
		return s.cfg.DefaultK
	}
	return min(k, s.cfg.MaxK)
}

// RecordEvent appends an interaction to the user's history and notifies the
// event bus on success.
func (s *Service) RecordEvent(ctx context.Context, userID, itemID int64) error {
	if err := s.events.RecordEvent(ctx, userID, itemID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.EventRecorded(userID, itemID)
	}
	return nil
}

// RecentEvents returns up to k of the user's most recent item ids.
func (s *Service) RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error) {
	return s.events.RecentEvents(ctx, userID, min(k, s.cfg.MaxK))
}

// KnownUsers lists the user ids currently holding event history.
func (s *Service) KnownUsers(ctx context.Context) ([]int64, error) {
	return s.events.KnownUsers(ctx)
}

// OfflineRecommendations serves the personalized-else-fallback list.
func (s *Service) OfflineRecommendations(ctx context.Context, userID int64, k int) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", recerr.ErrInvalidArgument, userID)
	}
	return s.catalog.OfflineCandidates(userID, s.clampK(k)), nil
}

// OnlineRecommendations derives candidates from the user's recent events.
// Dependency failures on the event source degrade to an empty list.
func (s *Service) OnlineRecommendations(ctx context.Context, userID int64, k int) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", recerr.ErrInvalidArgument, userID)
	}
	k = s.clampK(k)

	recent, err := s.events.RecentEvents(ctx, userID, s.cfg.EventsKLast)
	if err != nil {
		if errors.Is(err, recerr.ErrInvalidArgument) {
			return nil, err
		}
		logging.Warn().Err(err).Int64("user_id", userID).
			Msg("event history unavailable, online recommendations degrade to empty")
		return []int64{}, nil
	}
	return s.online.Candidates(ctx, recent, k), nil
}

// BlendedRecommendations runs the offline and online paths in parallel and
// interleaves the results. A failed or timed-out branch contributes an empty
// list; the request itself only fails on invalid arguments.
func (s *Service) BlendedRecommendations(ctx context.Context, userID int64, k int) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", recerr.ErrInvalidArgument, userID)
	}
	k = s.clampK(k)
	metrics.BlendRequestsTotal.Inc()

	rctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		online  []int64
		offline []int64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		online, err = s.OnlineRecommendations(rctx, userID, k)
		if err != nil {
			logging.Warn().Err(err).Int64("user_id", userID).Msg("online branch degraded")
			online = nil
		}
	}()
	go func() {
		defer wg.Done()
		offline = s.catalog.OfflineCandidates(userID, k)
	}()
	wg.Wait()

	return s.blender.Blend(online, offline, k), nil
}

// SimilarItems returns the top-k neighbors of an item with their scores.
// Unknown items yield an empty list.
func (s *Service) SimilarItems(ctx context.Context, itemID int64, k int) ([]similarity.ScoredItem, error) {
	if itemID <= 0 {
		return nil, fmt.Errorf("%w: item id must be positive, got %d", recerr.ErrInvalidArgument, itemID)
	}
	ids, scores, err := s.sim.SimilarItems(ctx, itemID, s.clampK(k))
	if err != nil {
		return nil, err
	}
	n := min(len(ids), len(scores))
	out := make([]similarity.ScoredItem, n)
	for i := 0; i < n; i++ {
		out[i] = similarity.ScoredItem{ItemID: ids[i], Score: scores[i]}
	}
	return out, nil
}

// SampleProbeItem returns one known similarity source item for smoke checks.
func (s *Service) SampleProbeItem(ctx context.Context) (int64, bool, error) {
	return s.sim.SampleSourceItem(ctx)
}

// Stats reports the offline serve counters.
func (s *Service) Stats() catalog.Stats {
	return s.catalog.Stats()
}
