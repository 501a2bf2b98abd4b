// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package recommend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
)

// OnlineGenerator derives candidates from a user's recent events via
// item-to-item similarity lookups. Lookups run concurrently, each with its
// own timeout; a failed lookup is skipped, never fatal.
type OnlineGenerator struct {
	source        SimilaritySource
	lookupTimeout time.Duration
}

func NewOnlineGenerator(source SimilaritySource, lookupTimeout time.Duration) *OnlineGenerator {
	return &OnlineGenerator{source: source, lookupTimeout: lookupTimeout}
}

type scoredCandidate struct {
	item  int64
	score float32
}

// Candidates returns up to k item ids for the given recent events, most
// recent first. The per-event lookup results are pooled in event order and
// stable-sorted by score descending, so when several events surface the same
// item the highest-scoring occurrence wins, and equal scores favor the more
// recent event. Duplicates collapse to their first post-sort occurrence.
func (g *OnlineGenerator) Candidates(ctx context.Context, recentItems []int64, k int) []int64 {
	if len(recentItems) == 0 || k <= 0 {
		return []int64{}
	}

	perEvent := make([][]scoredCandidate, len(recentItems))
	var wg sync.WaitGroup
	for i, item := range recentItems {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lctx, cancel := context.WithTimeout(ctx, g.lookupTimeout)
			defer cancel()

			ids, scores, err := g.source.SimilarItems(lctx, item, k)
			if err != nil {
				logging.Debug().Err(err).Int64("item_id", item).
					Msg("similarity lookup skipped")
				return
			}
			n := min(len(ids), len(scores))
			if n < len(ids) || n < len(scores) {
				logging.Warn().Int64("item_id", item).
					Int("ids", len(ids)).Int("scores", len(scores)).
					Msg("mismatched similarity result truncated")
			}
			cands := make([]scoredCandidate, n)
			for j := 0; j < n; j++ {
				cands[j] = scoredCandidate{item: ids[j], score: scores[j]}
			}
			perEvent[i] = cands
		}()
	}
	wg.Wait()

	var pool []scoredCandidate
	for _, cands := range perEvent {
		pool = append(pool, cands...)
	}
	metrics.OnlineCandidatePoolSize.Observe(float64(len(pool)))
	if len(pool) == 0 {
		return []int64{}
	}

	sort.SliceStable(pool, func(a, b int) bool {
		return pool[a].score > pool[b].score
	})

	out := make([]int64, 0, min(k, len(pool)))
	seen := make(map[int64]struct{}, len(pool))
	for _, c := range pool {
		if _, dup := seen[c.item]; dup {
			continue
		}
		seen[c.item] = struct{}{}
		out = append(out, c.item)
		if len(out) == k {
			break
		}
	}
	return out
}
