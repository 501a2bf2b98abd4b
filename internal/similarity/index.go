// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package similarity implements the read-only item-to-item index. It is
// built once from the similarity artifact and grouped by source item with
// per-source edges pre-sorted by score descending, so a lookup is a map hit
// plus a prefix slice.
package similarity

import (
	"fmt"
	"sort"

	"github.com/recserve/recserve/internal/artifact"
)

// sampleLimit bounds the retained source-item sample used by diagnostics.
const sampleLimit = 1000

// ScoredItem is one related item with its similarity score.
type ScoredItem struct {
	ItemID int64   `json:"item_id"`
	Score  float32 `json:"score"`
}

// Index is an immutable item-to-item lookup structure.
type Index struct {
	groups map[int64][]ScoredItem
	sample []int64
	edges  int
}

// Build constructs an index from the loaded similarity table. Rows are
// sorted by (source ascending, score descending) and grouped by source, so
// taking the first k of a group yields the top-k most relevant items.
func Build(table *artifact.SimilarityTable) (*Index, error) {
	if table == nil {
		return nil, fmt.Errorf("similarity: nil table")
	}
	n := table.Len()
	if len(table.Related) != n || len(table.Score) != n {
		return nil, fmt.Errorf("similarity: ragged table: %d/%d/%d rows",
			len(table.Source), len(table.Related), len(table.Score))
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if table.Source[i] != table.Source[j] {
			return table.Source[i] < table.Source[j]
		}
		return table.Score[i] > table.Score[j]
	})

	idx := &Index{
		groups: make(map[int64][]ScoredItem),
		edges:  n,
	}
	for _, i := range order {
		src := table.Source[i]
		if _, seen := idx.groups[src]; !seen && len(idx.sample) < sampleLimit {
			idx.sample = append(idx.sample, src)
		}
		idx.groups[src] = append(idx.groups[src], ScoredItem{
			ItemID: table.Related[i],
			Score:  table.Score[i],
		})
	}

	return idx, nil
}

// Lookup returns up to k related items for itemID in descending score order.
// An absent item yields an empty slice: an expected outcome, not a failure.
func (idx *Index) Lookup(itemID int64, k int) []ScoredItem {
	if k <= 0 {
		return []ScoredItem{}
	}
	edges, ok := idx.groups[itemID]
	if !ok {
		return []ScoredItem{}
	}
	n := min(k, len(edges))
	out := make([]ScoredItem, n)
	copy(out, edges[:n])
	return out
}

// SampleSourceItem returns one item id known to have similarity edges, or
// false if the index is empty. Diagnostic tooling uses it to pick a
// guaranteed-valid probe id.
func (idx *Index) SampleSourceItem() (int64, bool) {
	if len(idx.sample) == 0 {
		return 0, false
	}
	return idx.sample[0], true
}

// SourceItems returns the number of distinct source items.
func (idx *Index) SourceItems() int { return len(idx.groups) }

// Edges returns the total edge count.
func (idx *Index) Edges() int { return idx.edges }
