// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package recommend

// Blender interleaves online and offline candidate lists with weighted
// round-robin runs, deduplicating as it goes. A run consumes its quota of
// source items whether or not they survive dedup, so a duplicate costs the
// list its turn without filling an output slot.
type Blender struct {
	onlineRun  int
	offlineRun int
}

// NewBlender creates a blender with the given run lengths. Non-positive run
// lengths are coerced to 1.
func NewBlender(onlineRun, offlineRun int) *Blender {
	return &Blender{
		onlineRun:  max(onlineRun, 1),
		offlineRun: max(offlineRun, 1),
	}
}

// Blend merges the two lists into at most k unique items. The online list
// leads each round; the first occurrence of an item wins. If one list is
// empty the result is the other list deduplicated and truncated.
func (b *Blender) Blend(online, offline []int64, k int) []int64 {
	if k <= 0 {
		return []int64{}
	}

	out := make([]int64, 0, k)
	seen := make(map[int64]struct{}, k)
	take := func(list []int64, pos *int, run int) {
		for n := 0; n < run && *pos < len(list) && len(out) < k; n++ {
			item := list[*pos]
			*pos++
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}

	var i, j int
	for len(out) < k && (i < len(online) || j < len(offline)) {
		take(online, &i, b.onlineRun)
		take(offline, &j, b.offlineRun)
	}
	return out
}
