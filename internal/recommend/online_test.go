// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeSimilaritySource serves canned per-item neighbor lists and can fail
// selected lookups.
type fakeSimilaritySource struct {
	neighbors map[int64][]struct {
		id    int64
		score float32
	}
	failFor   map[int64]error
	mismatch  map[int64]bool
	sampleID  int64
	sampleOK  bool
	sampleErr error
}

func (f *fakeSimilaritySource) SimilarItems(_ context.Context, itemID int64, k int) ([]int64, []float32, error) {
	if err, ok := f.failFor[itemID]; ok {
		return nil, nil, err
	}
	var ids []int64
	var scores []float32
	for _, n := range f.neighbors[itemID] {
		ids = append(ids, n.id)
		scores = append(scores, n.score)
		if len(ids) == k {
			break
		}
	}
	if f.mismatch[itemID] {
		scores = scores[:len(scores)-1]
	}
	return ids, scores, nil
}

func (f *fakeSimilaritySource) SampleSourceItem(_ context.Context) (int64, bool, error) {
	return f.sampleID, f.sampleOK, f.sampleErr
}

func neighbor(id int64, score float32) struct {
	id    int64
	score float32
} {
	return struct {
		id    int64
		score float32
	}{id: id, score: score}
}

func TestCandidatesHighestScoreWinsAcrossEvents(t *testing.T) {
	// Item 10 is surfaced both by event 2 (score 0.8) and by the older
	// event 1 (score 0.9). The 0.9 occurrence must rank first, and item 20
	// follows once 10 is deduplicated.
	src := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			1: {neighbor(10, 0.9), neighbor(20, 0.5)},
			2: {neighbor(10, 0.8)},
		},
	}
	g := NewOnlineGenerator(src, time.Second)

	got := g.Candidates(context.Background(), []int64{2, 1}, 10)
	want := []int64{10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesEqualScoresFavorRecentEvent(t *testing.T) {
	src := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			1: {neighbor(30, 0.5)},
			2: {neighbor(40, 0.5)},
		},
	}
	g := NewOnlineGenerator(src, time.Second)

	// Events are most recent first, so item 40 (from event 2) leads.
	got := g.Candidates(context.Background(), []int64{2, 1}, 10)
	want := []int64{40, 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesFailedLookupSkipped(t *testing.T) {
	src := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			1: {neighbor(10, 0.9)},
		},
		failFor: map[int64]error{2: errors.New("lookup blew up")},
	}
	g := NewOnlineGenerator(src, time.Second)

	got := g.Candidates(context.Background(), []int64{2, 1}, 10)
	want := []int64{10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesMismatchedArraysTruncated(t *testing.T) {
	src := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			1: {neighbor(10, 0.9), neighbor(20, 0.5)},
		},
		mismatch: map[int64]bool{1: true},
	}
	g := NewOnlineGenerator(src, time.Second)

	// Only the common prefix of ids and scores survives.
	got := g.Candidates(context.Background(), []int64{1}, 10)
	want := []int64{10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesTruncatesToK(t *testing.T) {
	src := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			1: {neighbor(10, 0.9), neighbor(20, 0.8), neighbor(30, 0.7)},
		},
	}
	g := NewOnlineGenerator(src, time.Second)

	got := g.Candidates(context.Background(), []int64{1}, 2)
	want := []int64{10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesEmptyInputs(t *testing.T) {
	g := NewOnlineGenerator(&fakeSimilaritySource{}, time.Second)

	if got := g.Candidates(context.Background(), nil, 5); len(got) != 0 {
		t.Errorf("Candidates with no events = %v, want empty", got)
	}
	if got := g.Candidates(context.Background(), []int64{1}, 0); len(got) != 0 {
		t.Errorf("Candidates with k=0 = %v, want empty", got)
	}
	if got := g.Candidates(context.Background(), []int64{99}, 5); len(got) != 0 {
		t.Errorf("Candidates with empty pool = %v, want empty", got)
	}
}
