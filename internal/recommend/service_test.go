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

	"github.com/recserve/recserve/internal/artifact"
	"github.com/recserve/recserve/internal/catalog"
	"github.com/recserve/recserve/internal/config"
	"github.com/recserve/recserve/internal/recerr"
	"github.com/recserve/recserve/internal/similarity"
)

type fakeEventSource struct {
	recent    map[int64][]int64
	recentErr error
	recordErr error
	recorded  [][2]int64
}

func (f *fakeEventSource) RecordEvent(_ context.Context, userID, itemID int64) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, [2]int64{userID, itemID})
	return nil
}

func (f *fakeEventSource) RecentEvents(_ context.Context, userID int64, k int) ([]int64, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	items := f.recent[userID]
	if k < len(items) {
		items = items[:k]
	}
	return items, nil
}

func (f *fakeEventSource) KnownUsers(_ context.Context) ([]int64, error) {
	users := make([]int64, 0, len(f.recent))
	for u := range f.recent {
		users = append(users, u)
	}
	return users, nil
}

type recordingNotifier struct {
	notified [][2]int64
}

func (n *recordingNotifier) EventRecorded(userID, itemID int64) {
	n.notified = append(n.notified, [2]int64{userID, itemID})
}

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{
		EventsKLast:    3,
		OnlineRun:      1,
		OfflineRun:     1,
		DefaultK:       100,
		MaxK:           1000,
		LookupTimeout:  time.Second,
		RequestTimeout: 2 * time.Second,
	}
}

func testServiceCatalog(t *testing.T, personal *artifact.PersonalTable, fallback []int64) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	if err := c.Load(personal, &artifact.PopularTable{Item: fallback}); err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	return c
}

func TestRecordEventNotifies(t *testing.T) {
	ev := &fakeEventSource{}
	notifier := &recordingNotifier{}
	svc := NewService(testRecommendConfig(), ev, &fakeSimilaritySource{},
		testServiceCatalog(t, nil, []int64{1}), notifier)

	if err := svc.RecordEvent(context.Background(), 7, 42); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	want := [][2]int64{{7, 42}}
	if !reflect.DeepEqual(ev.recorded, want) {
		t.Errorf("recorded = %v, want %v", ev.recorded, want)
	}
	if !reflect.DeepEqual(notifier.notified, want) {
		t.Errorf("notified = %v, want %v", notifier.notified, want)
	}
}

func TestRecordEventFailureSkipsNotification(t *testing.T) {
	ev := &fakeEventSource{recordErr: recerr.ErrInvalidArgument}
	notifier := &recordingNotifier{}
	svc := NewService(testRecommendConfig(), ev, &fakeSimilaritySource{},
		testServiceCatalog(t, nil, []int64{1}), notifier)

	if err := svc.RecordEvent(context.Background(), 0, 42); !errors.Is(err, recerr.ErrInvalidArgument) {
		t.Fatalf("RecordEvent err = %v, want ErrInvalidArgument", err)
	}
	if len(notifier.notified) != 0 {
		t.Errorf("notifier fired on failed record: %v", notifier.notified)
	}
}

func TestBlendedRecommendations(t *testing.T) {
	// User 7's last event is item 100, whose neighbors are 1, 2, 3 by
	// descending score. The personalized offline list is [2, 4, 5], so the
	// interleave must produce [1, 2, 4, 3] at k=4.
	ev := &fakeEventSource{recent: map[int64][]int64{7: {100}}}
	sim := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			100: {neighbor(1, 0.9), neighbor(2, 0.8), neighbor(3, 0.7)},
		},
	}
	cat := testServiceCatalog(t, &artifact.PersonalTable{
		User: []int64{7, 7, 7},
		Item: []int64{2, 4, 5},
	}, []int64{9})
	svc := NewService(testRecommendConfig(), ev, sim, cat, nil)

	got, err := svc.BlendedRecommendations(context.Background(), 7, 4)
	if err != nil {
		t.Fatalf("BlendedRecommendations: %v", err)
	}
	want := []int64{1, 2, 4, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BlendedRecommendations = %v, want %v", got, want)
	}
}

func TestBlendedRecommendationsDegradedOnlineBranch(t *testing.T) {
	ev := &fakeEventSource{recentErr: recerr.ErrDependencyUnavailable}
	cat := testServiceCatalog(t, nil, []int64{1, 2, 3})
	svc := NewService(testRecommendConfig(), ev, &fakeSimilaritySource{}, cat, nil)

	got, err := svc.BlendedRecommendations(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("BlendedRecommendations: %v", err)
	}
	want := []int64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BlendedRecommendations = %v, want %v (offline only)", got, want)
	}
}

func TestOnlineRecommendationsAbsorbsDependencyFailure(t *testing.T) {
	ev := &fakeEventSource{recentErr: recerr.ErrDependencyUnavailable}
	svc := NewService(testRecommendConfig(), ev, &fakeSimilaritySource{},
		testServiceCatalog(t, nil, []int64{1}), nil)

	got, err := svc.OnlineRecommendations(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("OnlineRecommendations: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("OnlineRecommendations = %v, want empty", got)
	}
}

func TestInvalidUserRejected(t *testing.T) {
	svc := NewService(testRecommendConfig(), &fakeEventSource{}, &fakeSimilaritySource{},
		testServiceCatalog(t, nil, []int64{1}), nil)
	ctx := context.Background()

	if _, err := svc.OfflineRecommendations(ctx, 0, 5); !errors.Is(err, recerr.ErrInvalidArgument) {
		t.Errorf("offline err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.OnlineRecommendations(ctx, -3, 5); !errors.Is(err, recerr.ErrInvalidArgument) {
		t.Errorf("online err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.BlendedRecommendations(ctx, 0, 5); !errors.Is(err, recerr.ErrInvalidArgument) {
		t.Errorf("blended err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.SimilarItems(ctx, 0, 5); !errors.Is(err, recerr.ErrInvalidArgument) {
		t.Errorf("similar err = %v, want ErrInvalidArgument", err)
	}
}

func TestOfflineRecommendationsClampsK(t *testing.T) {
	fallback := make([]int64, 50)
	for i := range fallback {
		fallback[i] = int64(i + 1)
	}
	cfg := testRecommendConfig()
	cfg.DefaultK = 5
	cfg.MaxK = 10
	svc := NewService(cfg, &fakeEventSource{}, &fakeSimilaritySource{},
		testServiceCatalog(t, nil, fallback), nil)
	ctx := context.Background()

	got, err := svc.OfflineRecommendations(ctx, 7, 0)
	if err != nil {
		t.Fatalf("OfflineRecommendations: %v", err)
	}
	if len(got) != cfg.DefaultK {
		t.Errorf("k=0 served %d items, want default %d", len(got), cfg.DefaultK)
	}

	got, err = svc.OfflineRecommendations(ctx, 7, 500)
	if err != nil {
		t.Fatalf("OfflineRecommendations: %v", err)
	}
	if len(got) != cfg.MaxK {
		t.Errorf("k=500 served %d items, want cap %d", len(got), cfg.MaxK)
	}
}

func TestSimilarItemsZipsScores(t *testing.T) {
	sim := &fakeSimilaritySource{
		neighbors: map[int64][]struct {
			id    int64
			score float32
		}{
			5: {neighbor(10, 0.9), neighbor(20, 0.5)},
		},
	}
	svc := NewService(testRecommendConfig(), &fakeEventSource{}, sim,
		testServiceCatalog(t, nil, []int64{1}), nil)

	got, err := svc.SimilarItems(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("SimilarItems: %v", err)
	}
	want := []similarity.ScoredItem{{ItemID: 10, Score: 0.9}, {ItemID: 20, Score: 0.5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SimilarItems = %v, want %v", got, want)
	}
}

func TestSampleProbeItem(t *testing.T) {
	sim := &fakeSimilaritySource{sampleID: 123, sampleOK: true}
	svc := NewService(testRecommendConfig(), &fakeEventSource{}, sim,
		testServiceCatalog(t, nil, []int64{1}), nil)

	id, ok, err := svc.SampleProbeItem(context.Background())
	if err != nil || !ok || id != 123 {
		t.Errorf("SampleProbeItem = (%d, %v, %v), want (123, true, nil)", id, ok, err)
	}
}
