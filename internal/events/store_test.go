// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package events

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/recserve/recserve/internal/recerr"
)

func newTestStore(t *testing.T, capacity, maxUsers int) *Store {
	t.Helper()
	s, err := NewStore(Config{Capacity: capacity, MaxUsers: maxUsers})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRecordAndRecentOrder(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()

	for _, item := range []int64{1, 2, 3} {
		if err := s.Record(ctx, 7, item); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 7, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []int64{3, 2, 1}
	if !slices.Equal(got, want) {
		t.Errorf("Recent = %v, want %v (most recent first)", got, want)
	}
}

func TestCapacityEviction(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()

	// 12 distinct items into a capacity-10 buffer leaves exactly the most
	// recent 10.
	for item := int64(1); item <= 12; item++ {
		if err := s.Record(ctx, 1, item); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(ctx, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for i, item := range got {
		if want := int64(12 - i); item != want {
			t.Errorf("Recent[%d] = %d, want %d", i, item, want)
		}
	}
}

func TestRepeatedItemsNotDeduplicated(t *testing.T) {
	s := newTestStore(t, 5, 100)
	ctx := context.Background()

	for _, item := range []int64{4, 5, 4} {
		if err := s.Record(ctx, 2, item); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.Recent(ctx, 2, 5)
	want := []int64{4, 5, 4}
	if !slices.Equal(got, want) {
		t.Errorf("Recent = %v, want %v", got, want)
	}
}

func TestRecentEdgeCases(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()
	if err := s.Record(ctx, 1, 100); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		userID  int64
		k       int
		want    []int64
		wantErr error
	}{
		{"zero k", 1, 0, []int64{}, nil},
		{"negative k", 1, -5, []int64{}, nil},
		{"unknown user", 99, 10, []int64{}, nil},
		{"unknown user zero k", 99, 0, []int64{}, nil},
		{"k larger than stored", 1, 50, []int64{100}, nil},
		{"non-positive user", 0, 10, nil, recerr.ErrInvalidArgument},
		{"negative user", -3, 10, nil, recerr.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Recent(ctx, tt.userID, tt.k)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && !slices.Equal(got, tt.want) {
				t.Errorf("Recent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordValidation(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int64
		itemID int64
	}{
		{"zero user", 0, 5},
		{"negative user", -1, 5},
		{"zero item", 5, 0},
		{"negative item", 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Record(ctx, tt.userID, tt.itemID); !errors.Is(err, recerr.ErrInvalidArgument) {
				t.Errorf("Record(%d, %d) = %v, want ErrInvalidArgument", tt.userID, tt.itemID, err)
			}
		})
	}
}

func TestKnownUsers(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()

	for _, user := range []int64{3, 1, 2} {
		if err := s.Record(ctx, user, 1); err != nil {
			t.Fatal(err)
		}
	}

	got := s.KnownUsers()
	slices.Sort(got)
	if !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("KnownUsers = %v, want [1 2 3]", got)
	}
}

func TestUserLRUBound(t *testing.T) {
	s := newTestStore(t, 10, 2)
	ctx := context.Background()

	for _, user := range []int64{1, 2, 3} {
		if err := s.Record(ctx, user, 1); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(s.KnownUsers()); got != 2 {
		t.Errorf("tracked users = %d, want 2 (LRU bound)", got)
	}
	// The least recently active user is gone.
	recent, _ := s.Recent(ctx, 1, 10)
	if len(recent) != 0 {
		t.Errorf("evicted user history = %v, want empty", recent)
	}
}

func TestConcurrentRecordSameUser(t *testing.T) {
	s := newTestStore(t, 10, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(item int64) {
			defer wg.Done()
			_ = s.Record(ctx, 1, item)
		}(int64(i + 1))
	}
	wg.Wait()

	got, err := s.Recent(ctx, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("len = %d, want capacity 10", len(got))
	}
	for _, item := range got {
		if item <= 0 || item > 50 {
			t.Errorf("unexpected item %d after concurrent records", item)
		}
	}
}
