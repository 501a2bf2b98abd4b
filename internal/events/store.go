// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package events implements the bounded, per-user interaction history.
//
// History is volatile: it lives in process memory, survives nothing, and is
// best-effort. Each user keeps at most Capacity item ids in
// most-recent-first order; the set of tracked users is itself bounded by an
// LRU so a long-running process cannot grow without limit.
package events

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/recserve/recserve/internal/metrics"
	"github.com/recserve/recserve/internal/recerr"
)

// DefaultCapacity is the per-user buffer size when none is configured.
const DefaultCapacity = 10

// userHistory is one user's buffer. Mutations lock only this user's history,
// so concurrent updates for different users never contend.
type userHistory struct {
	mu    sync.Mutex
	items []int64
}

// Store is the event history owner. Safe for concurrent use.
type Store struct {
	capacity int
	users    *lru.Cache[int64, *userHistory]

	// addMu serializes the get-or-create path so two concurrent first
	// events for the same user land in one history.
	addMu sync.Mutex
}

// Config holds event store settings.
type Config struct {
	// Capacity is the per-user buffer size. Default: DefaultCapacity.
	Capacity int

	// MaxUsers bounds tracked users; least-recently-active users are
	// evicted beyond it.
	MaxUsers int
}

// NewStore creates an event history store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MaxUsers <= 0 {
		return nil, fmt.Errorf("events store: max users must be positive, got %d", cfg.MaxUsers)
	}

	users, err := lru.NewWithEvict[int64, *userHistory](cfg.MaxUsers, func(int64, *userHistory) {
		metrics.EventStoreEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("events store: %w", err)
	}

	return &Store{capacity: cfg.Capacity, users: users}, nil
}

// Capacity returns the per-user buffer size.
func (s *Store) Capacity() int { return s.capacity }

// Record prepends item to user's history, evicting the oldest entry when the
// buffer is full. Repeated items are not deduplicated: a repeated interaction
// legitimately re-surfaces as most recent.
func (s *Store) Record(_ context.Context, userID, itemID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive, got %d", recerr.ErrInvalidArgument, userID)
	}
	if itemID <= 0 {
		return fmt.Errorf("%w: item id must be positive, got %d", recerr.ErrInvalidArgument, itemID)
	}

	h := s.historyFor(userID)

	h.mu.Lock()
	if len(h.items) < s.capacity {
		h.items = append(h.items, 0)
	}
	copy(h.items[1:], h.items)
	h.items[0] = itemID
	h.mu.Unlock()

	metrics.EventStoreUsers.Set(float64(s.users.Len()))
	return nil
}

// historyFor returns the user's history, creating it on first event.
func (s *Store) historyFor(userID int64) *userHistory {
	if h, ok := s.users.Get(userID); ok {
		return h
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()
	if h, ok := s.users.Get(userID); ok {
		return h
	}
	h := &userHistory{}
	s.users.Add(userID, h)
	return h
}

// Recent returns up to k item ids for the user, most recent first. An
// unknown user or non-positive k yields an empty slice, not an error.
func (s *Store) Recent(_ context.Context, userID int64, k int) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", recerr.ErrInvalidArgument, userID)
	}
	if k <= 0 {
		return []int64{}, nil
	}

	h, ok := s.users.Get(userID)
	if !ok {
		return []int64{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := min(k, len(h.items))
	out := make([]int64, n)
	copy(out, h.items[:n])
	return out, nil
}

// KnownUsers returns all users with at least one recorded event, in no
// guaranteed order.
func (s *Store) KnownUsers() []int64 {
	return s.users.Keys()
}
