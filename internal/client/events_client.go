// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/recserve/recserve/internal/models"
)

// EventsClient talks to a remote event history service. It satisfies
// recommend.EventSource.
type EventsClient struct {
	c *httpClient
}

func NewEventsClient(baseURL string, timeout time.Duration) *EventsClient {
	return &EventsClient{c: newHTTPClient("events", baseURL, timeout)}
}

func (e *EventsClient) RecordEvent(ctx context.Context, userID, itemID int64) error {
	req := models.EventRequest{UserID: userID, ItemID: itemID}
	return e.c.postJSON(ctx, "/api/v1/events", req, nil)
}

func (e *EventsClient) RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error) {
	query := url.Values{}
	query.Set("user_id", strconv.FormatInt(userID, 10))
	query.Set("k", strconv.Itoa(k))

	var data models.EventsData
	if err := e.c.getJSON(ctx, "/api/v1/events/recent", query, &data); err != nil {
		return nil, err
	}
	if data.Events == nil {
		return []int64{}, nil
	}
	return data.Events, nil
}

func (e *EventsClient) KnownUsers(ctx context.Context) ([]int64, error) {
	var data models.UsersData
	if err := e.c.getJSON(ctx, "/api/v1/events/users", nil, &data); err != nil {
		return nil, err
	}
	if data.Users == nil {
		return []int64{}, nil
	}
	return data.Users, nil
}
