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

// SimilarityClient talks to a remote similarity service. It satisfies
// recommend.SimilaritySource.
type SimilarityClient struct {
	c *httpClient
}

func NewSimilarityClient(baseURL string, timeout time.Duration) *SimilarityClient {
	return &SimilarityClient{c: newHTTPClient("similarity", baseURL, timeout)}
}

func (s *SimilarityClient) SimilarItems(ctx context.Context, itemID int64, k int) ([]int64, []float32, error) {
	query := url.Values{}
	query.Set("item_id", strconv.FormatInt(itemID, 10))
	query.Set("k", strconv.Itoa(k))

	var data models.SimilarData
	if err := s.c.getJSON(ctx, "/api/v1/similar", query, &data); err != nil {
		return nil, nil, err
	}

	ids := make([]int64, len(data.Items))
	scores := make([]float32, len(data.Items))
	for i, item := range data.Items {
		ids[i] = item.ItemID
		scores[i] = item.Score
	}
	return ids, scores, nil
}

func (s *SimilarityClient) SampleSourceItem(ctx context.Context) (int64, bool, error) {
	var data models.SampleItemData
	if err := s.c.getJSON(ctx, "/api/v1/similar/sample", nil, &data); err != nil {
		return 0, false, err
	}
	return data.ItemID, data.Found, nil
}
