// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package artifact loads the precomputed tabular artifacts (similarity
// edges, personal recommendations, popularity ranking) from parquet files
// through DuckDB's read_parquet. Remote http(s)/s3 locations are supported
// via the httpfs extension.
//
// Artifacts are read once, in full, into typed column slices; everything
// downstream is plain in-memory Go data. Row order in the file is preserved,
// which matters for the popularity artifact (ordered by descending rank).
package artifact

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
)

// SimilarityTable holds (source item, related item, score) triples.
type SimilarityTable struct {
	Source  []int64
	Related []int64
	Score   []float32
}

// Len returns the row count.
func (t *SimilarityTable) Len() int { return len(t.Source) }

// PersonalTable holds (user, item) rows; multiple rows per user, in the
// artifact's rank order.
type PersonalTable struct {
	User []int64
	Item []int64
}

// Len returns the row count.
func (t *PersonalTable) Len() int { return len(t.User) }

// PopularTable holds the global item ranking, best first.
type PopularTable struct {
	Item []int64
}

// Len returns the row count.
func (t *PopularTable) Len() int { return len(t.Item) }

// Loader reads parquet artifacts through an embedded DuckDB instance.
type Loader struct {
	db *sql.DB
}

// NewLoader opens an in-memory DuckDB connection for artifact reads.
func NewLoader() (*Loader, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Loader{db: db}, nil
}

// Close releases the DuckDB connection.
func (l *Loader) Close() error {
	return l.db.Close()
}

// isRemote reports whether the location needs the httpfs extension.
func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") ||
		strings.HasPrefix(location, "https://") ||
		strings.HasPrefix(location, "s3://")
}

// ensureHTTPFS installs and loads the httpfs extension for remote reads.
func (l *Loader) ensureHTTPFS(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, "INSTALL httpfs;"); err != nil {
		// May already be installed; LOAD decides.
		logging.Debug().Err(err).Msg("httpfs install skipped")
	}
	if _, err := l.db.ExecContext(ctx, "LOAD httpfs;"); err != nil {
		return fmt.Errorf("load httpfs extension: %w", err)
	}
	return nil
}

// columns returns the column names of the parquet file at location.
func (l *Loader) columns(ctx context.Context, location string) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT column_name FROM (DESCRIBE SELECT * FROM read_parquet(?))", location)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", location, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// requireColumns validates that all required columns exist in the file.
func (l *Loader) requireColumns(ctx context.Context, location string, required ...string) error {
	cols, err := l.columns(ctx, location)
	if err != nil {
		return err
	}
	var missing []string
	for _, c := range required {
		if !cols[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("artifact %s missing columns: %s", location, strings.Join(missing, ", "))
	}
	return nil
}

func (l *Loader) prepare(ctx context.Context, location string, required ...string) error {
	if isRemote(location) {
		if err := l.ensureHTTPFS(ctx); err != nil {
			return err
		}
	}
	return l.requireColumns(ctx, location, required...)
}

// LoadSimilarity reads the (item_id_1, item_id_2, score) edge table.
// Identifiers are coerced to int64 and scores to float32 by the cast.
func (l *Loader) LoadSimilarity(ctx context.Context, location string) (*SimilarityTable, error) {
	start := time.Now()
	if err := l.prepare(ctx, location, "item_id_1", "item_id_2", "score"); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT CAST(item_id_1 AS BIGINT),
		       CAST(item_id_2 AS BIGINT),
		       CAST(score AS FLOAT)
		FROM read_parquet(?)`, location)
	if err != nil {
		return nil, fmt.Errorf("read similarity artifact: %w", err)
	}
	defer rows.Close()

	table := &SimilarityTable{}
	for rows.Next() {
		var src, rel int64
		var score float32
		if err := rows.Scan(&src, &rel, &score); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		table.Source = append(table.Source, src)
		table.Related = append(table.Related, rel)
		table.Score = append(table.Score, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metrics.ArtifactRows.WithLabelValues("similarity").Set(float64(table.Len()))
	metrics.ArtifactLoadDuration.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	logging.Info().Str("location", location).Int("rows", table.Len()).
		Dur("elapsed", time.Since(start)).Msg("similarity artifact loaded")
	return table, nil
}

// LoadPersonal reads the (user_id, item_id) personalization table.
func (l *Loader) LoadPersonal(ctx context.Context, location string) (*PersonalTable, error) {
	start := time.Now()
	if err := l.prepare(ctx, location, "user_id", "item_id"); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT CAST(user_id AS BIGINT), CAST(item_id AS BIGINT)
		FROM read_parquet(?)`, location)
	if err != nil {
		return nil, fmt.Errorf("read personal artifact: %w", err)
	}
	defer rows.Close()

	table := &PersonalTable{}
	for rows.Next() {
		var user, item int64
		if err := rows.Scan(&user, &item); err != nil {
			return nil, fmt.Errorf("scan personal row: %w", err)
		}
		table.User = append(table.User, user)
		table.Item = append(table.Item, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metrics.ArtifactRows.WithLabelValues("personal").Set(float64(table.Len()))
	metrics.ArtifactLoadDuration.WithLabelValues("personal").Observe(time.Since(start).Seconds())
	logging.Info().Str("location", location).Int("rows", table.Len()).
		Dur("elapsed", time.Since(start)).Msg("personal artifact loaded")
	return table, nil
}

// LoadPopular reads the single-column (item_id) fallback ranking. The file's
// row order is the ranking order.
func (l *Loader) LoadPopular(ctx context.Context, location string) (*PopularTable, error) {
	start := time.Now()
	if err := l.prepare(ctx, location, "item_id"); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		"SELECT CAST(item_id AS BIGINT) FROM read_parquet(?)", location)
	if err != nil {
		return nil, fmt.Errorf("read popular artifact: %w", err)
	}
	defer rows.Close()

	table := &PopularTable{}
	for rows.Next() {
		var item int64
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("scan popular row: %w", err)
		}
		table.Item = append(table.Item, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metrics.ArtifactRows.WithLabelValues("popular").Set(float64(table.Len()))
	metrics.ArtifactLoadDuration.WithLabelValues("popular").Observe(time.Since(start).Seconds())
	logging.Info().Str("location", location).Int("rows", table.Len()).
		Dur("elapsed", time.Since(start)).Msg("popular artifact loaded")
	return table, nil
}
