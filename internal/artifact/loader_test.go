// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

// writeParquet materializes a parquet fixture through the loader's own
// DuckDB connection.
func writeParquet(t *testing.T, l *Loader, path, selectSQL string) {
	t.Helper()
	query := fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET)", selectSQL, path)
	if _, err := l.db.ExecContext(context.Background(), query); err != nil {
		t.Fatalf("write parquet fixture: %v", err)
	}
}

func TestLoadSimilarity(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	path := filepath.Join(t.TempDir(), "similar.parquet")
	writeParquet(t, l, path, `
		SELECT * FROM (VALUES
			(1, 10, 0.9),
			(1, 20, 0.5),
			(2, 10, 0.8)
		) AS t(item_id_1, item_id_2, score)`)

	table, err := l.LoadSimilarity(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadSimilarity: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if table.Source[0] != 1 || table.Related[0] != 10 || table.Score[0] != 0.9 {
		t.Errorf("row 0 = (%d, %d, %v)", table.Source[0], table.Related[0], table.Score[0])
	}
}

func TestLoadSimilarityMissingColumn(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	path := filepath.Join(t.TempDir(), "bad.parquet")
	writeParquet(t, l, path, `SELECT * FROM (VALUES (1, 10)) AS t(item_id_1, item_id_2)`)

	if _, err := l.LoadSimilarity(context.Background(), path); err == nil {
		t.Error("LoadSimilarity with missing score column: want error")
	}
}

func TestColumnsIntrospection(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	path := filepath.Join(t.TempDir(), "cols.parquet")
	writeParquet(t, l, path, `SELECT * FROM (VALUES (1, 10, 0.9)) AS t(item_id_1, item_id_2, score)`)

	cols, err := l.columns(context.Background(), path)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	for _, want := range []string{"item_id_1", "item_id_2", "score"} {
		if !cols[want] {
			t.Errorf("column %q not reported, got %v", want, cols)
		}
	}
}

func TestLoadPersonal(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	path := filepath.Join(t.TempDir(), "personal.parquet")
	writeParquet(t, l, path, `
		SELECT * FROM (VALUES
			(7, 100),
			(7, 200),
			(9, 300)
		) AS t(user_id, item_id)`)

	table, err := l.LoadPersonal(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPersonal: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if table.User[1] != 7 || table.Item[1] != 200 {
		t.Errorf("row 1 = (%d, %d), want (7, 200)", table.User[1], table.Item[1])
	}
}

func TestLoadPopularPreservesOrder(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	path := filepath.Join(t.TempDir(), "popular.parquet")
	writeParquet(t, l, path, `
		SELECT * FROM (VALUES (30), (10), (20)) AS t(item_id)`)

	table, err := l.LoadPopular(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPopular: %v", err)
	}
	want := []int64{30, 10, 20}
	for i, id := range want {
		if table.Item[i] != id {
			t.Errorf("Item[%d] = %d, want %d (file order must be preserved)", i, table.Item[i], id)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if _, err := l.LoadPopular(context.Background(), filepath.Join(t.TempDir(), "absent.parquet")); err == nil {
		t.Error("LoadPopular on missing file: want error")
	}
}
