// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package main

import (
	"context"
	"fmt"

	"github.com/recserve/recserve/internal/artifact"
	"github.com/recserve/recserve/internal/catalog"
	"github.com/recserve/recserve/internal/config"
	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/similarity"
)

// loadArtifacts loads every locally-owned artifact and swaps the stores only
// after all of them validated, so a failed reload never leaves a half-updated
// serving state. The similarity artifact is skipped in http mode where
// lookups go to a remote service.
func loadArtifacts(ctx context.Context, loader *artifact.Loader, cfg *config.Config, sim *similarity.Store, cat *catalog.Catalog) error {
	var index *similarity.Index
	if cfg.Deps.SimilarityMode == "local" {
		table, err := loader.LoadSimilarity(ctx, cfg.Artifacts.Similarity)
		if err != nil {
			return fmt.Errorf("load similarity artifact: %w", err)
		}
		index, err = similarity.Build(table)
		if err != nil {
			return fmt.Errorf("build similarity index: %w", err)
		}
	}

	// Personal is optional: an unset location disables personalization and
	// every user gets the popularity fallback.
	var personal *artifact.PersonalTable
	if cfg.Artifacts.Personal != "" {
		var err error
		personal, err = loader.LoadPersonal(ctx, cfg.Artifacts.Personal)
		if err != nil {
			return fmt.Errorf("load personal artifact: %w", err)
		}
	} else {
		logging.Warn().Msg("no personal artifact configured: personalization disabled")
	}

	popular, err := loader.LoadPopular(ctx, cfg.Artifacts.Popular)
	if err != nil {
		return fmt.Errorf("load popularity artifact: %w", err)
	}

	if err := cat.Load(personal, popular); err != nil {
		return err
	}
	if index != nil {
		sim.Swap(index)
		logging.Info().
			Int("source_items", index.SourceItems()).
			Int("edges", index.Edges()).
			Msg("similarity index swapped in")
	}
	return nil
}

// artifactReloader re-runs the artifact load for the admin reload endpoint.
type artifactReloader struct {
	loader *artifact.Loader
	cfg    *config.Config
	sim    *similarity.Store
	cat    *catalog.Catalog
}

func (r *artifactReloader) Reload(ctx context.Context) error {
	return loadArtifacts(ctx, r.loader, r.cfg, r.sim, r.cat)
}
