// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"

	"github.com/tomtom215/beatradar/internal/models"
)

// ScoreSource is the remote scoring service as the engine sees it.
// Implemented by osuapi.Client in production and by fakes in tests; the
// implementation owns retries, rate limiting and error classification
// (see the osuapi error kinds), the engine only sequences calls.
type ScoreSource interface {
	// FetchTopPlays returns the user's best scores for a mode. onPage,
	// when non-nil, is called after each fetched page with the running
	// total so the caller can report progress.
	FetchTopPlays(ctx context.Context, userID string, mode models.GameMode, onPage func(page, total int)) ([]models.TopPlay, error)

	// SearchBeatmaps returns beatmaps matching the criteria.
	SearchBeatmaps(ctx context.Context, criteria models.SearchCriteria) ([]models.Beatmap, error)

	// FetchBeatmapTraits returns a beatmap's difficulty attributes under
	// a mod combination, with the service's mod-adjusted star rating.
	FetchBeatmapTraits(ctx context.Context, beatmapID string, mods models.Mods) (models.Traits, error)
}
