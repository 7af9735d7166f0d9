// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/beatradar/internal/models"
)

// fakeSource implements ScoreSource for tests. Unset functions fall back
// to benign defaults; call counters are atomic so concurrent selector
// workers can share one fake.
type fakeSource struct {
	plays    []models.TopPlay
	playsErr error

	searchFn func(criteria models.SearchCriteria) ([]models.Beatmap, error)
	traitsFn func(beatmapID string, mods models.Mods) (models.Traits, error)

	topPlayCalls int32
	searchCalls  int32
	traitsCalls  int32
}

func (f *fakeSource) FetchTopPlays(ctx context.Context, userID string, mode models.GameMode, onPage func(page, total int)) ([]models.TopPlay, error) {
	atomic.AddInt32(&f.topPlayCalls, 1)
	if f.playsErr != nil {
		return nil, f.playsErr
	}
	if onPage != nil {
		onPage(1, len(f.plays))
	}
	return f.plays, nil
}

func (f *fakeSource) SearchBeatmaps(ctx context.Context, criteria models.SearchCriteria) ([]models.Beatmap, error) {
	atomic.AddInt32(&f.searchCalls, 1)
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(criteria)
}

func (f *fakeSource) FetchBeatmapTraits(ctx context.Context, beatmapID string, mods models.Mods) (models.Traits, error) {
	atomic.AddInt32(&f.traitsCalls, 1)
	if f.traitsFn == nil {
		return models.Traits{}, nil
	}
	return f.traitsFn(beatmapID, mods)
}

// rankedMap builds an accepted-status beatmap with the given unmodified
// star rating.
func rankedMap(id string, stars float64) models.Beatmap {
	return models.Beatmap{
		ID:         id,
		SetID:      "set-" + id,
		Mode:       models.ModeStandard,
		Status:     models.StatusRanked,
		LastUpdate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Traits:     models.Traits{StarRating: stars},
	}
}
