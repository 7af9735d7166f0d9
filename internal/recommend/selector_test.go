// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/models"
	"github.com/tomtom215/beatradar/internal/osuapi"
)

func newTestSelector(source ScoreSource) *Selector {
	return NewSelector(source, &config.EngineConfig{
		ToleranceStars: 0.3,
		Concurrency:    2,
	}, zerolog.Nop())
}

func TestSelect_ExcludesPlayedBeatmaps(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("1", 4.0), rankedMap("2", 4.1), rankedMap("3", 4.2)}, nil
		},
	}

	candidates, failed, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{models.ModNone: 4.1},
		map[string]struct{}{"2": {}},
		models.ModeStandard,
		nil,
	)
	if err != nil || failed != 0 {
		t.Fatalf("Select() = failed %d, err %v", failed, err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	for _, c := range candidates {
		if c.Beatmap.ID == "2" {
			t.Error("excluded beatmap 2 appeared in candidates")
		}
	}
}

func TestSelect_SearchBandAroundTarget(t *testing.T) {
	var gotMin, gotMax float64
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			gotMin, gotMax = criteria.MinStars, criteria.MaxStars
			if !criteria.RankedOnly {
				t.Error("search must be restricted to accepted statuses")
			}
			return nil, nil
		},
	}

	_, _, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{models.ModNone: 4.5},
		nil, models.ModeStandard, nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(gotMin-4.2) > 1e-9 || math.Abs(gotMax-4.8) > 1e-9 {
		t.Errorf("band = [%v, %v], want [4.2, 4.8]", gotMin, gotMax)
	}
}

func TestSelect_StarNeutralGroupSkipsTraitsLookup(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("1", 4.0)}, nil
		},
	}

	candidates, _, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{models.ModHidden: 4.2},
		nil, models.ModeStandard, nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&source.traitsCalls); got != 0 {
		t.Errorf("traits calls = %d, want 0 for star-neutral hidden group", got)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if math.Abs(candidates[0].Score-0.2) > 1e-9 {
		t.Errorf("score = %v, want 0.2", candidates[0].Score)
	}
}

func TestSelect_StarChangingGroupUsesAdjustedRating(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("1", 4.0)}, nil
		},
		traitsFn: func(beatmapID string, mods models.Mods) (models.Traits, error) {
			if mods != models.ModDoubleTime {
				t.Errorf("traits requested for %v, want DT", mods)
			}
			return models.Traits{StarRating: 5.5}, nil
		},
	}

	candidates, _, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{models.ModDoubleTime: 5.4},
		nil, models.ModeStandard, nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&source.traitsCalls); got != 1 {
		t.Errorf("traits calls = %d, want 1", got)
	}
	if math.Abs(candidates[0].Score-0.1) > 1e-9 {
		t.Errorf("score = %v, want 0.1 from the adjusted rating", candidates[0].Score)
	}
	if candidates[0].Beatmap.Traits.StarRating != 5.5 {
		t.Errorf("candidate carries rating %v, want adjusted 5.5", candidates[0].Beatmap.Traits.StarRating)
	}
}

func TestSelect_TransientGroupFailureSkipped(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			// Fail only the higher band (the HD group's target).
			if criteria.MinStars > 4.5 {
				return nil, fmt.Errorf("search: %w", osuapi.ErrTransient)
			}
			return []models.Beatmap{rankedMap("1", 4.0)}, nil
		},
	}

	candidates, failed, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{
			models.ModNone:   4.1,
			models.ModHidden: 5.0,
		},
		nil, models.ModeStandard, nil,
	)
	if err != nil {
		t.Fatalf("partial failure must not be fatal: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if len(candidates) != 1 {
		t.Errorf("got %d candidates from the surviving group, want 1", len(candidates))
	}
}

func TestSelect_AuthFailurePropagates(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return nil, fmt.Errorf("search: %w", osuapi.ErrUnauthorized)
		},
	}

	_, _, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{models.ModNone: 4.1},
		nil, models.ModeStandard, nil,
	)
	if !errors.Is(err, osuapi.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSelect_CancelledBeforeStart(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("1", 4.0)}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates, _, err := newTestSelector(source).Select(
		ctx,
		models.SkillEstimate{models.ModNone: 4.1, models.ModHidden: 4.5},
		nil, models.ModeStandard, nil,
	)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(candidates) != 0 {
		t.Errorf("no work should start after cancellation, got %d candidates", len(candidates))
	}
}

func TestSelect_ProgressPerGroup(t *testing.T) {
	source := &fakeSource{
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return nil, nil
		},
	}

	var calls int32
	var lastTotal int32
	_, _, err := newTestSelector(source).Select(
		context.Background(),
		models.SkillEstimate{
			models.ModNone:     4.0,
			models.ModHidden:   4.3,
			models.ModHardRock: 4.6,
		},
		nil, models.ModeStandard,
		func(done, total int) {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&lastTotal, int32(total))
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("progress calls = %d, want 3", got)
	}
	if got := atomic.LoadInt32(&lastTotal); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
}
