// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/models"
	"github.com/tomtom215/beatradar/internal/osuapi"
)

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.API.Key = "test-key"
	cfg.API.UserID = "1"
	cfg.Engine.MinSupport = 2
	cfg.Engine.DecayFactor = 0.9
	cfg.Engine.ToleranceStars = 0.3
	cfg.Engine.Concurrency = 2
	return cfg
}

// scenarioPlays is the reference history: 3 no-mod plays at stars
// [4.0, 4.2, 4.1] (PP descending) and 2 hidden plays at [4.5, 4.6].
func scenarioPlays() []models.TopPlay {
	return []models.TopPlay{
		{BeatmapID: "p1", Mods: models.ModNone, PP: 300, StarRating: 4.0},
		{BeatmapID: "p2", Mods: models.ModNone, PP: 290, StarRating: 4.2},
		{BeatmapID: "p3", Mods: models.ModNone, PP: 280, StarRating: 4.1},
		{BeatmapID: "p4", Mods: models.ModHidden, PP: 270, StarRating: 4.5},
		{BeatmapID: "p5", Mods: models.ModHidden, PP: 260, StarRating: 4.6},
	}
}

func TestGetRecommendations_EndToEnd(t *testing.T) {
	var bands []string
	var bandsMu sync.Mutex

	source := &fakeSource{
		plays: scenarioPlays(),
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			bandsMu.Lock()
			bands = append(bands, fmt.Sprintf("%.1f", (criteria.MinStars+criteria.MaxStars)/2))
			bandsMu.Unlock()
			return []models.Beatmap{
				rankedMap("c1", (criteria.MinStars+criteria.MaxStars)/2),
				rankedMap("p1", (criteria.MinStars+criteria.MaxStars)/2), // already played
				rankedMap("c2", criteria.MaxStars),
			}, nil
		},
	}

	engine := NewEngine(newTestConfig(), source)
	recs, err := engine.GetRecommendations(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error: %v", err)
	}

	// Two mod groups meet minSupport=2, so two band searches run.
	if len(bands) != 2 {
		t.Fatalf("searched %d bands, want 2 (got %v)", len(bands), bands)
	}

	played := map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true}
	for _, rec := range recs {
		if played[rec.Beatmap.ID] {
			t.Errorf("played beatmap %s recommended", rec.Beatmap.ID)
		}
	}

	// Ordered by match closeness: exact-center candidates first.
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Score > recs[i].Score {
			t.Errorf("scores not ascending at %d: %v > %v", i, recs[i-1].Score, recs[i].Score)
		}
	}
	if len(recs) == 0 || recs[0].Score > 1e-9 {
		t.Errorf("best recommendation should be an exact band-center match, got %+v", recs)
	}
}

func TestGetRecommendations_NoTopPlays(t *testing.T) {
	source := &fakeSource{plays: nil}

	_, err := NewEngine(newTestConfig(), source).GetRecommendations(context.Background(), nil)
	if !errors.Is(err, ErrRecommendationsUnavailable) {
		t.Fatalf("err = %v, want ErrRecommendationsUnavailable", err)
	}
	if got := atomic.LoadInt32(&source.searchCalls); got != 0 {
		t.Errorf("search calls = %d, want 0 when no profile exists", got)
	}
}

func TestGetRecommendations_AllGroupsBelowSupport(t *testing.T) {
	source := &fakeSource{
		plays: []models.TopPlay{
			{BeatmapID: "p1", Mods: models.ModNone, PP: 100, StarRating: 4.0},
		},
	}

	cfg := newTestConfig()
	cfg.Engine.MinSupport = 3
	_, err := NewEngine(cfg, source).GetRecommendations(context.Background(), nil)
	if !errors.Is(err, ErrRecommendationsUnavailable) {
		t.Fatalf("err = %v, want ErrRecommendationsUnavailable", err)
	}
	if got := atomic.LoadInt32(&source.searchCalls); got != 0 {
		t.Errorf("search calls = %d, want 0", got)
	}
}

func TestGetRecommendations_AuthErrorPropagatesUnchanged(t *testing.T) {
	source := &fakeSource{
		playsErr: fmt.Errorf("/v1/user/top: status 401: %w", osuapi.ErrUnauthorized),
	}

	_, err := NewEngine(newTestConfig(), source).GetRecommendations(context.Background(), nil)
	if !errors.Is(err, osuapi.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if got := atomic.LoadInt32(&source.searchCalls); got != 0 {
		t.Errorf("search calls = %d, want 0 after auth rejection", got)
	}
	if got := atomic.LoadInt32(&source.traitsCalls); got != 0 {
		t.Errorf("traits calls = %d, want 0 after auth rejection", got)
	}
}

func TestGetRecommendations_AllGroupsFailed(t *testing.T) {
	source := &fakeSource{
		plays: scenarioPlays(),
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return nil, fmt.Errorf("search: %w", osuapi.ErrRateLimited)
		},
	}

	_, err := NewEngine(newTestConfig(), source).GetRecommendations(context.Background(), nil)
	if !errors.Is(err, ErrRecommendationsUnavailable) {
		t.Fatalf("err = %v, want ErrRecommendationsUnavailable when every group fails", err)
	}
}

func TestGetRecommendations_PartialGroupFailureSucceeds(t *testing.T) {
	source := &fakeSource{
		plays: scenarioPlays(),
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			if criteria.MinStars > 4.3 { // fail the hidden group's band
				return nil, fmt.Errorf("search: %w", osuapi.ErrTransient)
			}
			return []models.Beatmap{rankedMap("c1", 4.1)}, nil
		},
	}

	recs, err := NewEngine(newTestConfig(), source).GetRecommendations(context.Background(), nil)
	if err != nil {
		t.Fatalf("one failed group must not abort the run: %v", err)
	}
	if len(recs) != 1 || recs[0].Beatmap.ID != "c1" {
		t.Errorf("recs = %v, want the surviving group's candidate", recs)
	}
}

func TestGetRecommendations_ProgressMonotonicAndComplete(t *testing.T) {
	source := &fakeSource{
		plays: scenarioPlays(),
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("c1", 4.0)}, nil
		},
	}

	var fractions []float64
	_, err := NewEngine(newTestConfig(), source).GetRecommendations(context.Background(), func(f float64) {
		fractions = append(fractions, f)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(fractions) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Errorf("progress regressed: %v", fractions)
		}
	}
	if last := fractions[len(fractions)-1]; last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
}

func TestGetRecommendations_CancelledBeforeSelection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := &fakeSource{
		plays: scenarioPlays(),
		searchFn: func(criteria models.SearchCriteria) ([]models.Beatmap, error) {
			return []models.Beatmap{rankedMap("c1", 4.0)}, nil
		},
	}
	// Cancel during the top-play phase via the page callback path.
	engine := NewEngine(newTestConfig(), source)
	cancel()

	_, err := engine.GetRecommendations(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestProgressSink_ClampsAndFiltersRegressions(t *testing.T) {
	var got []float64
	sink := newProgressSink(func(f float64) { got = append(got, f) })

	sink.report(0.1)
	sink.report(0.05) // regression, dropped
	sink.report(0.1)  // duplicate, dropped
	sink.report(0.5)
	sink.report(1.7) // clamped
	sink.report(0.9) // after completion, dropped

	want := []float64{0.1, 0.5, 1.0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProgressSink_NilSafe(t *testing.T) {
	sink := newProgressSink(nil)
	sink.report(0.5) // must not panic
}
