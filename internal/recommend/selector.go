// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/metrics"
	"github.com/tomtom215/beatradar/internal/models"
	"github.com/tomtom215/beatradar/internal/osuapi"
)

// starChangingMask covers modifiers whose presence changes a beatmap's
// star rating, requiring a mod-adjusted traits lookup. Hidden and the
// remaining flags leave the rating untouched.
const starChangingMask = models.ModHardRock | models.ModDoubleTime |
	models.ModNightcore | models.ModEasy | models.ModHalfTime

// Selector finds unplayed beatmaps matching a skill estimate, one search
// per mod group, on a bounded worker pool.
type Selector struct {
	source      ScoreSource
	tolerance   float64
	concurrency int
	logger      zerolog.Logger
}

// NewSelector creates a Selector.
func NewSelector(source ScoreSource, cfg *config.EngineConfig, logger zerolog.Logger) *Selector {
	return &Selector{
		source:      source,
		tolerance:   cfg.ToleranceStars,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// groupResult is the outcome of one mod group's search.
type groupResult struct {
	candidates []models.Candidate
	err        error
}

// Select searches one difficulty band per estimated mod group and emits a
// candidate for every surviving (beatmap, mod group) pair. excluded holds
// beatmap IDs the player has already played, removed regardless of mods.
//
// Mod groups run concurrently, bounded by the configured limit; onGroup,
// when non-nil, is called as each group completes so the caller can
// report progress. failed counts groups dropped after the client's retry
// budget was exhausted; those are skipped, not fatal.
//
// Cancellation is cooperative: groups not yet started are abandoned,
// in-flight groups finish their current remote call, and the candidates
// gathered so far are returned alongside the context error. An
// authorization failure in any group is returned as-is.
func (s *Selector) Select(ctx context.Context, estimate models.SkillEstimate, excluded map[string]struct{}, mode models.GameMode, onGroup func(done, total int)) (candidates []models.Candidate, failed int, err error) {
	groups := estimate.Groups()
	if len(groups) == 0 {
		return nil, 0, nil
	}

	results := make([]groupResult, len(groups))
	sem := make(chan struct{}, s.concurrency)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for i, mods := range groups {
		// No new work after cancellation is observed.
		if ctx.Err() != nil {
			results[i] = groupResult{err: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(idx int, mods models.Mods) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[idx] = groupResult{err: ctx.Err()}
				return
			}

			target := estimate[mods]
			results[idx] = s.selectGroup(ctx, mods, target, excluded, mode)

			mu.Lock()
			done++
			current := done
			mu.Unlock()
			if onGroup != nil {
				onGroup(current, len(groups))
			}
		}(i, mods)
	}

	wg.Wait()

	for i, res := range results {
		switch {
		case res.err == nil:
			candidates = append(candidates, res.candidates...)

		case errors.Is(res.err, osuapi.ErrUnauthorized):
			return candidates, failed, res.err

		case errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded):
			err = ctx.Err()

		default:
			failed++
			metrics.ModGroupsSkipped.Inc()
			s.logger.Warn().
				Stringer("mods", groups[i]).
				Err(res.err).
				Msg("mod group skipped after remote failure")
		}
	}

	return candidates, failed, err
}

// selectGroup runs the search for a single mod group: band search, played
// filter, trait lookup and scoring.
func (s *Selector) selectGroup(ctx context.Context, mods models.Mods, target float64, excluded map[string]struct{}, mode models.GameMode) groupResult {
	found, err := s.source.SearchBeatmaps(ctx, models.SearchCriteria{
		Mode:       mode,
		MinStars:   target - s.tolerance,
		MaxStars:   target + s.tolerance,
		RankedOnly: true,
	})
	if err != nil {
		return groupResult{err: err}
	}

	candidates := make([]models.Candidate, 0, len(found))
	for _, beatmap := range found {
		if _, played := excluded[beatmap.ID]; played {
			continue
		}
		if err := ctx.Err(); err != nil {
			return groupResult{candidates: candidates, err: err}
		}

		scored, err := s.scoreBeatmap(ctx, beatmap, mods, target)
		if err != nil {
			return groupResult{err: err}
		}
		candidates = append(candidates, scored)
	}

	s.logger.Debug().
		Stringer("mods", mods).
		Float64("target", target).
		Int("candidates", len(candidates)).
		Msg("mod group search complete")

	return groupResult{candidates: candidates}
}

// scoreBeatmap computes a candidate's match score: the absolute distance
// between the beatmap's mod-adjusted star rating and the group target.
// Star-neutral mod groups reuse the search result's rating and skip the
// extra traits call.
func (s *Selector) scoreBeatmap(ctx context.Context, beatmap models.Beatmap, mods models.Mods, target float64) (models.Candidate, error) {
	traits := beatmap.Traits.Adjust(mods)

	if mods&starChangingMask != 0 {
		fetched, err := s.source.FetchBeatmapTraits(ctx, beatmap.ID, mods)
		if err != nil {
			return models.Candidate{}, err
		}
		traits = fetched
	}

	beatmap.Traits = traits
	return models.Candidate{
		Beatmap: beatmap,
		Mods:    mods,
		Score:   math.Abs(traits.StarRating - target),
	}, nil
}
