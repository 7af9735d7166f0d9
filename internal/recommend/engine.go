// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/logging"
	"github.com/tomtom215/beatradar/internal/metrics"
	"github.com/tomtom215/beatradar/internal/models"
	"github.com/tomtom215/beatradar/internal/osuapi"
)

// ErrRecommendationsUnavailable means there was nothing to recommend
// from: the user has no top plays in the selected mode, no mod group
// reached the support threshold, or every mod group's search failed.
// Distinct from an authorization failure; callers present the two
// differently.
var ErrRecommendationsUnavailable = errors.New("recommend: recommendations unavailable")

// Progress phase boundaries. Fractions reported to the sink are
// monotonically non-decreasing within one run.
const (
	progressTopPlaysDone  = 0.30
	progressSelectionDone = 0.90
)

// Engine orchestrates one recommendation computation: top plays →
// skill profile → candidate search per mod group → ranked output.
// It holds no cross-run mutable state; every invocation is independent.
type Engine struct {
	source   ScoreSource
	cfg      *config.Config
	profiler *Profiler
	selector *Selector
	logger   zerolog.Logger
}

// NewEngine creates an Engine. All tuning (credentials, mode, thresholds,
// concurrency) comes from the explicit configuration struct.
func NewEngine(cfg *config.Config, source ScoreSource) *Engine {
	logger := logging.With().Str("component", "recommend").Logger()
	return &Engine{
		source:   source,
		cfg:      cfg,
		profiler: NewProfiler(&cfg.Engine),
		selector: NewSelector(source, &cfg.Engine, logger),
		logger:   logger,
	}
}

// GetRecommendations computes the ranked, deduplicated recommendation
// list for the configured user and mode. progress, when non-nil,
// receives monotonic fractions in [0,1].
//
// Error contract: credential rejection surfaces the client's
// authorization error unchanged; no usable data surfaces
// ErrRecommendationsUnavailable; cancellation before ranking surfaces
// ctx.Err() and never a partial list. Transient failures of individual
// mod groups are logged and skipped.
func (e *Engine) GetRecommendations(ctx context.Context, progress func(float64)) ([]models.Recommendation, error) {
	runID := uuid.NewString()[:8]
	logger := e.logger.With().Str("run_id", runID).Logger()
	sink := newProgressSink(progress)

	logger.Info().
		Str("user", e.cfg.API.UserID).
		Str("mode", e.cfg.API.Mode.String()).
		Msg("starting recommendation run")

	plays, err := e.fetchTopPlays(ctx, sink)
	if err != nil {
		return nil, e.finishRun(logger, err)
	}
	sink.report(progressTopPlaysDone)

	if len(plays) == 0 {
		logger.Info().Msg("no top plays in selected mode")
		return nil, e.finishRun(logger, ErrRecommendationsUnavailable)
	}

	estimate := e.profiler.Estimate(plays)
	if len(estimate) == 0 {
		logger.Info().Int("plays", len(plays)).Msg("no mod group reached the support threshold")
		return nil, e.finishRun(logger, ErrRecommendationsUnavailable)
	}

	candidates, failed, err := e.selectCandidates(ctx, estimate, plays, sink)
	if err != nil {
		return nil, e.finishRun(logger, err)
	}
	if failed == len(estimate) {
		logger.Warn().Int("groups", failed).Msg("every mod group search failed")
		return nil, e.finishRun(logger, ErrRecommendationsUnavailable)
	}
	sink.report(progressSelectionDone)

	recommendations := Rank(candidates, e.cfg.Engine.MaxResults)
	sink.report(1.0)

	metrics.EngineRuns.WithLabelValues("ok").Inc()
	metrics.RecommendationsReturned.Observe(float64(len(recommendations)))
	logger.Info().
		Int("plays", len(plays)).
		Int("candidates", len(candidates)).
		Int("recommendations", len(recommendations)).
		Int("skipped_groups", failed).
		Msg("recommendation run complete")

	return recommendations, nil
}

// fetchTopPlays runs the sequential paginated top-play fetch, feeding
// per-page progress into the first phase's fraction range.
func (e *Engine) fetchTopPlays(ctx context.Context, sink *progressSink) ([]models.TopPlay, error) {
	maxPages := e.cfg.API.MaxTopPlayPages
	return e.source.FetchTopPlays(ctx, e.cfg.API.UserID, e.cfg.API.Mode, func(page, total int) {
		sink.report(progressTopPlaysDone * float64(page) / float64(maxPages))
	})
}

// selectCandidates runs the per-mod-group candidate search, mapping group
// completions onto the selection phase's fraction range.
func (e *Engine) selectCandidates(ctx context.Context, estimate models.SkillEstimate, plays []models.TopPlay, sink *progressSink) ([]models.Candidate, int, error) {
	excluded := make(map[string]struct{}, len(plays))
	for _, p := range plays {
		excluded[p.BeatmapID] = struct{}{}
	}

	span := progressSelectionDone - progressTopPlaysDone
	return e.selector.Select(ctx, estimate, excluded, e.cfg.API.Mode, func(done, total int) {
		sink.report(progressTopPlaysDone + span*float64(done)/float64(total))
	})
}

// finishRun records the run outcome metric and returns err unchanged.
func (e *Engine) finishRun(logger zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, osuapi.ErrUnauthorized):
		metrics.EngineRuns.WithLabelValues("auth").Inc()
		logger.Warn().Err(err).Msg("run failed: credentials rejected")
	case errors.Is(err, ErrRecommendationsUnavailable):
		metrics.EngineRuns.WithLabelValues("unavailable").Inc()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.EngineRuns.WithLabelValues("cancelled").Inc()
		logger.Info().Msg("run cancelled")
	default:
		metrics.EngineRuns.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("run failed")
	}
	return err
}

// progressSink wraps the caller's progress callback, clamping fractions
// to [0,1] and enforcing monotonicity so concurrent group completions
// and page callbacks can never report a regression. Nil-safe.
type progressSink struct {
	fn   func(float64)
	mu   sync.Mutex
	last float64
}

func newProgressSink(fn func(float64)) *progressSink {
	return &progressSink{fn: fn}
}

// report forwards fraction to the sink if it advances progress.
func (p *progressSink) report(fraction float64) {
	if p.fn == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if fraction > 1 {
		fraction = 1
	}
	if fraction <= p.last {
		return
	}
	p.last = fraction
	p.fn(fraction)
}
