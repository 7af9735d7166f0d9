// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"sort"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/models"
)

// Profiler derives a per-mod-combination skill estimate from a user's
// top plays.
type Profiler struct {
	minSupport int
	decay      float64
}

// NewProfiler creates a Profiler with the engine's tuning constants.
func NewProfiler(cfg *config.EngineConfig) *Profiler {
	return &Profiler{
		minSupport: cfg.MinSupport,
		decay:      cfg.DecayFactor,
	}
}

// Estimate groups plays by their full mod combination and computes a
// decay-weighted average of each group's mod-adjusted star ratings, with
// plays sorted by performance descending so the best plays dominate.
// Groups with fewer than the minimum support count are omitted; no plays
// at all yields an empty estimate.
//
// Combinations outside the tracked modifiers are kept keyed by the exact
// flag set observed, never merged into one "other" bucket.
func (p *Profiler) Estimate(plays []models.TopPlay) models.SkillEstimate {
	groups := make(map[models.Mods][]models.TopPlay)
	for _, play := range plays {
		groups[play.Mods] = append(groups[play.Mods], play)
	}

	estimate := make(models.SkillEstimate, len(groups))
	for mods, group := range groups {
		if len(group) < p.minSupport {
			continue
		}
		estimate[mods] = p.weightedTarget(group)
	}

	return estimate
}

// weightedTarget computes the decay-weighted star-rating average of a
// single mod group. weight_i = decay^i over plays sorted by PP
// descending.
func (p *Profiler) weightedTarget(group []models.TopPlay) float64 {
	sorted := make([]models.TopPlay, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PP > sorted[j].PP
	})

	var sum, weightSum float64
	weight := 1.0
	for _, play := range sorted {
		sum += weight * play.StarRating
		weightSum += weight
		weight *= p.decay
	}

	return sum / weightSum
}
