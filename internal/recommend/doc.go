// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

// Package recommend turns a player's top-play history into a ranked,
// deduplicated, mod-aware list of unplayed beatmaps.
//
// The pipeline has four stages, sequenced by Engine:
//
//	top plays ──► Profiler ──► Selector ──► Rank
//
// Profiler groups top plays by mod combination and derives a decay-
// weighted target difficulty per group; groups without enough supporting
// plays are omitted rather than guessed. Selector searches a difficulty
// band per mod group (concurrently, bounded), drops already-played
// beatmaps and scores survivors by distance from the target. Rank
// deduplicates by beatmap, orders deterministically and truncates.
//
// All remote access goes through the ScoreSource interface so the engine
// can be exercised without a network. Entities are transient: nothing
// outlives a run except the returned list, which the caller may hand to
// the cache package.
package recommend
