// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package recommend

import (
	"sort"
	"strings"

	"github.com/tomtom215/beatradar/internal/models"
)

// Rank deduplicates candidates by beatmap ID, orders them by match
// closeness and truncates to maxResults. A non-positive maxResults
// yields an empty list.
//
// Ordering is fully deterministic regardless of the order candidates were
// gathered in: ascending score, ties broken by most recent beatmap update
// first, then ascending beatmap ID. For a beatmap seen under several mod
// groups only the best (lowest) scoring group survives.
func Rank(candidates []models.Candidate, maxResults int) []models.Recommendation {
	best := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		prev, seen := best[c.Beatmap.ID]
		if !seen || betterCandidate(c, prev) {
			best[c.Beatmap.ID] = c
		}
	}

	deduped := make([]models.Candidate, 0, len(best))
	for _, c := range best {
		deduped = append(deduped, c)
	}

	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if !a.Beatmap.LastUpdate.Equal(b.Beatmap.LastUpdate) {
			return a.Beatmap.LastUpdate.After(b.Beatmap.LastUpdate)
		}
		return compareIDs(a.Beatmap.ID, b.Beatmap.ID) < 0
	})

	if maxResults < 0 {
		maxResults = 0
	}
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	recs := make([]models.Recommendation, len(deduped))
	for i, c := range deduped {
		recs[i] = models.Recommendation{
			Beatmap: c.Beatmap,
			Mods:    c.Mods,
			Score:   c.Score,
		}
	}

	return recs
}

// betterCandidate reports whether a should replace b as a beatmap's best
// entry. Equal scores fall back to the ascending mod bitmask so the
// outcome never depends on gathering order.
func betterCandidate(a, b models.Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Mods < b.Mods
}

// compareIDs orders beatmap IDs numerically when both are plain decimal
// strings (the service's format) by comparing lengths first.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
