// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package models

import (
	"sort"
	"time"
)

// TopPlay is one entry of a user's recorded best scores. StarRating is the
// play's beatmap difficulty adjusted for the play's own mods, as reported
// by the scoring service.
type TopPlay struct {
	BeatmapID  string    `json:"beatmap_id"`
	Mods       Mods      `json:"mods"`
	PP         float64   `json:"pp"`
	Rank       string    `json:"rank"`
	Accuracy   float64   `json:"accuracy"`
	StarRating float64   `json:"star_rating"`
	AchievedAt time.Time `json:"achieved_at"`
}

// SkillEstimate maps mod combinations to the target difficulty the player
// is estimated to handle under them. Absent combinations mean the top-play
// history did not carry enough support for an estimate.
type SkillEstimate map[Mods]float64

// Target returns the estimated difficulty for mods and whether an
// estimate exists.
func (s SkillEstimate) Target(mods Mods) (float64, bool) {
	v, ok := s[mods]
	return v, ok
}

// Groups returns the estimated mod combinations in deterministic
// ascending-bitmask order.
func (s SkillEstimate) Groups() []Mods {
	groups := make([]Mods, 0, len(s))
	for m := range s {
		groups = append(groups, m)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// Candidate is an unplayed beatmap evaluated under one mod combination.
// Score is the absolute distance between the mod-adjusted difficulty and
// the player's target for that combination; lower is a closer match.
type Candidate struct {
	Beatmap Beatmap
	Mods    Mods
	Score   float64
}

// Recommendation is the final output unit handed to the caller.
type Recommendation struct {
	Beatmap Beatmap `json:"beatmap"`
	Mods    Mods    `json:"mods"`
	Score   float64 `json:"score"`
}

// SearchCriteria selects beatmaps from the scoring service's search
// endpoint.
type SearchCriteria struct {
	Mode     GameMode
	MinStars float64
	MaxStars float64
	// RankedOnly restricts results to accepted (ranked/approved) status.
	RankedOnly bool
}
