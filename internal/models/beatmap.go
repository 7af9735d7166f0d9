// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package models

import (
	"fmt"
	"time"
)

// GameMode identifies one of the four rulesets. Wire values match the
// scoring service's mode parameter.
type GameMode int

const (
	// ModeStandard is the default osu! ruleset.
	ModeStandard GameMode = 0
	// ModeTaiko is the drum ruleset.
	ModeTaiko GameMode = 1
	// ModeCatch is the catch-the-beat ruleset.
	ModeCatch GameMode = 2
	// ModeMania is the keyboard ruleset.
	ModeMania GameMode = 3
)

// String returns the ruleset name.
func (g GameMode) String() string {
	switch g {
	case ModeStandard:
		return "standard"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "catch"
	case ModeMania:
		return "mania"
	default:
		return "unknown"
	}
}

// RankedStatus is the review state of a beatmap on the scoring service.
type RankedStatus int

const (
	// StatusGraveyard is an abandoned unreviewed beatmap.
	StatusGraveyard RankedStatus = -2
	// StatusWIP is a work-in-progress beatmap.
	StatusWIP RankedStatus = -1
	// StatusPending awaits review.
	StatusPending RankedStatus = 0
	// StatusRanked has passed review and awards performance points.
	StatusRanked RankedStatus = 1
	// StatusApproved is a legacy reviewed state equivalent to ranked.
	StatusApproved RankedStatus = 2
	// StatusQualified is in the final review window.
	StatusQualified RankedStatus = 3
	// StatusLoved is community-curated but not performance-awarding.
	StatusLoved RankedStatus = 4
)

// Accepted reports whether the status is suitable for recommending.
// Only fully reviewed content qualifies.
func (s RankedStatus) Accepted() bool {
	return s == StatusRanked || s == StatusApproved
}

// Traits holds the numeric difficulty attributes of a beatmap. A Traits
// value is specific to one mod combination; the base (no-mod) value comes
// from the service and Adjust derives local variants.
type Traits struct {
	StarRating        float64       `json:"star_rating"`
	ApproachRate      float64       `json:"approach_rate"`
	OverallDifficulty float64       `json:"overall_difficulty"`
	CircleSize        float64       `json:"circle_size"`
	Drain             float64       `json:"drain"`
	BPM               float64       `json:"bpm"`
	Length            time.Duration `json:"length"`
	ObjectCount       int           `json:"object_count"`
	MaxCombo          int           `json:"max_combo"`
}

const maxDifficultyAttribute = 10.0

// Adjust returns a copy of t with the deterministic local effects of mods
// applied: clock-rate changes for DoubleTime/Nightcore/HalfTime and the
// fixed attribute multipliers of HardRock/Easy. StarRating is left
// untouched because the service's mod-adjusted value is authoritative.
func (t Traits) Adjust(mods Mods) Traits {
	out := t

	if r := mods.RateMultiplier(); r != 1.0 {
		out.BPM = t.BPM * r
		out.Length = time.Duration(float64(t.Length) / r)
	}

	switch {
	case mods.Has(ModHardRock):
		out.ApproachRate = min(t.ApproachRate*1.4, maxDifficultyAttribute)
		out.OverallDifficulty = min(t.OverallDifficulty*1.4, maxDifficultyAttribute)
		out.Drain = min(t.Drain*1.4, maxDifficultyAttribute)
		out.CircleSize = min(t.CircleSize*1.3, maxDifficultyAttribute)
	case mods.Has(ModEasy):
		out.ApproachRate = t.ApproachRate * 0.5
		out.OverallDifficulty = t.OverallDifficulty * 0.5
		out.Drain = t.Drain * 0.5
		out.CircleSize = t.CircleSize * 0.5
	}

	return out
}

// Beatmap is one difficulty of a beatmap set. Identity is ID; values are
// immutable once constructed.
type Beatmap struct {
	ID         string       `json:"id"`
	SetID      string       `json:"set_id"`
	Mode       GameMode     `json:"mode"`
	Artist     string       `json:"artist"`
	Title      string       `json:"title"`
	Version    string       `json:"version"`
	Creator    string       `json:"creator"`
	Status     RankedStatus `json:"status"`
	LastUpdate time.Time    `json:"last_update"`
	Traits     Traits       `json:"traits"`
}

// FullName renders the conventional "Artist - Title [Version]" label.
func (b Beatmap) FullName() string {
	return fmt.Sprintf("%s - %s [%s]", b.Artist, b.Title, b.Version)
}

// SetFullName renders the set-level "Artist - Title" label.
func (b Beatmap) SetFullName() string {
	return fmt.Sprintf("%s - %s", b.Artist, b.Title)
}

// ThumbnailURL returns the set thumbnail image location.
func (b Beatmap) ThumbnailURL() string {
	return fmt.Sprintf("https://b.ppy.sh/thumb/%sl.jpg", b.SetID)
}

// CoverURL returns the set cover image location.
func (b Beatmap) CoverURL() string {
	return fmt.Sprintf("https://assets.ppy.sh/beatmaps/%s/covers/cover.jpg", b.SetID)
}
