// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package models

import "strings"

// Mods is a bitmask of gameplay modifiers as transmitted by the scoring
// service. Combinations are compared by flag membership, never by ordinal.
type Mods uint32

const (
	// ModNone is the unmodified play state.
	ModNone Mods = 0
	// ModNoFail prevents failing mid-play.
	ModNoFail Mods = 1 << 0
	// ModEasy halves most difficulty attributes.
	ModEasy Mods = 1 << 1
	// ModTouchDevice marks plays submitted from touch devices.
	ModTouchDevice Mods = 1 << 2
	// ModHidden fades out hit objects before they are hit.
	ModHidden Mods = 1 << 3
	// ModHardRock raises difficulty attributes.
	ModHardRock Mods = 1 << 4
	// ModSuddenDeath fails the play on the first miss.
	ModSuddenDeath Mods = 1 << 5
	// ModDoubleTime raises the clock rate to 1.5x.
	ModDoubleTime Mods = 1 << 6
	// ModRelax removes timing requirements on clicks.
	ModRelax Mods = 1 << 7
	// ModHalfTime lowers the clock rate to 0.75x.
	ModHalfTime Mods = 1 << 8
	// ModNightcore is DoubleTime with pitched audio. The service always
	// sets the DoubleTime bit alongside it.
	ModNightcore Mods = 1 << 9
	// ModFlashlight restricts the visible play area.
	ModFlashlight Mods = 1 << 10
)

// trackedMask covers the three modifiers the engine profiles explicitly.
// Everything outside it forms the "other" bucket.
const trackedMask = ModHidden | ModHardRock | ModDoubleTime

// Has reports whether all flags in m2 are present in m.
func (m Mods) Has(m2 Mods) bool {
	return m&m2 == m2
}

// Tracked returns the subset of m covered by the explicitly profiled
// modifiers (Hidden, HardRock, DoubleTime).
func (m Mods) Tracked() Mods {
	return m & trackedMask
}

// HasOther reports whether m carries any flag outside the explicitly
// profiled modifiers. Nightcore is not counted separately because the
// service pairs it with the DoubleTime bit.
func (m Mods) HasOther() bool {
	return m&^(trackedMask|ModNightcore) != 0
}

// RateMultiplier returns the clock-rate factor applied by m.
func (m Mods) RateMultiplier() float64 {
	switch {
	case m.Has(ModDoubleTime) || m.Has(ModNightcore):
		return 1.5
	case m.Has(ModHalfTime):
		return 0.75
	default:
		return 1.0
	}
}

// modNames maps individual flags to their short codes in display order.
var modNames = []struct {
	flag Mods
	code string
}{
	{ModEasy, "EZ"},
	{ModNoFail, "NF"},
	{ModHidden, "HD"},
	{ModHardRock, "HR"},
	{ModSuddenDeath, "SD"},
	{ModDoubleTime, "DT"},
	{ModHalfTime, "HT"},
	{ModNightcore, "NC"},
	{ModFlashlight, "FL"},
	{ModRelax, "RX"},
	{ModTouchDevice, "TD"},
}

// String renders the combination as concatenated short codes, "NM" for no
// modifiers. Nightcore suppresses the redundant DT code.
func (m Mods) String() string {
	if m == ModNone {
		return "NM"
	}

	var sb strings.Builder
	for _, n := range modNames {
		if !m.Has(n.flag) {
			continue
		}
		if n.flag == ModDoubleTime && m.Has(ModNightcore) {
			continue
		}
		sb.WriteString(n.code)
	}

	if sb.Len() == 0 {
		// Unknown future flags still need a stable rendering.
		return "??"
	}
	return sb.String()
}
