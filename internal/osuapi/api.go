// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package osuapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beatradar/internal/logging"
	"github.com/tomtom215/beatradar/internal/models"
)

// Endpoint paths below the configured base URL.
const (
	endpointTopPlays      = "/v1/user/top"
	endpointBeatmapSearch = "/v1/beatmaps/search"
	endpointBeatmapTraits = "/v1/beatmaps/traits"
)

// playJSON is the wire shape of one top-play entry. StarRating is the
// play's beatmap difficulty already adjusted for the play's mods.
type playJSON struct {
	BeatmapID  string  `json:"beatmap_id"`
	Mods       uint32  `json:"mods"`
	PP         float64 `json:"pp"`
	Rank       string  `json:"rank"`
	Accuracy   float64 `json:"accuracy"`
	StarRating float64 `json:"star_rating"`
	AchievedAt string  `json:"achieved_at"`
}

// beatmapJSON is the wire shape of one beatmap with flattened traits.
type beatmapJSON struct {
	ID                string  `json:"id"`
	SetID             string  `json:"set_id"`
	Mode              int     `json:"mode"`
	Artist            string  `json:"artist"`
	Title             string  `json:"title"`
	Version           string  `json:"version"`
	Creator           string  `json:"creator"`
	Status            int     `json:"status"`
	LastUpdate        string  `json:"last_update"`
	StarRating        float64 `json:"star_rating"`
	ApproachRate      float64 `json:"approach_rate"`
	OverallDifficulty float64 `json:"overall_difficulty"`
	CircleSize        float64 `json:"circle_size"`
	Drain             float64 `json:"drain"`
	BPM               float64 `json:"bpm"`
	LengthSeconds     float64 `json:"length_seconds"`
	ObjectCount       int     `json:"object_count"`
	MaxCombo          int     `json:"max_combo"`
}

// traitsJSON is the wire shape of the traits lookup endpoint. The service
// adjusts difficulty attributes for the requested mods; BPM and length
// are always reported for the unmodified clock rate.
type traitsJSON struct {
	StarRating        float64 `json:"star_rating"`
	ApproachRate      float64 `json:"approach_rate"`
	OverallDifficulty float64 `json:"overall_difficulty"`
	CircleSize        float64 `json:"circle_size"`
	Drain             float64 `json:"drain"`
	BPM               float64 `json:"bpm"`
	LengthSeconds     float64 `json:"length_seconds"`
	ObjectCount       int     `json:"object_count"`
	MaxCombo          int     `json:"max_combo"`
}

// parseWireTime parses an RFC 3339 timestamp off the wire. A malformed
// value degrades to the zero time rather than failing the whole page,
// but never silently: ranking tie-breaks depend on these.
func parseWireTime(field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		logging.Warn().
			Str("field", field).
			Str("value", value).
			Msg("malformed timestamp from scoring service")
		return time.Time{}
	}
	return t
}

// toModel converts a wire play to the domain type.
func (p playJSON) toModel() models.TopPlay {
	return models.TopPlay{
		BeatmapID:  p.BeatmapID,
		Mods:       models.Mods(p.Mods),
		PP:         p.PP,
		Rank:       p.Rank,
		Accuracy:   p.Accuracy,
		StarRating: p.StarRating,
		AchievedAt: parseWireTime("achieved_at", p.AchievedAt),
	}
}

// toModel converts a wire beatmap to the domain type.
func (b beatmapJSON) toModel() models.Beatmap {
	return models.Beatmap{
		ID:         b.ID,
		SetID:      b.SetID,
		Mode:       models.GameMode(b.Mode),
		Artist:     b.Artist,
		Title:      b.Title,
		Version:    b.Version,
		Creator:    b.Creator,
		Status:     models.RankedStatus(b.Status),
		LastUpdate: parseWireTime("last_update", b.LastUpdate),
		Traits: models.Traits{
			StarRating:        b.StarRating,
			ApproachRate:      b.ApproachRate,
			OverallDifficulty: b.OverallDifficulty,
			CircleSize:        b.CircleSize,
			Drain:             b.Drain,
			BPM:               b.BPM,
			Length:            time.Duration(b.LengthSeconds * float64(time.Second)),
			ObjectCount:       b.ObjectCount,
			MaxCombo:          b.MaxCombo,
		},
	}
}

// FetchTopPlays retrieves the user's recorded best scores for the given
// mode. Pages are fetched sequentially until the service returns an empty
// page or the configured page cap is reached; onPage, when non-nil, is
// invoked after each fetched page with the running play count.
func (c *Client) FetchTopPlays(ctx context.Context, userID string, mode models.GameMode, onPage func(page, total int)) ([]models.TopPlay, error) {
	var plays []models.TopPlay

	for page := 1; page <= c.maxTopPages; page++ {
		params := url.Values{}
		params.Set("user", userID)
		params.Set("mode", strconv.Itoa(int(mode)))
		params.Set("page", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(c.pageSize))

		body, err := c.get(ctx, endpointTopPlays, params)
		if err != nil {
			return nil, err
		}

		var wire []playJSON
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("%s: decode page %d: %w", endpointTopPlays, page, err)
		}

		for _, p := range wire {
			plays = append(plays, p.toModel())
		}
		if onPage != nil {
			onPage(page, len(plays))
		}

		if len(wire) < c.pageSize {
			break
		}
	}

	c.logger.Debug().
		Str("user", userID).
		Str("mode", mode.String()).
		Int("plays", len(plays)).
		Msg("fetched top plays")

	return plays, nil
}

// SearchBeatmaps retrieves beatmaps matching the criteria. The service
// filters by its unmodified difficulty rating; the selector rescores
// results under mods. Results failing the accepted-status check are
// dropped client-side regardless of what the service returns.
func (c *Client) SearchBeatmaps(ctx context.Context, criteria models.SearchCriteria) ([]models.Beatmap, error) {
	var maps []models.Beatmap

	for page := 1; page <= c.maxSearchPages; page++ {
		params := url.Values{}
		params.Set("mode", strconv.Itoa(int(criteria.Mode)))
		params.Set("min_stars", formatStars(criteria.MinStars))
		params.Set("max_stars", formatStars(criteria.MaxStars))
		params.Set("page", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(c.pageSize))
		if criteria.RankedOnly {
			params.Set("status", "ranked")
		}

		body, err := c.get(ctx, endpointBeatmapSearch, params)
		if err != nil {
			return nil, err
		}

		var wire []beatmapJSON
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("%s: decode page %d: %w", endpointBeatmapSearch, page, err)
		}

		for _, b := range wire {
			m := b.toModel()
			if criteria.RankedOnly && !m.Status.Accepted() {
				continue
			}
			maps = append(maps, m)
		}

		if len(wire) < c.pageSize {
			break
		}
	}

	return maps, nil
}

// FetchBeatmapTraits retrieves the difficulty attributes of a beatmap
// under a mod combination. The service's mod-adjusted values are
// authoritative for star rating and the fixed difficulty attributes; the
// clock-rate effect on BPM and length is applied locally since the
// service reports those at 1x.
func (c *Client) FetchBeatmapTraits(ctx context.Context, beatmapID string, mods models.Mods) (models.Traits, error) {
	params := url.Values{}
	params.Set("b", beatmapID)
	params.Set("mods", strconv.FormatUint(uint64(mods), 10))

	body, err := c.get(ctx, endpointBeatmapTraits, params)
	if err != nil {
		return models.Traits{}, err
	}

	var wire traitsJSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return models.Traits{}, fmt.Errorf("%s: decode: %w", endpointBeatmapTraits, err)
	}

	t := models.Traits{
		StarRating:        wire.StarRating,
		ApproachRate:      wire.ApproachRate,
		OverallDifficulty: wire.OverallDifficulty,
		CircleSize:        wire.CircleSize,
		Drain:             wire.Drain,
		BPM:               wire.BPM,
		Length:            time.Duration(wire.LengthSeconds * float64(time.Second)),
		ObjectCount:       wire.ObjectCount,
		MaxCombo:          wire.MaxCombo,
	}

	if r := mods.RateMultiplier(); r != 1.0 {
		t.BPM *= r
		t.Length = time.Duration(float64(t.Length) / r)
	}

	return t, nil
}

// formatStars renders a star value for the search query.
func formatStars(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
