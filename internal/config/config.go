// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

// Package config loads and validates engine configuration from layered
// sources (struct defaults, optional YAML file, environment variables).
// A *Config is passed explicitly into constructors; there is no ambient
// settings state.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/beatradar/internal/models"
)

// Config is the root configuration for one engine instance.
type Config struct {
	API     APIConfig     `koanf:"api" validate:"required"`
	Engine  EngineConfig  `koanf:"engine" validate:"required"`
	Cache   CacheConfig   `koanf:"cache"`
	Logging LoggingConfig `koanf:"logging"`
}

// APIConfig configures access to the remote scoring service.
type APIConfig struct {
	// BaseURL is the service root, e.g. "https://osu.ppy.sh/api".
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Key is the pre-obtained API credential. Its format is not
	// validated beyond presence; the service is the authority.
	Key string `koanf:"key" validate:"required"`

	// UserID identifies the player whose top plays are analyzed.
	UserID string `koanf:"user_id" validate:"required"`

	// Mode is the ruleset to recommend for (0-3).
	Mode models.GameMode `koanf:"mode" validate:"gte=0,lte=3"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// MaxRetries bounds retry attempts for rate-limited or transient
	// failures on idempotent requests.
	MaxRetries int `koanf:"max_retries" validate:"gte=0,lte=10"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" validate:"gt=0"`

	// RateLimit is the sustained outbound request rate per second.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `koanf:"rate_burst" validate:"gte=1"`

	// PageSize is the page length for paginated endpoints.
	PageSize int `koanf:"page_size" validate:"gte=1,lte=100"`

	// MaxTopPlayPages caps top-play pagination.
	MaxTopPlayPages int `koanf:"max_top_play_pages" validate:"gte=1"`

	// MaxSearchPages caps beatmap-search pagination per mod group.
	MaxSearchPages int `koanf:"max_search_pages" validate:"gte=1"`
}

// EngineConfig holds the recommendation tuning constants.
type EngineConfig struct {
	// MinSupport is the minimum number of top plays a mod group needs
	// before a skill estimate is derived for it.
	MinSupport int `koanf:"min_support" validate:"gte=1"`

	// DecayFactor weights top plays by rank: weight_i = DecayFactor^i
	// with plays sorted by performance descending. Must be below 1 so
	// the best plays dominate.
	DecayFactor float64 `koanf:"decay_factor" validate:"gt=0,lt=1"`

	// ToleranceStars is the half-width of the difficulty band searched
	// around each mod group's target.
	ToleranceStars float64 `koanf:"tolerance_stars" validate:"gt=0"`

	// MaxResults caps the final recommendation list.
	MaxResults int `koanf:"max_results" validate:"gte=1"`

	// Concurrency bounds simultaneous mod-group searches.
	Concurrency int `koanf:"concurrency" validate:"gte=1,lte=8"`
}

// CacheConfig configures the caller-side recommendation cache.
type CacheConfig struct {
	// Enabled controls whether the badger store is opened at all.
	Enabled bool `koanf:"enabled"`

	// Dir is the badger data directory.
	Dir string `koanf:"dir"`

	// TTL expires cached entries; zero means no expiry.
	TTL time.Duration `koanf:"ttl" validate:"gte=0"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// Default returns a Config with sensible defaults. Credentials are empty
// and must come from the config file or environment.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         "https://osu.ppy.sh/api",
			Mode:            models.ModeStandard,
			Timeout:         30 * time.Second,
			MaxRetries:      5,
			RetryBaseDelay:  time.Second,
			RateLimit:       2,
			RateBurst:       4,
			PageSize:        50,
			MaxTopPlayPages: 4,
			MaxSearchPages:  3,
		},
		Engine: EngineConfig{
			MinSupport:     3,
			DecayFactor:    0.9,
			ToleranceStars: 0.35,
			MaxResults:     100,
			Concurrency:    3,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "cache",
			TTL:     0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// validate is shared; validator.Validate is safe for concurrent use.
var validate = validator.New()

// Validate checks the configuration against the struct constraints and
// cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("config validation: cache.dir required when cache is enabled")
	}

	return nil
}
