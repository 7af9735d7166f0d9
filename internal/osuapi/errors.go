// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

package osuapi

import "errors"

// The client maps remote failures onto four error kinds. Callers match
// them with errors.Is; everything carries request context via wrapping.
var (
	// ErrUnauthorized means the service rejected the credential pair.
	// Fatal to a run; never retried.
	ErrUnauthorized = errors.New("osuapi: unauthorized")

	// ErrNotFound means the requested user or beatmap does not exist.
	ErrNotFound = errors.New("osuapi: not found")

	// ErrRateLimited means throttling persisted through the bounded
	// retry budget.
	ErrRateLimited = errors.New("osuapi: rate limited")

	// ErrTransient covers network failures and 5xx responses that
	// survived the retry budget, and an open circuit breaker.
	ErrTransient = errors.New("osuapi: transient failure")
)

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "auth"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "other"
	}
}
