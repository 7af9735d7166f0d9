// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

// Package osuapi is the typed HTTP client for the remote scoring service.
//
// The client owns every resilience concern below the engine: a shared
// client-side rate limiter, bounded exponential-backoff retries with
// Retry-After support, and a circuit breaker. Failures surface as one of
// four error kinds (see errors.go); transient conditions are absorbed up
// to the retry budget and only then propagated.
//
// Thread safety: a Client is safe for concurrent use. The rate limiter
// and circuit breaker are shared across goroutines so concurrent mod
// group searches respect one global request budget.
package osuapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beatradar/internal/config"
	"github.com/tomtom215/beatradar/internal/logging"
	"github.com/tomtom215/beatradar/internal/metrics"
)

// maxErrorBodySize limits how much of a response body is read for error
// reporting, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024

// breakerName labels the circuit breaker in logs and metrics.
const breakerName = "osu-api"

// Client communicates with the scoring service's REST API.
type Client struct {
	baseURL        string
	apiKey         string
	http           *http.Client
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[[]byte]
	maxRetries     int
	retryBaseDelay time.Duration
	pageSize       int
	maxTopPages    int
	maxSearchPages int
	logger         zerolog.Logger
}

// NewClient creates a Client from the API configuration.
func NewClient(cfg *config.APIConfig) *Client {
	c := &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.Key,
		http:           &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		pageSize:       cfg.PageSize,
		maxTopPages:    cfg.MaxTopPlayPages,
		maxSearchPages: cfg.MaxSearchPages,
		logger:         logging.With().Str("component", "osuapi").Logger(),
	}
	c.breaker = newBreaker(c.logger)
	return c
}

// newBreaker builds the circuit breaker guarding all outbound requests.
// Opens at a 60% failure rate over at least 10 requests; auth and
// not-found responses count as successes because the service answered.
func newBreaker(logger zerolog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// A definitive answer from the service is not a breaker
			// failure, and caller cancellation says nothing about
			// service health.
			return errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// stateToFloat maps breaker states onto the gauge scale.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// get performs an authenticated GET against endpoint with params and
// returns the response body. endpoint is a path below the base URL and
// doubles as the metrics label.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("k", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequestWithRetry(ctx, endpoint, reqURL)
	})
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%s: circuit open: %w", endpoint, ErrTransient)
		}
		metrics.APIRequestErrors.WithLabelValues(endpoint, errorKind(err)).Inc()
		return nil, err
	}

	return body, nil
}

// doRequestWithRetry performs the request with retries for throttled and
// transient failures. Backoff is exponential from retryBaseDelay and
// honors Retry-After on 429 responses; waits are context-cancellable.
// Definitive responses (2xx, 401, 404, other 4xx) never retry.
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.APIRetries.WithLabelValues(endpoint).Inc()
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := c.waitForRateLimiter(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.doOnce(ctx, endpoint, reqURL)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter > 0 {
			delay = retryAfter
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("retrying request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%s: retries exhausted: %w", endpoint, lastErr)
}

// waitForRateLimiter blocks until the shared limiter admits a request.
func (c *Client) waitForRateLimiter(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}
	metrics.RateLimitWaits.Inc()
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter: %w", ErrTransient)
	}
	return nil
}

// doOnce performs a single HTTP exchange and classifies the outcome.
// retryAfter is non-zero only for 429 responses carrying the header.
func (c *Client) doOnce(ctx context.Context, endpoint, reqURL string) (body []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", endpoint, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%s: %v: %w", endpoint, err, ErrTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, 0, fmt.Errorf("%s: read body: %v: %w", endpoint, readErr, ErrTransient)
		}
		return b, 0, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, ErrUnauthorized)

	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, fmt.Errorf("%s: %w", endpoint, ErrNotFound)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%s: status 429: %w", endpoint, ErrRateLimited)

	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, ErrTransient)

	default:
		// Other 4xx responses are definitive; never retried.
		msg := readBodyForError(resp.Body)
		return nil, 0, fmt.Errorf("%s: unexpected status %d: %s", endpoint, resp.StatusCode, msg)
	}
}

// isRetryable reports whether a classified error merits another attempt.
func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// parseRetryAfter reads a Retry-After header given in whole seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
