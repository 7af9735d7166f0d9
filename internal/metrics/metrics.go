// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

// Package metrics exposes Prometheus collectors for the scoring-service
// client and the recommendation engine. Collectors are registered on the
// default registry via promauto; the embedding application decides whether
// and where to serve them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestDuration observes remote scoring-service request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beatradar_api_request_duration_seconds",
			Help:    "Duration of scoring service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// APIRequestErrors counts failed scoring-service requests by kind.
	APIRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatradar_api_request_errors_total",
			Help: "Total scoring service request failures",
		},
		[]string{"endpoint", "kind"}, // kind: auth, not_found, rate_limited, transient
	)

	// APIRetries counts retry attempts performed by the client.
	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatradar_api_retries_total",
			Help: "Total retry attempts against the scoring service",
		},
		[]string{"endpoint"},
	)

	// RateLimitWaits counts client-side rate limiter waits.
	RateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beatradar_rate_limit_waits_total",
			Help: "Times an outbound request waited on the client-side rate limiter",
		},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beatradar_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state transitions.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatradar_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// EngineRuns counts recommendation runs by outcome.
	EngineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatradar_engine_runs_total",
			Help: "Total recommendation engine runs",
		},
		[]string{"outcome"}, // outcome: ok, unavailable, auth, cancelled, error
	)

	// RecommendationsReturned observes final list sizes.
	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beatradar_recommendations_returned",
			Help:    "Number of recommendations returned per run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	// ModGroupsSkipped counts mod groups dropped after retry exhaustion.
	ModGroupsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beatradar_mod_groups_skipped_total",
			Help: "Mod groups skipped during candidate search due to remote failures",
		},
	)
)
