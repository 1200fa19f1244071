// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package metrics provides Prometheus metrics collection and export.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for production observability:
// - serviceability check throughput and latency per provider
// - decode pipeline failures per stage
// - credential refresh and rotation activity
// - upstream circuit breaker state
// - batch job progress
// - API endpoint throughput

var (
	// Check Metrics
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceability_checks_total",
			Help: "Total number of serviceability checks by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: "serviceable", "preorder", "none", "error"
	)

	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serviceability_check_duration_seconds",
			Help:    "Duration of a single address check including the upstream call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	ChecksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "serviceability_checks_in_flight",
			Help: "Current number of started-but-unfinished checks",
		},
		[]string{"provider"},
	)

	// Decode Pipeline Metrics
	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_decode_failures_total",
			Help: "Total number of decode pipeline failures by stage",
		},
		[]string{"stage"}, // "encoding_hint", "block_decode", "gunzip", "json_extract"
	)

	// Credential Metrics
	CredentialRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_credential_refreshes_total",
			Help: "Total number of upstream token refreshes",
		},
		[]string{"provider", "reason"}, // "expiry", "rotation"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Batch Job Metrics
	JobsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "check_jobs_started_total",
			Help: "Total number of batch check jobs started",
		},
		[]string{"provider", "mode"},
	)

	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "check_jobs_finished_total",
			Help: "Total number of batch check jobs reaching a terminal state",
		},
		[]string{"provider", "status"}, // "completed", "cancelled", "failed"
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "check_jobs_active",
			Help: "Current number of running batch check jobs",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)
