// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// orchestrator.
//
// # Description
//
// This package implements Prometheus metrics for monitoring reference
// gathering. Metrics include:
//   - Request counters (by endpoint, status)
//   - Provider failure counters (by provider)
//   - Gather latency histograms
//   - Returned candidate count histograms
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "papermill"

// Subsystem for gathering metrics
const gatherSubsystem = "gather"

// GatherMetrics holds all Prometheus metrics for reference gathering.
//
// # Description
//
// Provides counters and histograms for monitoring gather throughput,
// provider health, and result quality. Initialize once at startup via
// InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of gather requests by endpoint and status
//   - SourceFailuresTotal: Counter of provider call failures by provider
//   - GatherDurationSeconds: Histogram of end-to-end gather latency
//   - CandidatesReturned: Histogram of references returned per section
//
// # Thread Safety
//
// All operations are thread-safe.
type GatherMetrics struct {
	// RequestsTotal counts gather requests by endpoint and status.
	// Labels: endpoint (section, document), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// SourceFailuresTotal counts failed provider searches.
	// Labels: source (openalex, crossref, semanticscholar)
	SourceFailuresTotal *prometheus.CounterVec

	// GatherDurationSeconds measures end-to-end gather latency.
	// Labels: endpoint (section, document)
	GatherDurationSeconds *prometheus.HistogramVec

	// CandidatesReturned measures how many references came back per
	// section. A sustained drift toward zero means the providers or the
	// filters need attention.
	// Labels: endpoint (section, document)
	CandidatesReturned *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance of GatherMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *GatherMetrics

// NewGatherMetrics creates and registers the metric set on reg.
//
// # Inputs
//
//   - reg: The Prometheus registerer to attach to. Tests pass an isolated
//     registry; production passes the default one via InitMetrics().
//
// # Outputs
//
//   - *GatherMetrics: The registered metrics instance.
//
// # Limitations
//
//   - Panics on duplicate registration against the same registerer.
func NewGatherMetrics(reg prometheus.Registerer) *GatherMetrics {
	factory := promauto.With(reg)
	return &GatherMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: gatherSubsystem,
				Name:      "requests_total",
				Help:      "Total number of gather requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		SourceFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: gatherSubsystem,
				Name:      "source_failures_total",
				Help:      "Total failed provider searches by provider",
			},
			[]string{"source"},
		),

		GatherDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: gatherSubsystem,
				Name:      "duration_seconds",
				Help:      "End-to-end gather latency in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"endpoint"},
		),

		CandidatesReturned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: gatherSubsystem,
				Name:      "candidates_returned",
				Help:      "References returned per gathered section",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 50},
			},
			[]string{"endpoint"},
		),
	}
}

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics on the default registry.
// Should be called once at application startup.
//
// # Outputs
//
//   - *GatherMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *GatherMetrics {
	DefaultMetrics = NewGatherMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents a gather endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointSection is the single-section gather endpoint.
	EndpointSection Endpoint = "section"

	// EndpointDocument is the whole-outline gather endpoint.
	EndpointDocument Endpoint = "document"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed gather request.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - success: Whether the request completed successfully.
func (m *GatherMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordSourceFailure records one failed provider search.
//
// # Inputs
//
//   - source: The provider whose search call failed.
func (m *GatherMetrics) RecordSourceFailure(source string) {
	m.SourceFailuresTotal.WithLabelValues(source).Inc()
}

// RecordDuration records the end-to-end gather latency.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - seconds: Wall-clock duration in seconds.
func (m *GatherMetrics) RecordDuration(endpoint Endpoint, seconds float64) {
	m.GatherDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordCandidates records how many references a section gather returned.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - count: Number of references returned.
func (m *GatherMetrics) RecordCandidates(endpoint Endpoint, count int) {
	m.CandidatesReturned.WithLabelValues(string(endpoint)).Observe(float64(count))
}
