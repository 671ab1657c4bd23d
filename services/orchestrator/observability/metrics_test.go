// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics creates a GatherMetrics instance with an isolated registry
// to avoid conflicts with the global Prometheus registry and to allow
// parallel testing.
func newTestMetrics(t *testing.T) *GatherMetrics {
	t.Helper()
	return NewGatherMetrics(prometheus.NewRegistry())
}

// TestRecordRequest verifies success and error outcomes land on distinct
// status labels.
func TestRecordRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRequest(EndpointSection, true)
	m.RecordRequest(EndpointSection, true)
	m.RecordRequest(EndpointSection, false)
	m.RecordRequest(EndpointDocument, true)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("section", "success")); got != 2 {
		t.Errorf("section success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("section", "error")); got != 1 {
		t.Errorf("section error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("document", "success")); got != 1 {
		t.Errorf("document success count = %v, want 1", got)
	}
}

// TestRecordSourceFailure verifies per-provider failure accounting.
func TestRecordSourceFailure(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSourceFailure("crossref")
	m.RecordSourceFailure("crossref")
	m.RecordSourceFailure("openalex")

	if got := testutil.ToFloat64(m.SourceFailuresTotal.WithLabelValues("crossref")); got != 2 {
		t.Errorf("crossref failure count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SourceFailuresTotal.WithLabelValues("openalex")); got != 1 {
		t.Errorf("openalex failure count = %v, want 1", got)
	}
}

// TestRecordDuration verifies latency observations are collected.
func TestRecordDuration(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDuration(EndpointSection, 1.5)
	m.RecordDuration(EndpointSection, 4.0)

	if got := testutil.CollectAndCount(m.GatherDurationSeconds); got != 1 {
		t.Errorf("duration series count = %v, want 1", got)
	}
}

// TestRecordCandidates verifies candidate count observations are collected
// per endpoint.
func TestRecordCandidates(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCandidates(EndpointSection, 8)
	m.RecordCandidates(EndpointDocument, 0)

	if got := testutil.CollectAndCount(m.CandidatesReturned); got != 2 {
		t.Errorf("candidates series count = %v, want 2", got)
	}
}
