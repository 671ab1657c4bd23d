// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// Tests for the Papermill gather service HTTP layer.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papermill-ai/papermill/services/gather"
	"github.com/papermill-ai/papermill/services/refs"
	"github.com/papermill-ai/papermill/services/sources"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock provider ---

type mockSource struct {
	name    string
	results []refs.Candidate
	err     error
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Search(_ context.Context, _ string, limit int, _ sources.FetchOptions) ([]refs.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]refs.Candidate, 0, len(m.results))
	for _, c := range m.results {
		c.Kind = m.name
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func newTestRouter(srcs ...sources.Source) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := gather.NewService(srcs, gather.NewExpander(nil, logger), gather.NewScorer(nil, logger), logger)
	router := gin.New()
	newGatherHandlers(svc, nil, logger).registerRoutes(router)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestHandleGatherSection verifies a valid request returns ranked
// references tagged with the section key.
func TestHandleGatherSection(t *testing.T) {
	src := &mockSource{name: "openalex", results: []refs.Candidate{
		{Title: "Efficient Attention Mechanisms", URL: "https://example.org/papers/1", Year: 2024},
	}}
	router := newTestRouter(src)

	rec := postJSON(t, router, "/v1/references/gather", SectionGatherRequest{
		Title:      "Efficient Transformers",
		SectionKey: "Background",
		Options:    gather.Options{Need: 5},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SectionGatherResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "Background", resp.SectionKey)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Background", resp.References[0].SectionKey)
	assert.Equal(t, "Efficient Attention Mechanisms", resp.References[0].Title)
}

// TestHandleGatherSectionValidation verifies missing required fields are a
// 400, not a degraded gather.
func TestHandleGatherSectionValidation(t *testing.T) {
	router := newTestRouter(&mockSource{name: "openalex"})

	rec := postJSON(t, router, "/v1/references/gather", map[string]any{
		"outline": "1. Intro",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleGatherSectionBadKey verifies a section key with control
// characters is rejected before any provider is contacted.
func TestHandleGatherSectionBadKey(t *testing.T) {
	router := newTestRouter(&mockSource{name: "openalex"})

	rec := postJSON(t, router, "/v1/references/gather", SectionGatherRequest{
		Title:      "Efficient Transformers",
		SectionKey: "Background\nResults",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleGatherSectionProviderFailure verifies a failing provider still
// yields a 200 with whatever the rest produced.
func TestHandleGatherSectionProviderFailure(t *testing.T) {
	router := newTestRouter(&mockSource{name: "openalex", err: errors.New("upstream down")})

	rec := postJSON(t, router, "/v1/references/gather", SectionGatherRequest{
		Title:      "Efficient Transformers",
		SectionKey: "Background",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SectionGatherResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
}

// TestHandleGatherDocument verifies the batch endpoint keys references by
// section.
func TestHandleGatherDocument(t *testing.T) {
	src := &mockSource{name: "openalex", results: []refs.Candidate{
		{Title: "A Paper for Every Section", URL: "https://example.org/papers/1", Year: 2024},
	}}
	router := newTestRouter(src)

	rec := postJSON(t, router, "/v1/references/gather/document", DocumentGatherRequest{
		Title:       "Doc Title",
		Outline:     "1. Intro\n2. Methods",
		SectionKeys: []string{"Intro", "Methods"},
		Options:     gather.Options{Need: 3},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DocumentGatherResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sections, 2)
	assert.Len(t, resp.Sections["Intro"], 1)
	assert.Len(t, resp.Sections["Methods"], 1)
}

// TestHandleGatherDocumentValidation verifies an empty section list is
// rejected.
func TestHandleGatherDocumentValidation(t *testing.T) {
	router := newTestRouter(&mockSource{name: "openalex"})

	rec := postJSON(t, router, "/v1/references/gather/document", map[string]any{
		"title":        "Doc Title",
		"section_keys": []string{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
