// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/papermill-ai/papermill/pkg/validation"
	"github.com/papermill-ai/papermill/services/gather"
	"github.com/papermill-ai/papermill/services/orchestrator/observability"
	"github.com/papermill-ai/papermill/services/refs"
)

// SectionGatherRequest is the payload for POST /v1/references/gather.
type SectionGatherRequest struct {
	// Title is the document title anchoring every query.
	Title string `json:"title" binding:"required"`
	// Outline is the document outline, one entry per line. Optional.
	Outline string `json:"outline"`
	// SectionKey names the section to gather references for.
	SectionKey string `json:"section_key" binding:"required"`
	// Options are the gathering knobs; zero values get defaults.
	Options gather.Options `json:"options"`
}

// DocumentGatherRequest is the payload for
// POST /v1/references/gather/document.
type DocumentGatherRequest struct {
	Title       string         `json:"title" binding:"required"`
	Outline     string         `json:"outline"`
	SectionKeys []string       `json:"section_keys" binding:"required,min=1"`
	Options     gather.Options `json:"options"`
}

// SectionGatherResponse carries the ranked references for one section.
type SectionGatherResponse struct {
	RequestID  string           `json:"request_id"`
	SectionKey string           `json:"section_key"`
	Count      int              `json:"count"`
	References []refs.Candidate `json:"references"`
}

// DocumentGatherResponse carries per-section reference lists for a whole
// outline.
type DocumentGatherResponse struct {
	RequestID string                      `json:"request_id"`
	Sections  map[string][]refs.Candidate `json:"sections"`
}

// gatherHandlers bundles the HTTP handlers with their collaborators.
type gatherHandlers struct {
	svc     *gather.Service
	metrics *observability.GatherMetrics
	logger  *slog.Logger
}

func newGatherHandlers(svc *gather.Service, metrics *observability.GatherMetrics, logger *slog.Logger) *gatherHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &gatherHandlers{svc: svc, metrics: metrics, logger: logger}
}

// registerRoutes attaches the gather endpoints to the router.
func (h *gatherHandlers) registerRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	v1.POST("/references/gather", h.handleGatherSection)
	v1.POST("/references/gather/document", h.handleGatherDocument)
}

// handleGatherSection gathers ranked references for a single section.
//
// # Outputs
//   - 200 with a SectionGatherResponse. Provider and model failures never
//     surface as HTTP errors; a degraded gather returns fewer references.
//   - 400 when the payload fails validation.
func (h *gatherHandlers) handleGatherSection(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	var req SectionGatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordRequest(observability.EndpointSection, false)
		c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}
	if err := validation.ValidateSectionKey(req.SectionKey); err != nil {
		h.recordRequest(observability.EndpointSection, false)
		c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}

	title := validation.SanitizeSeed(req.Title)
	references := h.svc.GatherForSection(c.Request.Context(), title, req.Outline, req.SectionKey, req.Options)

	h.recordRequest(observability.EndpointSection, true)
	if h.metrics != nil {
		h.metrics.RecordDuration(observability.EndpointSection, time.Since(start).Seconds())
		h.metrics.RecordCandidates(observability.EndpointSection, len(references))
	}
	h.logger.Info("gather section request served",
		"request_id", requestID,
		"section", req.SectionKey,
		"count", len(references),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.JSON(http.StatusOK, SectionGatherResponse{
		RequestID:  requestID,
		SectionKey: req.SectionKey,
		Count:      len(references),
		References: references,
	})
}

// handleGatherDocument gathers references for every listed section.
func (h *gatherHandlers) handleGatherDocument(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	var req DocumentGatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordRequest(observability.EndpointDocument, false)
		c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}
	if err := validation.ValidateSectionKeys(req.SectionKeys); err != nil {
		h.recordRequest(observability.EndpointDocument, false)
		c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}

	title := validation.SanitizeSeed(req.Title)
	sections := h.svc.GatherForOutline(c.Request.Context(), title, req.Outline, req.SectionKeys, req.Options)

	total := 0
	for _, list := range sections {
		total += len(list)
	}
	h.recordRequest(observability.EndpointDocument, true)
	if h.metrics != nil {
		h.metrics.RecordDuration(observability.EndpointDocument, time.Since(start).Seconds())
		h.metrics.RecordCandidates(observability.EndpointDocument, total)
	}
	h.logger.Info("gather document request served",
		"request_id", requestID,
		"sections", len(req.SectionKeys),
		"count", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.JSON(http.StatusOK, DocumentGatherResponse{
		RequestID: requestID,
		Sections:  sections,
	})
}

func (h *gatherHandlers) recordRequest(endpoint observability.Endpoint, success bool) {
	if h.metrics != nil {
		h.metrics.RecordRequest(endpoint, success)
	}
}
