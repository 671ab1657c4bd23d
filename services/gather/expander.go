// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/papermill-ai/papermill/services/llm"
)

var expanderTracer = otel.Tracer("papermill.gather.expander")

const (
	// maxQueriesDeterministic caps the query set when only the
	// deterministic expansion runs.
	maxQueriesDeterministic = 4
	// maxQueriesWithModel caps the merged set after model expansion.
	maxQueriesWithModel = 6
	// modelExpansionTimeout bounds the expansion call. Expansion is a
	// nicety, so the deadline is short.
	modelExpansionTimeout = 20 * time.Second
)

// topicLockVariants are the fixed domain-reinforcing suffixes appended to
// the seed under topic lock, in order. They guarantee topic coverage even
// when the model step fails.
var topicLockVariants = []string{
	"Artificial Intelligence",
	"machine learning",
	"deep learning",
}

// Expander turns a seed topic into a small set of search queries.
type Expander struct {
	client llm.LLMClient
	logger *slog.Logger
}

// NewExpander creates an expander. client may be nil when model expansion
// is never requested.
func NewExpander(client llm.LLMClient, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{client: client, logger: logger}
}

// Expand returns 1-6 non-empty deduplicated queries, always leading with
// the seed.
//
// With topic lock, the three fixed domain variants follow the seed before
// any model involvement. With model expansion, up to three model-suggested
// queries are merged in; any model failure degrades silently to the
// deterministic set. Without model expansion the set is capped at 4.
func (e *Expander) Expand(ctx context.Context, seed string, useModel, topicLock bool) []string {
	ctx, span := expanderTracer.Start(ctx, "Expander.Expand")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("expand.model", useModel),
		attribute.Bool("expand.topic_lock", topicLock),
	)

	queries := []string{seed}
	if topicLock {
		for _, variant := range topicLockVariants {
			queries = append(queries, strings.TrimSpace(seed)+" "+variant)
		}
	}
	queries = dedupeQueries(queries)

	if !useModel || e.client == nil {
		queries = capQueries(queries, maxQueriesDeterministic)
		span.SetAttributes(attribute.Int("expand.count", len(queries)))
		return queries
	}

	extra, err := e.modelQueries(ctx, seed, topicLock)
	if err != nil {
		e.logger.Warn("model query expansion failed, using deterministic set", "error", err)
		queries = capQueries(queries, maxQueriesDeterministic)
		span.SetAttributes(attribute.Int("expand.count", len(queries)))
		return queries
	}

	queries = capQueries(dedupeQueries(append(queries, extra...)), maxQueriesWithModel)
	span.SetAttributes(attribute.Int("expand.count", len(queries)))
	return queries
}

// modelQueries asks the collaborator for up to 3 additional compact search
// queries, as a JSON string array.
func (e *Expander) modelQueries(ctx context.Context, seed string, topicLock bool) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, modelExpansionTimeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("Propose up to 3 alternative compact search queries for finding academic references about the topic below. ")
	if topicLock {
		sb.WriteString("Every query must include an AI or machine learning term. ")
	}
	sb.WriteString("Respond with only a JSON array of strings.\n\nTopic: ")
	sb.WriteString(seed)

	temp := float32(0.4)
	raw, err := e.client.Generate(ctx, sb.String(), llm.GenerationParams{Temperature: &temp})
	if err != nil {
		return nil, fmt.Errorf("expansion call failed: %w", err)
	}

	items, err := llm.DecodeStringList(raw)
	if err != nil {
		return nil, fmt.Errorf("expansion output unusable: %w", err)
	}
	if len(items) > 3 {
		items = items[:3]
	}
	return items, nil
}

// dedupeQueries trims, drops empties, and keeps the first occurrence of
// each query, case-insensitively.
func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

func capQueries(queries []string, max int) []string {
	if len(queries) > max {
		return queries[:max]
	}
	return queries
}
