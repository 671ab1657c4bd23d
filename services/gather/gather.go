// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gather runs the reference pipeline for a document section: expand
// the section seed into search queries, fan out to the metadata providers,
// filter the merged pool, and rank what survives.
//
// # Description
// Service is the section orchestrator. A gather call never fails because a
// provider or the language model failed; it returns whatever the degraded
// pipeline could still produce, down to an empty slice.
package gather

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/papermill-ai/papermill/services/refs"
	"github.com/papermill-ai/papermill/services/sources"
)

var gatherTracer = otel.Tracer("papermill.gather")

const (
	// defaultFetchTimeout bounds each provider search call.
	defaultFetchTimeout = 12 * time.Second
	// minPerQueryNeed keeps narrow fan-outs from starving the pool.
	minPerQueryNeed = 2
	// maxHintLength caps the outline snippet folded into the seed.
	maxHintLength = 160
)

// Service orchestrates reference gathering across providers.
type Service struct {
	sources  []sources.Source
	expander *Expander
	scorer   *Scorer
	logger   *slog.Logger

	fetchTimeout time.Duration

	// OnSourceFailure is called with the provider name whenever a search
	// call fails. Used by the HTTP layer to count failures; may be nil.
	OnSourceFailure func(source string)
}

// NewService wires the orchestrator from its collaborators.
//
// # Inputs
//   - srcs: providers to fan out to, in priority order.
//   - expander: query expander; required.
//   - scorer: relevance scorer; required.
//   - logger: structured logger; nil falls back to slog.Default.
func NewService(srcs []sources.Source, expander *Expander, scorer *Scorer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sources:      srcs,
		expander:     expander,
		scorer:       scorer,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
	}
}

// SetFetchTimeout overrides the per-provider call deadline.
func (s *Service) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		s.fetchTimeout = d
	}
}

// GatherForSection produces up to opts.Need ranked candidates for one
// section of a document.
//
// # Inputs
//   - title: document title; anchors every query and the scoring context.
//   - outline: full document outline, one entry per line.
//   - sectionKey: the section heading to gather for.
//   - opts: gathering knobs; zero values get defaults.
//
// # Outputs
//   - Ranked candidates, best first, each tagged with sectionKey. Never an
//     error: provider and model failures degrade the pool instead.
func (s *Service) GatherForSection(ctx context.Context, title, outline, sectionKey string, opts Options) []refs.Candidate {
	ctx, span := gatherTracer.Start(ctx, "Service.GatherForSection")
	defer span.End()
	span.SetAttributes(
		attribute.String("gather.section", sectionKey),
		attribute.Bool("gather.topic_lock", opts.TopicLock),
	)

	opts = opts.normalized()

	hint := sectionHint(outline, sectionKey)
	seed := strings.TrimSpace(title + " " + sectionKey + " " + hint)
	queries := s.expander.Expand(ctx, seed, opts.UseModelExpansion, opts.TopicLock)
	if len(queries) == 0 {
		queries = []string{seed}
	}

	pool := s.fetchPool(ctx, queries, opts)
	span.SetAttributes(attribute.Int("gather.pool_size", len(pool)))

	filtered := FilterCandidates(pool, opts)

	scoringContext := title + "\n" + hint
	if opts.TopicLock {
		scoringContext += " " + contextVocabSuffix
	}
	ranked := s.scorer.Score(ctx, filtered, scoringContext, opts.UseModelRerank, opts.TopicLock)

	if len(ranked) > opts.Need {
		ranked = ranked[:opts.Need]
	}
	for i := range ranked {
		ranked[i].SectionKey = sectionKey
		ranked[i].Kind = ""
		ranked[i].Score = 0
	}

	s.logger.Info("section gather complete",
		"section", sectionKey,
		"queries", len(queries),
		"pool", len(pool),
		"returned", len(ranked),
	)
	return ranked
}

// GatherForOutline gathers every listed section and keys the results by
// section. Sections run sequentially so provider rate limits see at most
// one section's fan-out at a time.
func (s *Service) GatherForOutline(ctx context.Context, title, outline string, sectionKeys []string, opts Options) map[string][]refs.Candidate {
	ctx, span := gatherTracer.Start(ctx, "Service.GatherForOutline")
	defer span.End()
	span.SetAttributes(attribute.Int("gather.sections", len(sectionKeys)))

	out := make(map[string][]refs.Candidate, len(sectionKeys))
	for _, key := range sectionKeys {
		out[key] = s.GatherForSection(ctx, title, outline, key, opts)
	}
	return out
}

// fetchPool fans out queries x sources concurrently and flattens the
// results in logical loop order (query-major, then source), so the merged
// pool is deterministic regardless of completion order. Failed calls
// contribute an empty slot.
func (s *Service) fetchPool(ctx context.Context, queries []string, opts Options) []refs.Candidate {
	perQueryNeed := int(math.Ceil(float64(opts.Need) / float64(len(queries))))
	if perQueryNeed < minPerQueryNeed {
		perQueryNeed = minPerQueryNeed
	}
	fetchOpts := opts.fetchOptions()
	active := s.activeSources(opts.Sources)

	results := make([][]refs.Candidate, len(queries)*len(active))
	g, gctx := errgroup.WithContext(ctx)
	for qi, query := range queries {
		for si, src := range active {
			slot := qi*len(active) + si
			query, src := query, src
			g.Go(func() error {
				callCtx, cancel := context.WithTimeout(gctx, s.fetchTimeout)
				defer cancel()
				found, err := src.Search(callCtx, query, perQueryNeed, fetchOpts)
				if err != nil {
					s.logger.Warn("source search failed",
						"source", src.Name(),
						"query", query,
						"error", err,
					)
					if s.OnSourceFailure != nil {
						s.OnSourceFailure(src.Name())
					}
					return nil
				}
				results[slot] = found
				return nil
			})
		}
	}
	// Workers always return nil; Wait only orders the slot writes.
	_ = g.Wait()

	var pool []refs.Candidate
	for _, batch := range results {
		pool = append(pool, batch...)
	}
	return pool
}

// activeSources resolves the caller's provider selection against the wired
// registry, in the caller's priority order. Unknown names are skipped; an
// empty or fully unknown selection means all wired providers.
func (s *Service) activeSources(names []string) []sources.Source {
	if len(names) == 0 {
		return s.sources
	}
	byName := make(map[string]sources.Source, len(s.sources))
	for _, src := range s.sources {
		byName[src.Name()] = src
	}
	active := make([]sources.Source, 0, len(names))
	for _, name := range names {
		if src, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			active = append(active, src)
		}
	}
	if len(active) == 0 {
		return s.sources
	}
	return active
}

// sectionHint finds the outline line for sectionKey, strips any leading
// numbering or bullet, and caps it at maxHintLength runes.
func sectionHint(outline, sectionKey string) string {
	if outline == "" || sectionKey == "" {
		return ""
	}
	key := strings.ToLower(sectionKey)
	for _, line := range strings.Split(outline, "\n") {
		trimmed := strings.TrimSpace(line)
		stripped := strings.TrimLeft(trimmed, "0123456789.-*• \t")
		if strings.HasPrefix(strings.ToLower(stripped), key) {
			hint := strings.TrimSpace(stripped)
			runes := []rune(hint)
			if len(runes) > maxHintLength {
				hint = string(runes[:maxHintLength])
			}
			return hint
		}
	}
	return ""
}
