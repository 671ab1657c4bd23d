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
	"math"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/papermill-ai/papermill/services/llm"
	"github.com/papermill-ai/papermill/services/refs"
	"github.com/papermill-ai/papermill/services/sources"
)

var scorerTracer = otel.Tracer("papermill.gather.scorer")

// Composite score weights. They are intentionally unnormalized: the base
// case sums to 0.85/1.0 and topic lock pushes relevance past it via the
// lexical vocabulary bonus, so relevance dominates ranking under lock.
// Renormalizing would silently change relative rankings.
const (
	weightRelevanceDefault   = 0.50
	weightRelevanceTopicLock = 0.65
	weightCredibility        = 0.25
	weightRecency            = 0.10
)

const (
	// rerankBatchSize is how many lexical leaders get a model rating.
	rerankBatchSize = 20
	// modelRerankTimeout bounds the rerank call.
	modelRerankTimeout = 30 * time.Second
)

// providerCredibilityBonus rewards records from curated registries.
// Crossref entries are registrar-of-record metadata, OpenAlex aggregates
// curated indexes, Semantic Scholar mixes in crawled preprints.
var providerCredibilityBonus = map[string]int{
	sources.NameCrossref:        15,
	sources.NameOpenAlex:        12,
	sources.NameSemanticScholar: 10,
}

// Scorer computes composite ranking scores for filtered candidates.
type Scorer struct {
	client llm.LLMClient
	logger *slog.Logger
	// now is injectable so recency tests are deterministic.
	now func() time.Time
}

// NewScorer creates a scorer. client may be nil when model reranking is
// never requested.
func NewScorer(client llm.LLMClient, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{client: client, logger: logger, now: time.Now}
}

// Score returns a new slice sorted descending by composite score, with
// credibility and score annotated on every candidate. Ties keep the input
// encounter order. With useModelRerank false the result is a pure function
// of the inputs.
func (s *Scorer) Score(ctx context.Context, candidates []refs.Candidate, scoringContext string, useModelRerank, topicLock bool) []refs.Candidate {
	ctx, span := scorerTracer.Start(ctx, "Scorer.Score")
	defer span.End()
	span.SetAttributes(
		attribute.Int("score.candidates", len(candidates)),
		attribute.Bool("score.model_rerank", useModelRerank),
		attribute.Bool("score.topic_lock", topicLock),
	)

	if len(candidates) == 0 {
		return nil
	}

	ctxTokens := refs.TokenSet(scoringContext)
	lexical := make([]float64, len(candidates))
	for i := range candidates {
		lexical[i] = lexicalRelevance(ctxTokens, &candidates[i], topicLock)
	}

	relevance := lexical
	if useModelRerank && s.client != nil {
		relevance = s.blendModelRelevance(ctx, candidates, lexical, scoringContext, topicLock)
	}

	weightRelevance := weightRelevanceDefault
	if topicLock {
		weightRelevance = weightRelevanceTopicLock
	}

	nowYear := s.now().Year()
	scored := make([]refs.Candidate, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		cred := credibilityScore(&scored[i])
		rec := recencyScore(scored[i].Year, nowYear)
		scored[i].Credibility = cred
		scored[i].Score = weightRelevance*relevance[i] + weightCredibility*float64(cred) + weightRecency*rec
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// lexicalRelevance is the token-overlap score in [0,100]:
// |intersection| / sqrt(|ctx| * |txt|) * 100, with the denominator floored
// at 1, plus the topic-lock vocabulary bonus of min(30, 6*hits).
func lexicalRelevance(ctxTokens map[string]struct{}, c *refs.Candidate, topicLock bool) float64 {
	text := c.Title + " " + c.Source + " " + c.Summary
	txtTokens := refs.TokenSet(text)

	overlap := 0
	for tok := range txtTokens {
		if _, ok := ctxTokens[tok]; ok {
			overlap++
		}
	}

	denom := math.Sqrt(float64(len(ctxTokens)) * float64(len(txtTokens)))
	if denom < 1 {
		denom = 1
	}
	score := float64(overlap) / denom * 100
	if score > 100 {
		score = 100
	}

	if topicLock {
		bonus := 6 * float64(vocabHits(text))
		if bonus > 30 {
			bonus = 30
		}
		score += bonus
		if score > 100 {
			score = 100
		}
	}
	return score
}

// blendModelRelevance asks the collaborator to rate the lexical top 20 and
// overlays those ratings on the lexical scores. Candidates the model skips,
// or a failed call, keep their lexical score.
func (s *Scorer) blendModelRelevance(ctx context.Context, candidates []refs.Candidate, lexical []float64, scoringContext string, topicLock bool) []float64 {
	// Rank indices by lexical score to pick the rerank batch.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return lexical[order[a]] > lexical[order[b]] })
	if len(order) > rerankBatchSize {
		order = order[:rerankBatchSize]
	}

	ratings, err := s.modelRatings(ctx, candidates, order, scoringContext, topicLock)
	if err != nil {
		s.logger.Warn("model rerank failed, keeping lexical relevance", "error", err)
		return lexical
	}

	blended := make([]float64, len(lexical))
	copy(blended, lexical)
	for pos, score := range ratings {
		// Positions are 1-based into the batch ordering.
		if pos >= 1 && pos <= len(order) {
			blended[order[pos-1]] = score
		}
	}
	return blended
}

// modelRatings performs the rerank call and parses the position-keyed
// score map.
func (s *Scorer) modelRatings(ctx context.Context, candidates []refs.Candidate, order []int, scoringContext string, topicLock bool) (map[int]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, modelRerankTimeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("Rate each reference 0-100 for relevance to the context. ")
	if topicLock {
		sb.WriteString("Give low scores to references not clearly about AI or machine learning. ")
	}
	sb.WriteString("Respond with only a JSON object mapping position to score, e.g. {\"1\": 85}.\n\nContext:\n")
	sb.WriteString(scoringContext)
	sb.WriteString("\n\nReferences:\n")
	for i, idx := range order {
		c := &candidates[idx]
		summary := c.Summary
		if len(summary) > 200 {
			summary = summary[:200]
		}
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, c.Title, summary)
	}

	temp := float32(0)
	raw, err := s.client.Generate(ctx, sb.String(), llm.GenerationParams{Temperature: &temp})
	if err != nil {
		return nil, fmt.Errorf("rerank call failed: %w", err)
	}
	ratings, err := llm.DecodePositionScores(raw)
	if err != nil {
		return nil, fmt.Errorf("rerank output unusable: %w", err)
	}
	return ratings, nil
}

// credibilityScore is the provenance heuristic: base 50, +20 for a DOI,
// +10 for a venue, plus the per-provider bonus, clamped to [0,100].
func credibilityScore(c *refs.Candidate) int {
	score := 50
	if strings.TrimSpace(c.DOI) != "" {
		score += 20
	}
	if strings.TrimSpace(c.Source) != "" {
		score += 10
	}
	score += providerCredibilityBonus[c.Kind]
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// recencyScore buckets the distance from the current year. Unknown years
// sit at the neutral midpoint.
func recencyScore(year, nowYear int) float64 {
	if year <= 0 {
		return 50
	}
	age := nowYear - year
	if age < 0 {
		age = -age
	}
	switch {
	case age <= 1:
		return 100
	case age <= 3:
		return 85
	case age <= 5:
		return 70
	case age <= 10:
		return 55
	default:
		return 40
	}
}
