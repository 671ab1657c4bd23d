// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papermill-ai/papermill/services/refs"
)

// TestFilterDedupesByDOI verifies that two records sharing a DOI collapse to
// the first-seen one even when their URLs differ.
func TestFilterDedupesByDOI(t *testing.T) {
	pool := []refs.Candidate{
		{
			Title: "Attention Is All You Need",
			DOI:   "10.5555/3295222",
			URL:   "https://dl.acm.org/doi/10.5555/3295222",
		},
		{
			Title: "Attention Is All You Need (mirror)",
			DOI:   "https://doi.org/10.5555/3295222",
			URL:   "https://papers.example.org/attention",
		},
	}

	got := FilterCandidates(pool, Options{Need: 8})

	require.Len(t, got, 1)
	assert.Equal(t, "Attention Is All You Need", got[0].Title)
}

// TestFilterRejectsSearchURLs verifies that results-page links are dropped.
func TestFilterRejectsSearchURLs(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "A Survey of Graph Networks", URL: "https://scholar.example.com/search?q=graph+networks"},
		{Title: "Graph Attention Networks", URL: "https://arxiv.org/abs/1710.10903"},
	}

	got := FilterCandidates(pool, Options{Need: 8})

	require.Len(t, got, 1)
	assert.Equal(t, "Graph Attention Networks", got[0].Title)
}

// TestFilterRejectsPlaceholders verifies that placeholder titles and role
// authors are dropped.
func TestFilterRejectsPlaceholders(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "Suggested Research Direction on NLP", URL: "https://example.org/papers/1"},
		{Title: "A Real Paper on NLP", Authors: "Various Authors", URL: "https://example.org/papers/2"},
		{Title: "Robust Speech Recognition", Authors: "A. Radford", URL: "https://example.org/papers/3"},
		{Title: "Tiny", URL: "https://example.org/papers/4"},
	}

	got := FilterCandidates(pool, Options{Need: 8})

	require.Len(t, got, 1)
	assert.Equal(t, "Robust Speech Recognition", got[0].Title)
}

// TestFilterLanguageTagTrumpsHeuristic verifies an explicit language tag
// overrides the text heuristic in both directions.
func TestFilterLanguageTagTrumpsHeuristic(t *testing.T) {
	pool := []refs.Candidate{
		// Tagged English despite a CJK title: kept.
		{Title: "深層学習による画像認識", Language: "en", URL: "https://example.org/papers/1"},
		// Tagged French despite an English title: dropped.
		{Title: "Deep Residual Learning for Images", Language: "fr", URL: "https://example.org/papers/2"},
		// Untagged CJK text: heuristic drops it.
		{Title: "ニューラルネットワークの最適化手法に関する研究", URL: "https://example.org/papers/3"},
		// Untagged English text: heuristic keeps it.
		{Title: "Scaling Laws for Neural Language Models", URL: "https://example.org/papers/4"},
	}

	got := FilterCandidates(pool, Options{Need: 8, Language: "English"})

	require.Len(t, got, 2)
	assert.Equal(t, "深層学習による画像認識", got[0].Title)
	assert.Equal(t, "Scaling Laws for Neural Language Models", got[1].Title)
}

// TestFilterNonEnglishTargetKeepsUntagged verifies that targets without a
// text heuristic keep untagged candidates and match tags verbatim.
func TestFilterNonEnglishTargetKeepsUntagged(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "Apprentissage profond pour la vision", Language: "fr", URL: "https://example.org/papers/1"},
		{Title: "Deep Learning for Vision", Language: "en", URL: "https://example.org/papers/2"},
		{Title: "Réseaux de neurones convolutifs", URL: "https://example.org/papers/3"},
	}

	got := FilterCandidates(pool, Options{Need: 8, Language: "fr"})

	require.Len(t, got, 2)
	assert.Equal(t, "Apprentissage profond pour la vision", got[0].Title)
	assert.Equal(t, "Réseaux de neurones convolutifs", got[1].Title)
}

// TestFilterTopicLock verifies that under topic lock only candidates
// mentioning the vocabulary survive.
func TestFilterTopicLock(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "Transformer Models for Code", URL: "https://example.org/papers/1"},
		{Title: "Soil Erosion in River Deltas", URL: "https://example.org/papers/2"},
		{Title: "Crop Yields", Summary: "A machine learning approach to yield prediction.", URL: "https://example.org/papers/3"},
	}

	got := FilterCandidates(pool, Options{Need: 8, TopicLock: true})

	require.Len(t, got, 2)
	assert.Equal(t, "Transformer Models for Code", got[0].Title)
	assert.Equal(t, "Crop Yields", got[1].Title)
}

// TestFilterFallbackWhenNarrowingEmpties verifies the relaxed fallback: if
// topic narrowing leaves nothing, the deduped valid pool comes back
// truncated to the requested count.
func TestFilterFallbackWhenNarrowingEmpties(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "Soil Erosion in River Deltas", URL: "https://example.org/papers/1"},
		{Title: "Sediment Transport Models", URL: "https://example.org/papers/2"},
		{Title: "Coastal Flooding Dynamics", URL: "https://example.org/papers/3"},
	}

	got := FilterCandidates(pool, Options{Need: 2, TopicLock: true})

	require.Len(t, got, 2)
	assert.Equal(t, "Soil Erosion in River Deltas", got[0].Title)
	assert.Equal(t, "Sediment Transport Models", got[1].Title)
}

// TestFilterNoFallbackWithoutNarrowing verifies that a pool emptied purely
// by validity checks stays empty; the fallback only undoes narrowing.
func TestFilterNoFallbackWithoutNarrowing(t *testing.T) {
	pool := []refs.Candidate{
		{Title: "x", URL: "https://example.org/papers/1"},
		{Title: "Placeholder entry", URL: "short"},
	}

	got := FilterCandidates(pool, Options{Need: 8})

	assert.Empty(t, got)
}
