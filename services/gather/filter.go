// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gather

import (
	"regexp"
	"strings"

	"github.com/papermill-ai/papermill/services/refs"
)

const (
	minTitleLength = 5
	minURLLength   = 10
)

// searchURLPattern rejects links that point at a provider's results page
// rather than a work. A search URL is never a citable reference.
var searchURLPattern = regexp.MustCompile(`/search\?|/search/|\?q=|&q=`)

// suspiciousTitlePhrases are placeholder strings that generative drafting
// tools leave behind in place of a real title.
var suspiciousTitlePhrases = []string{
	"suggested research direction",
	"related research literature",
	"relevant literature",
	"placeholder",
	"example reference",
	"to be added",
}

// suspiciousAuthorWords are role words standing in for a real author list.
var suspiciousAuthorWords = []string{
	"researcher",
	"database",
	"various authors",
	"unknown author",
	"editorial team",
}

// FilterCandidates applies the normalization pipeline to the pooled fetch
// results: language filter, dedupe, validity filter, and (under topic lock)
// the vocabulary filter, in that order.
//
// Fallback: if the language/topic narrowing leaves nothing, the narrowing
// is discarded and dedupe(validity(rawPool)) is returned instead, truncated
// to the requested count. An empty result set is worse than a topically
// loose one; dedupe and validity are never skipped.
func FilterCandidates(pool []refs.Candidate, opts Options) []refs.Candidate {
	filtered := pool
	narrowed := false

	if opts.Language != "" {
		filtered = languageFilter(filtered, opts.Language)
		narrowed = true
	}
	filtered = validityFilter(dedupeCandidates(filtered))
	if opts.TopicLock {
		filtered = topicLockFilter(filtered)
		narrowed = true
	}

	if len(filtered) == 0 && narrowed && len(pool) > 0 {
		relaxed := validityFilter(dedupeCandidates(pool))
		if len(relaxed) > opts.Need && opts.Need > 0 {
			relaxed = relaxed[:opts.Need]
		}
		return relaxed
	}
	return filtered
}

// isEnglishTarget reports whether the requested language is the English
// discriminator. Only English has a text heuristic; anything else matches
// tags verbatim.
func isEnglishTarget(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "english", "en":
		return true
	default:
		return false
	}
}

// languageFilter drops candidates that fail the target language. An
// explicit language tag is always trusted over the text heuristic.
func languageFilter(in []refs.Candidate, language string) []refs.Candidate {
	english := isEnglishTarget(language)
	target := strings.ToLower(strings.TrimSpace(language))

	out := make([]refs.Candidate, 0, len(in))
	for _, c := range in {
		if c.Language != "" {
			tag := strings.ToLower(c.Language)
			if english {
				if tag == "en" || strings.HasPrefix(tag, "en-") {
					out = append(out, c)
				}
			} else if tag == target {
				out = append(out, c)
			}
			continue
		}
		// No tag: only English has a defined heuristic, other targets
		// keep untagged candidates rather than guessing.
		if !english || refs.LooksEnglish(c.Title+" "+c.Summary) {
			out = append(out, c)
		}
	}
	return out
}

// dedupeCandidates keeps the first-seen candidate per identity key,
// preserving order. Candidates with no identity at all are dropped; they
// could never be cited.
func dedupeCandidates(in []refs.Candidate) []refs.Candidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]refs.Candidate, 0, len(in))
	for _, c := range in {
		key := c.IdentityKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// validityFilter rejects structurally invalid or suspicious records.
func validityFilter(in []refs.Candidate) []refs.Candidate {
	out := make([]refs.Candidate, 0, len(in))
	for _, c := range in {
		if isValidCandidate(&c) {
			out = append(out, c)
		}
	}
	return out
}

func isValidCandidate(c *refs.Candidate) bool {
	if len(strings.TrimSpace(c.Title)) < minTitleLength {
		return false
	}
	if len(strings.TrimSpace(c.URL)) < minURLLength {
		return false
	}
	if searchURLPattern.MatchString(c.URL) {
		return false
	}
	title := strings.ToLower(c.Title)
	for _, phrase := range suspiciousTitlePhrases {
		if strings.Contains(title, phrase) {
			return false
		}
	}
	authors := strings.ToLower(c.Authors)
	for _, word := range suspiciousAuthorWords {
		if strings.Contains(authors, word) {
			return false
		}
	}
	return true
}

// topicLockFilter keeps candidates whose combined text mentions at least
// one vocabulary term.
func topicLockFilter(in []refs.Candidate) []refs.Candidate {
	out := make([]refs.Candidate, 0, len(in))
	for _, c := range in {
		if vocabHits(c.Title+" "+c.Summary+" "+c.Source) > 0 {
			out = append(out, c)
		}
	}
	return out
}
