// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package refs defines the bibliographic candidate datatypes shared by the
// source fetchers and the gathering pipeline.
//
// A Candidate is one discovered record, pre-persistence. Fetchers create
// candidates from raw provider responses; the gather pipeline annotates them
// with credibility and a ranking score, then strips the pipeline-internal
// fields before the record leaves the service.
package refs

import (
	"strings"
)

// Coarse reference categories. Providers report dozens of fine-grained
// types; callers only care about this handful.
const (
	TypeJournal    = "journal"
	TypeConference = "conference"
	TypeBook       = "book"
	TypePreprint   = "preprint"
	TypeOther      = "other"
)

// Candidate is one discovered bibliographic record.
//
// # Description
//
// Candidates flow through the pipeline by value and are never mutated after
// creation, except for the credibility/score annotation applied by the
// scorer. Kind and Score are pipeline bookkeeping: they are excluded from
// JSON encoding and zeroed by the orchestrator before candidates are
// returned to callers.
//
// # Fields
//
//   - SectionKey: outline section the record was gathered for. Empty until
//     orchestration completes.
//   - Title, URL: required for a record to survive the validity filter.
//   - DOI: normalized identifier, primary dedup key when present.
//   - Year: publication year, 0 when unknown. Year precision is all the
//     recency heuristic needs.
//   - Credibility: 0-100, computed by the scorer, never caller-supplied.
//   - Language: lowercase language tag, or empty when the provider did not
//     report one.
type Candidate struct {
	SectionKey  string `json:"section_key,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	DOI         string `json:"doi,omitempty"`
	Source      string `json:"source,omitempty"`
	Authors     string `json:"authors,omitempty"`
	Year        int    `json:"year,omitempty"`
	Type        string `json:"type,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Credibility int    `json:"credibility"`
	Language    string `json:"language,omitempty"`

	// Kind records which fetcher produced the candidate.
	Kind string `json:"-"`
	// Score is the composite ranking value assigned by the scorer.
	Score float64 `json:"-"`
}

// NormalizeDOI strips resolver prefixes and lowercases a DOI so that the
// same work reported by different providers yields the same identifier.
//
// Handles the forms providers actually emit: bare ("10.1/xyz"),
// resolver-prefixed ("https://doi.org/10.1/xyz"), and scheme-prefixed
// ("doi:10.1/xyz"). Returns "" for blank input.
func NormalizeDOI(doi string) string {
	d := strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(d, prefix) {
			d = strings.TrimPrefix(d, prefix)
			break
		}
	}
	return strings.TrimSpace(d)
}

// IdentityKey returns the dedup identity for the candidate.
//
// Priority follows the strength of the identifier: DOI, then URL, then the
// trimmed title, all case-insensitive. An empty key means the candidate has
// no usable identity and cannot be returned to callers.
func (c *Candidate) IdentityKey() string {
	if d := NormalizeDOI(c.DOI); d != "" {
		return "doi:" + d
	}
	if u := strings.TrimSpace(strings.ToLower(c.URL)); u != "" {
		return "url:" + u
	}
	if t := strings.TrimSpace(strings.ToLower(c.Title)); t != "" {
		return "title:" + t
	}
	return ""
}

// CoarseType maps a provider-specific document type onto the coarse
// categories above. Unrecognized types collapse to TypeOther.
func CoarseType(raw string) string {
	switch t := strings.ToLower(strings.TrimSpace(raw)); {
	case t == "":
		return TypeOther
	case strings.Contains(t, "journal") || t == "article":
		return TypeJournal
	case strings.Contains(t, "proceedings") || strings.Contains(t, "conference"):
		return TypeConference
	case strings.Contains(t, "book") || strings.Contains(t, "chapter") || strings.Contains(t, "monograph"):
		return TypeBook
	case strings.Contains(t, "preprint") || t == "posted-content" || t == "repository":
		return TypePreprint
	default:
		return TypeOther
	}
}

// JoinAuthors flattens a list of author display names into the free-text
// form stored on a candidate, dropping blanks.
func JoinAuthors(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, ", ")
}
