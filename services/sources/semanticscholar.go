// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/papermill-ai/papermill/services/refs"
)

// defaultSemanticScholarURL is the public Semantic Scholar Graph API root.
const defaultSemanticScholarURL = "https://api.semanticscholar.org"

// semanticScholarFields is the field projection requested for every search.
const semanticScholarFields = "title,abstract,year,authors,venue,externalIds,url,publicationTypes"

// --- Semantic Scholar response structs ---

type semanticScholarResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	Title            string   `json:"title"`
	Abstract         string   `json:"abstract"`
	Year             int      `json:"year"`
	Venue            string   `json:"venue"`
	URL              string   `json:"url"`
	PublicationTypes []string `json:"publicationTypes"`
	ExternalIDs      struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// SemanticScholar fetches papers from the Semantic Scholar Graph API.
type SemanticScholar struct {
	client  *http.Client
	baseURL string
}

// NewSemanticScholar creates an adapter against the public API.
func NewSemanticScholar(client *http.Client) *SemanticScholar {
	return &SemanticScholar{client: client, baseURL: defaultSemanticScholarURL}
}

// NewSemanticScholarWithBaseURL creates an adapter against a custom endpoint.
func NewSemanticScholarWithBaseURL(client *http.Client, baseURL string) *SemanticScholar {
	return &SemanticScholar{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name implements Source.
func (s *SemanticScholar) Name() string { return NameSemanticScholar }

// Search implements Source. Semantic Scholar supports a year-range filter
// in "from-to" form; language is not filterable server-side.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int, opts FetchOptions) ([]refs.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", requestRows(limit)))
	params.Set("fields", semanticScholarFields)
	if opts.FromYear > 0 || opts.ToYear > 0 {
		params.Set("year", yearRangeParam(opts.FromYear, opts.ToYear))
	}

	var resp semanticScholarResponse
	endpoint := s.baseURL + "/graph/v1/paper/search?" + params.Encode()
	if err := getJSON(ctx, s.client, s.Name(), endpoint, &resp); err != nil {
		return nil, err
	}

	candidates := make([]refs.Candidate, 0, len(resp.Data))
	for _, paper := range resp.Data {
		candidates = append(candidates, s.toCandidate(paper))
	}
	return candidates, nil
}

// yearRangeParam renders the provider's "2019-2024" / "2019-" / "-2024"
// year filter syntax.
func yearRangeParam(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	default:
		return fmt.Sprintf("-%d", to)
	}
}

// toCandidate maps one Semantic Scholar paper onto the shared shape.
func (s *SemanticScholar) toCandidate(p semanticScholarPaper) refs.Candidate {
	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		authors = append(authors, a.Name)
	}

	var docType string
	if len(p.PublicationTypes) > 0 {
		docType = p.PublicationTypes[0]
	}

	return refs.Candidate{
		Title:   strings.TrimSpace(p.Title),
		URL:     p.URL,
		DOI:     refs.NormalizeDOI(p.ExternalIDs.DOI),
		Source:  p.Venue,
		Authors: refs.JoinAuthors(authors),
		Year:    p.Year,
		Type:    refs.CoarseType(docType),
		Summary: refs.StripHTML(p.Abstract),
		Kind:    NameSemanticScholar,
	}
}
