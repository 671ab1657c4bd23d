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
	"sort"
	"strings"

	"github.com/papermill-ai/papermill/services/refs"
)

// defaultOpenAlexURL is the public OpenAlex API root.
const defaultOpenAlexURL = "https://api.openalex.org"

// --- OpenAlex response structs ---

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string              `json:"id"`
	DOI             string              `json:"doi"`
	DisplayName     string              `json:"display_name"`
	PublicationYear int                 `json:"publication_year"`
	Language        string              `json:"language"`
	Type            string              `json:"type"`
	PrimaryLocation *openAlexLocation   `json:"primary_location"`
	Authorships     []openAlexAuthor    `json:"authorships"`
	AbstractIndex   map[string][]int    `json:"abstract_inverted_index"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	Source         *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

type openAlexAuthor struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// OpenAlex fetches works from the OpenAlex scholarly index.
type OpenAlex struct {
	client  *http.Client
	baseURL string
}

// NewOpenAlex creates an OpenAlex adapter against the public API.
func NewOpenAlex(client *http.Client) *OpenAlex {
	return &OpenAlex{client: client, baseURL: defaultOpenAlexURL}
}

// NewOpenAlexWithBaseURL creates an adapter against a custom endpoint.
// Used by tests and by deployments that proxy OpenAlex.
func NewOpenAlexWithBaseURL(client *http.Client, baseURL string) *OpenAlex {
	return &OpenAlex{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name implements Source.
func (o *OpenAlex) Name() string { return NameOpenAlex }

// Search implements Source.
//
// Year and language filters map onto OpenAlex's filter expression; they are
// hints, the pipeline filter remains authoritative.
func (o *OpenAlex) Search(ctx context.Context, query string, limit int, opts FetchOptions) ([]refs.Candidate, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("per-page", fmt.Sprintf("%d", requestRows(limit)))

	var filters []string
	if opts.FromYear > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", opts.FromYear))
	}
	if opts.ToYear > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", opts.ToYear))
	}
	if opts.Language != "" {
		filters = append(filters, "language:"+opts.Language)
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	var resp openAlexResponse
	if err := getJSON(ctx, o.client, o.Name(), o.baseURL+"/works?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	candidates := make([]refs.Candidate, 0, len(resp.Results))
	for _, work := range resp.Results {
		candidates = append(candidates, o.toCandidate(work))
	}
	return candidates, nil
}

// toCandidate maps one OpenAlex work onto the shared candidate shape.
func (o *OpenAlex) toCandidate(w openAlexWork) refs.Candidate {
	var link, venue string
	if w.PrimaryLocation != nil {
		link = w.PrimaryLocation.LandingPageURL
		if w.PrimaryLocation.Source != nil {
			venue = w.PrimaryLocation.Source.DisplayName
		}
	}
	if link == "" && w.DOI != "" {
		link = w.DOI // OpenAlex DOIs are full resolver URLs
	}
	if link == "" {
		link = w.ID
	}

	authors := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		authors = append(authors, a.Author.DisplayName)
	}

	return refs.Candidate{
		Title:    strings.TrimSpace(w.DisplayName),
		URL:      link,
		DOI:      refs.NormalizeDOI(w.DOI),
		Source:   venue,
		Authors:  refs.JoinAuthors(authors),
		Year:     w.PublicationYear,
		Type:     refs.CoarseType(w.Type),
		Summary:  reconstructAbstract(w.AbstractIndex),
		Language: strings.ToLower(w.Language),
		Kind:     NameOpenAlex,
	}
}

// reconstructAbstract rebuilds plain abstract text from OpenAlex's inverted
// index representation ({word: [positions...]}). Positions index into the
// original token stream.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type positioned struct {
		pos  int
		word string
	}
	var tokens []positioned
	for word, positions := range index {
		for _, p := range positions {
			tokens = append(tokens, positioned{pos: p, word: word})
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })

	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.word
	}
	return refs.StripHTML(strings.Join(words, " "))
}
