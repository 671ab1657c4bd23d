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

// defaultCrossrefURL is the public Crossref REST API root.
const defaultCrossrefURL = "https://api.crossref.org"

// --- Crossref response structs ---

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI            string           `json:"DOI"`
	URL            string           `json:"URL"`
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Author         []crossrefAuthor `json:"author"`
	Issued         struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	Type     string `json:"type"`
	Abstract string `json:"abstract"`
	Language string `json:"language"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // organizations carry a single name field
}

// Crossref fetches works from the Crossref DOI registry.
type Crossref struct {
	client  *http.Client
	baseURL string
}

// NewCrossref creates a Crossref adapter against the public API.
func NewCrossref(client *http.Client) *Crossref {
	return &Crossref{client: client, baseURL: defaultCrossrefURL}
}

// NewCrossrefWithBaseURL creates an adapter against a custom endpoint.
func NewCrossrefWithBaseURL(client *http.Client, baseURL string) *Crossref {
	return &Crossref{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name implements Source.
func (c *Crossref) Name() string { return NameCrossref }

// Search implements Source. Crossref has no language filter; only the year
// range is pushed server-side.
func (c *Crossref) Search(ctx context.Context, query string, limit int, opts FetchOptions) ([]refs.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", fmt.Sprintf("%d", requestRows(limit)))

	var filters []string
	if opts.FromYear > 0 {
		filters = append(filters, fmt.Sprintf("from-pub-date:%d-01-01", opts.FromYear))
	}
	if opts.ToYear > 0 {
		filters = append(filters, fmt.Sprintf("until-pub-date:%d-12-31", opts.ToYear))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	var resp crossrefResponse
	if err := getJSON(ctx, c.client, c.Name(), c.baseURL+"/works?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	candidates := make([]refs.Candidate, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		candidates = append(candidates, c.toCandidate(item))
	}
	return candidates, nil
}

// toCandidate maps one Crossref item onto the shared candidate shape.
// Crossref abstracts arrive as JATS XML fragments and are stripped here.
func (c *Crossref) toCandidate(item crossrefItem) refs.Candidate {
	var title, venue string
	if len(item.Title) > 0 {
		title = strings.TrimSpace(item.Title[0])
	}
	if len(item.ContainerTitle) > 0 {
		venue = item.ContainerTitle[0]
	}

	link := item.URL
	if link == "" && item.DOI != "" {
		link = "https://doi.org/" + item.DOI
	}

	authors := make([]string, 0, len(item.Author))
	for _, a := range item.Author {
		switch {
		case a.Name != "":
			authors = append(authors, a.Name)
		case a.Given != "" || a.Family != "":
			authors = append(authors, strings.TrimSpace(a.Given+" "+a.Family))
		}
	}

	var year int
	if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
		year = item.Issued.DateParts[0][0]
	}

	return refs.Candidate{
		Title:    title,
		URL:      link,
		DOI:      refs.NormalizeDOI(item.DOI),
		Source:   venue,
		Authors:  refs.JoinAuthors(authors),
		Year:     year,
		Type:     refs.CoarseType(item.Type),
		Summary:  refs.StripHTML(item.Abstract),
		Language: strings.ToLower(item.Language),
		Kind:     NameCrossref,
	}
}
