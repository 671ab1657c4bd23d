// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sources implements the per-provider fetcher adapters for the
// reference gathering pipeline.
//
// Each adapter issues one search query against a bibliographic metadata API
// and maps the provider's response schema into the shared refs.Candidate
// shape. All provider-specific (and untyped) response handling is isolated
// inside the adapter; nothing upstream of this package sees raw provider
// JSON.
//
// # Error Contract
//
// Adapters return ([]refs.Candidate, error) with a typed *FetchError on any
// network, status, or decode failure. Keeping the error visible here lets
// tests assert on failure modes; the gather orchestrator collapses errors
// to an empty contribution at its boundary, so a failing provider can never
// abort a gather call.
//
// # Provider-Side Filters
//
// Year-range and language filters are passed to providers that support them
// as an optimization hint only. The pipeline's own normalizer/filter stage
// is the source of truth; adapters make no filtering guarantees.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/papermill-ai/papermill/services/refs"
)

// userAgent identifies us to provider APIs. Both OpenAlex and Crossref ask
// for a contact address in the UA of polite clients.
const userAgent = "papermill/1.0 (mailto:oss@papermill.dev)"

// FetchOptions carries the caller's optional provider-side filter hints.
type FetchOptions struct {
	// Language is a lowercase tag such as "en". Providers that support a
	// language filter apply it server-side.
	Language string
	// FromYear and ToYear bound the publication year, inclusive. Zero
	// means unbounded.
	FromYear int
	ToYear   int
	// Region is carried for providers with regional corpora. None of the
	// current adapters use it server-side.
	Region string
	// DocumentTypes restricts results to coarse categories where the
	// provider supports it.
	DocumentTypes []string
}

// Source is the contract every fetcher adapter satisfies.
type Source interface {
	// Name returns the stable lowercase provider identifier. The scorer
	// keys its per-provider credibility bonus on this value.
	Name() string

	// Search runs one query against the provider and maps the response
	// into candidates. The adapter requests at least max(3, limit) raw
	// rows so that downstream filtering has slack to discard records.
	//
	// Errors are always *FetchError. A provider with nothing to return
	// yields (nil, nil).
	Search(ctx context.Context, query string, limit int, opts FetchOptions) ([]refs.Candidate, error)
}

// FetchError is the typed failure returned by every adapter.
//
// StatusCode is zero for transport-level failures (DNS, timeout, closed
// connection) and the HTTP status for non-2xx responses.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

// Error implements the error interface for FetchError.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch failed (status %d): %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError checks if an error is a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// requestRows is the raw row count requested from a provider: at least 3,
// so a tiny limit still leaves room for dedup and validity losses.
func requestRows(limit int) int {
	if limit < 3 {
		return 3
	}
	return limit
}

// getJSON performs a GET against the provider endpoint and decodes the body
// into out, wrapping every failure mode in a *FetchError attributed to
// source. The caller owns the request URL; this helper owns headers,
// status checking, and decoding.
func getJSON(ctx context.Context, client *http.Client, source, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{Source: source, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &FetchError{Source: source, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; provider
		// error bodies can be large.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Source: source, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Known provider names.
const (
	NameOpenAlex        = "openalex"
	NameCrossref        = "crossref"
	NameSemanticScholar = "semanticscholar"
	NameGoogleScholar   = "googlescholar"
)

// Build returns the adapters for the requested provider names, in the
// given order, skipping names it does not recognize. Order matters: the
// dedup stage keeps the first-seen record, so earlier providers win ties.
func Build(names []string, client *http.Client) []Source {
	if client == nil {
		client = http.DefaultClient
	}
	var out []Source
	for _, name := range names {
		switch name {
		case NameOpenAlex:
			out = append(out, NewOpenAlex(client))
		case NameCrossref:
			out = append(out, NewCrossref(client))
		case NameSemanticScholar:
			out = append(out, NewSemanticScholar(client))
		case NameGoogleScholar:
			out = append(out, NewGoogleScholar())
		}
	}
	return out
}

// AllNames lists every known provider in default priority order.
func AllNames() []string {
	return []string{NameOpenAlex, NameCrossref, NameSemanticScholar, NameGoogleScholar}
}
