// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sources

import (
	"context"

	"github.com/papermill-ai/papermill/services/refs"
)

// GoogleScholar is a placeholder adapter. Google Scholar has no public
// search API and scraping it violates its terms of service, so this
// provider satisfies the Source contract by contributing nothing.
//
// The adapter exists so that caller configurations listing the provider
// keep working unchanged if a licensed backend becomes available.
type GoogleScholar struct{}

// NewGoogleScholar creates the stub adapter.
func NewGoogleScholar() *GoogleScholar { return &GoogleScholar{} }

// Name implements Source.
func (g *GoogleScholar) Name() string { return NameGoogleScholar }

// Search implements Source. Always returns no candidates and no error.
func (g *GoogleScholar) Search(ctx context.Context, query string, limit int, opts FetchOptions) ([]refs.Candidate, error) {
	return nil, nil
}
