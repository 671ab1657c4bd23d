// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const semanticScholarPayload = `{
  "data": [
    {
      "title": "BERT: Pre-training of Deep Bidirectional Transformers",
      "abstract": "We introduce a new language representation model.",
      "year": 2019,
      "venue": "NAACL",
      "url": "https://www.semanticscholar.org/paper/df2b2",
      "publicationTypes": ["Conference"],
      "externalIds": {"DOI": "10.18653/V1/N19-1423"},
      "authors": [{"name": "Jacob Devlin"}, {"name": "Ming-Wei Chang"}]
    }
  ]
}`

// TestSemanticScholar_Search_MapsFields verifies mapping including the
// field projection and year-range query parameters.
func TestSemanticScholar_Search_MapsFields(t *testing.T) {
	var gotFields, gotYear, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph/v1/paper/search", r.URL.Path)
		gotFields = r.URL.Query().Get("fields")
		gotYear = r.URL.Query().Get("year")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(semanticScholarPayload))
	}))
	defer srv.Close()

	src := NewSemanticScholarWithBaseURL(srv.Client(), srv.URL)
	candidates, err := src.Search(context.Background(), "bert", 1, FetchOptions{FromYear: 2018})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, semanticScholarFields, gotFields)
	assert.Equal(t, "2018-", gotYear)
	assert.Equal(t, "3", gotLimit, "raw request is at least 3 rows")

	c := candidates[0]
	assert.Equal(t, "BERT: Pre-training of Deep Bidirectional Transformers", c.Title)
	assert.Equal(t, "10.18653/v1/n19-1423", c.DOI)
	assert.Equal(t, "NAACL", c.Source)
	assert.Equal(t, "Jacob Devlin, Ming-Wei Chang", c.Authors)
	assert.Equal(t, 2019, c.Year)
	assert.Equal(t, NameSemanticScholar, c.Kind)
}

func TestYearRangeParam(t *testing.T) {
	assert.Equal(t, "2019-2024", yearRangeParam(2019, 2024))
	assert.Equal(t, "2019-", yearRangeParam(2019, 0))
	assert.Equal(t, "-2024", yearRangeParam(0, 2024))
}

// TestSemanticScholar_Search_Timeout verifies a transport-level failure
// (client timeout) surfaces as a *FetchError with no status code.
func TestSemanticScholar_Search_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	src := NewSemanticScholarWithBaseURL(srv.Client(), srv.URL)
	_, err := src.Search(ctx, "q", 5, FetchOptions{})
	require.Error(t, err)
	require.True(t, IsFetchError(err))
	assert.Zero(t, err.(*FetchError).StatusCode)
}
