// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ExtractJSONBlock Tests
// =============================================================================

// TestExtractJSONBlock verifies extraction across the forms models actually
// emit: bare JSON, fenced JSON, and JSON embedded in prose.
func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"1": 90}`,
			want: `{"1": 90}`,
		},
		{
			name: "bare array",
			in:   `["a", "b"]`,
			want: `["a", "b"]`,
		},
		{
			name: "markdown fence with language hint",
			in:   "```json\n[\"a\"]\n```",
			want: `["a"]`,
		},
		{
			name: "prose before and after",
			in:   `Sure! Here are the queries: ["x", "y"] Hope that helps.`,
			want: `["x", "y"]`,
		},
		{
			name: "nested structures balanced",
			in:   `{"a": {"b": [1, 2]}} trailing`,
			want: `{"a": {"b": [1, 2]}}`,
		},
		{
			name: "braces inside strings ignored",
			in:   `{"a": "closing } inside"}`,
			want: `{"a": "closing } inside"}`,
		},
		{
			name: "no JSON at all",
			in:   "I cannot help with that.",
			want: "",
		},
		{
			name: "unbalanced block",
			in:   `{"a": 1`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONBlock(tt.in))
		})
	}
}

// =============================================================================
// DecodeStringList Tests
// =============================================================================

func TestDecodeStringList(t *testing.T) {
	t.Run("valid list with blanks dropped", func(t *testing.T) {
		got, err := DecodeStringList("```json\n[\"alpha\", \"  \", \"beta \"]\n```")
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, got)
	})

	t.Run("object instead of array fails", func(t *testing.T) {
		_, err := DecodeStringList(`{"not": "a list"}`)
		require.Error(t, err)
	})

	t.Run("no JSON fails", func(t *testing.T) {
		_, err := DecodeStringList("nothing here")
		require.Error(t, err)
	})
}

// =============================================================================
// DecodePositionScores Tests
// =============================================================================

func TestDecodePositionScores(t *testing.T) {
	t.Run("valid map", func(t *testing.T) {
		got, err := DecodePositionScores(`{"1": 85, "2": 40.5, "3": 0}`)
		require.NoError(t, err)
		assert.Equal(t, map[int]float64{1: 85, 2: 40.5, 3: 0}, got)
	})

	t.Run("bad keys and out-of-range values dropped", func(t *testing.T) {
		got, err := DecodePositionScores(`{"1": 70, "abc": 50, "0": 60, "2": 150, "3": -5}`)
		require.NoError(t, err)
		assert.Equal(t, map[int]float64{1: 70}, got)
	})

	t.Run("nothing usable fails", func(t *testing.T) {
		_, err := DecodePositionScores(`{"abc": 300}`)
		require.Error(t, err)
	})

	t.Run("array instead of object fails", func(t *testing.T) {
		_, err := DecodePositionScores(`[1, 2, 3]`)
		require.Error(t, err)
	})
}
