// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, parseLevel(tc.in), "level %q", tc.in)
	}
}

// TestNewJSONOutput verifies the default handler emits parseable JSON with
// the supplied attributes.
func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	logger.Info("gather complete", "section", "Methods", "count", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gather complete", entry["msg"])
	assert.Equal(t, "Methods", entry["section"])
	assert.Equal(t, float64(7), entry["count"])
}

// TestNewTextOutput verifies the text format produces key=value pairs.
func TestNewTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf})

	logger.Info("gather complete", "section", "Methods")

	out := buf.String()
	assert.Contains(t, out, "msg=")
	assert.Contains(t, out, "section=Methods")
}

// TestLevelFiltering verifies debug lines are suppressed at the default
// level and emitted at debug.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	logger.Debug("hidden detail")
	assert.Empty(t, strings.TrimSpace(buf.String()))

	buf.Reset()
	logger = New(Config{Level: "debug", Output: &buf})
	logger.Debug("visible detail")
	assert.Contains(t, buf.String(), "visible detail")
}
