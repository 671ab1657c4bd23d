// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONBlock pulls the first JSON value out of model output.
//
// Models routinely wrap JSON in markdown fences or lead with a sentence of
// prose despite instructions. This helper strips fences and scans for the
// first balanced {...} or [...] block. Returns "" when no block exists;
// callers treat that the same as a parse failure.
func ExtractJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip a leading markdown fence (``` or ```json) and its closer.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:] // drop the language hint line
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := -1
	var open, close rune
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			open = r
			close = '}'
			if r == '[' {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range s[start:] {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case !inString && r == open:
			depth++
		case !inString && r == close:
			depth--
			if depth == 0 {
				return s[start : start+i+1]
			}
		}
	}
	return ""
}

// DecodeStringList parses model output expected to be a JSON array of
// strings. Blank entries are dropped after trimming.
func DecodeStringList(raw string) ([]string, error) {
	block := ExtractJSONBlock(raw)
	if block == "" {
		return nil, fmt.Errorf("no JSON array in model output")
	}
	var items []string
	if err := json.Unmarshal([]byte(block), &items); err != nil {
		return nil, fmt.Errorf("model output is not a string array: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// DecodePositionScores parses model output expected to be a JSON object
// mapping 1-based positions to numeric scores, e.g. {"1": 85, "2": 40}.
// Non-numeric keys and out-of-range values are dropped rather than failing
// the whole map.
func DecodePositionScores(raw string) (map[int]float64, error) {
	block := ExtractJSONBlock(raw)
	if block == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	var loose map[string]json.Number
	if err := json.Unmarshal([]byte(block), &loose); err != nil {
		return nil, fmt.Errorf("model output is not a score map: %w", err)
	}
	scores := make(map[int]float64, len(loose))
	for key, num := range loose {
		var pos int
		if _, err := fmt.Sscanf(strings.TrimSpace(key), "%d", &pos); err != nil || pos < 1 {
			continue
		}
		val, err := num.Float64()
		if err != nil || val < 0 || val > 100 {
			continue
		}
		scores[pos] = val
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("score map contained no usable entries")
	}
	return scores, nil
}
