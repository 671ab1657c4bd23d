// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-supplied
// document fields.
//
// Section keys and seed topics flow from client requests into search queries
// and log lines. Using these validators keeps control characters and
// oversized inputs out of both.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// maxSectionKeyLength bounds section headings. Anything longer is a
	// pasted paragraph, not a heading.
	maxSectionKeyLength = 120

	// maxSeedLength bounds seed topics forwarded to search providers.
	maxSeedLength = 500
)

// ValidateSectionKey validates a section heading.
//
// Valid keys:
//   - 1-120 characters after trimming
//   - no control characters
//
// Returns an error if the key is invalid.
//
// Example:
//
//	if err := validation.ValidateSectionKey(key); err != nil {
//	    return nil, fmt.Errorf("invalid section key: %w", err)
//	}
func ValidateSectionKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("section key cannot be empty")
	}
	if len(trimmed) > maxSectionKeyLength {
		return fmt.Errorf("section key too long: %d characters (max %d)", len(trimmed), maxSectionKeyLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("section key contains control characters")
		}
	}
	return nil
}

// ValidateSectionKeys validates multiple section headings.
// Returns an error listing all invalid keys if any fail validation.
func ValidateSectionKeys(keys []string) error {
	var invalid []string
	for _, k := range keys {
		if err := ValidateSectionKey(k); err != nil {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid section keys: %v", invalid)
	}
	return nil
}

// SanitizeSeed normalizes a seed topic: control characters become spaces,
// runs of whitespace collapse to one space, and the result is trimmed and
// capped.
//
// Use this on any free-text field before it joins a search query:
//
//	seed := validation.SanitizeSeed(userInput)
func SanitizeSeed(seed string) string {
	var sb strings.Builder
	sb.Grow(len(seed))
	lastSpace := true
	for _, r := range seed {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			if !lastSpace {
				sb.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		sb.WriteRune(r)
		lastSpace = false
	}
	out := strings.TrimSpace(sb.String())
	runes := []rune(out)
	if len(runes) > maxSeedLength {
		out = strings.TrimSpace(string(runes[:maxSeedLength]))
	}
	return out
}
