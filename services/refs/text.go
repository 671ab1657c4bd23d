// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup from provider abstracts (Crossref ships JATS
// fragments, some indexes ship raw HTML) and collapses the remaining
// whitespace. Entities are unescaped before tags are removed so that
// "&lt;p&gt;" does not survive as a tag.
func StripHTML(s string) string {
	s = html.UnescapeString(s)
	s = htmlTagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// Tokenize splits text into lowercase tokens of letters and digits.
// Tokens of a single rune are dropped; they carry no relevance signal and
// inflate the denominator of the overlap score.
func Tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tok := current.String()
			if len([]rune(tok)) > 1 {
				tokens = append(tokens, tok)
			}
			current.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// TokenSet returns the unique tokens of the text.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// ContainsCJK reports whether the text contains any CJK codepoint.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// LooksEnglish is the fallback language judgment for candidates whose
// provider did not report a language tag.
//
// The heuristic rejects text containing any CJK codepoint, or whose
// Latin-letter density is below 50% of all letters. Text with no letters at
// all passes: there is nothing to judge, and the validity filter handles
// degenerate records separately.
func LooksEnglish(s string) bool {
	if ContainsCJK(s) {
		return false
	}
	var letters, latin int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Latin, r) {
				latin++
			}
		}
	}
	if letters == 0 {
		return true
	}
	return float64(latin)/float64(letters) >= 0.5
}
