// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gather

import "strings"

// topicVocabulary is the AI/ML term list used by topic lock: the filter
// keeps candidates matching at least one term, and the scorer pays a bonus
// per distinct hit. Terms are matched as lowercase substrings.
var topicVocabulary = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"large language model",
	"llm",
	"transformer",
	"bert",
	"gpt",
	"reinforcement learning",
	"natural language processing",
	"nlp",
	"computer vision",
	"generative",
	"diffusion model",
	"fine-tuning",
	"attention mechanism",
	"embedding",
}

// contextVocabSuffix is appended to the scoring context under topic lock so
// that lexical overlap rewards on-topic candidates even when the section
// hint itself never names the domain.
const contextVocabSuffix = "artificial intelligence machine learning deep learning large language model transformer"

// vocabHits counts how many distinct vocabulary terms appear in the text.
func vocabHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, term := range topicVocabulary {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return hits
}
