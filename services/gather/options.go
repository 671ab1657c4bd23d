// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gather

import "github.com/papermill-ai/papermill/services/sources"

// defaultNeed is the per-section reference count when the caller does not
// specify one.
const defaultNeed = 8

// Options controls one gather call. Every behavior toggle is an explicit
// field here; the pipeline reads no process-wide state, so tests and
// callers can flip features per call.
type Options struct {
	// Need is the number of references requested for the section.
	Need int `json:"need" binding:"omitempty,gte=1,lte=50" validate:"omitempty,gte=1,lte=50"`

	// Sources names the enabled providers in dedup-priority order.
	// Empty means all known providers. Supplying at least one valid
	// source is the caller's responsibility.
	Sources []string `json:"sources,omitempty"`

	// UseModelExpansion widens the query set with model-suggested
	// alternatives. Degrades silently to the deterministic set.
	UseModelExpansion bool `json:"use_model_expansion"`

	// UseModelRerank blends a model relevance rating into the composite
	// score. Degrades silently to lexical-only relevance.
	UseModelRerank bool `json:"use_model_rerank"`

	// TopicLock constrains expansion, filtering, and scoring to the
	// AI/ML vocabulary.
	TopicLock bool `json:"topic_lock"`

	// Language is the target language filter. "English" is the only
	// discriminator with defined heuristics; other values match tags
	// verbatim.
	Language string `json:"language,omitempty"`

	// Region, FromYear, ToYear, and DocumentTypes are provider-side
	// filter hints, forwarded to fetchers that support them.
	Region        string   `json:"region,omitempty"`
	FromYear      int      `json:"from_year,omitempty" binding:"omitempty,gte=1000,lte=3000" validate:"omitempty,gte=1000,lte=3000"`
	ToYear        int      `json:"to_year,omitempty" binding:"omitempty,gte=1000,lte=3000" validate:"omitempty,gte=1000,lte=3000"`
	DocumentTypes []string `json:"document_types,omitempty"`
}

// normalized returns a copy with defaults applied.
func (o Options) normalized() Options {
	if o.Need <= 0 {
		o.Need = defaultNeed
	}
	if len(o.Sources) == 0 {
		o.Sources = sources.AllNames()
	}
	return o
}

// fetchOptions projects the provider-side hints.
func (o Options) fetchOptions() sources.FetchOptions {
	lang := ""
	if isEnglishTarget(o.Language) {
		lang = "en"
	}
	return sources.FetchOptions{
		Language:      lang,
		FromYear:      o.FromYear,
		ToYear:        o.ToYear,
		Region:        o.Region,
		DocumentTypes: o.DocumentTypes,
	}
}
