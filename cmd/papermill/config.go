// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/papermill-ai/papermill/pkg/logging"
)

// Config is the CLI configuration, loaded from a YAML file. Every field has
// a working default, so the file is optional.
type Config struct {
	// Logging controls the CLI's structured log output.
	Logging logging.Config `yaml:"logging"`

	// LLMBackend selects the model backend: "openai", "ollama", or
	// "none". The pipeline runs deterministically without one.
	LLMBackend string `yaml:"llm_backend" validate:"omitempty,oneof=openai ollama none"`

	// Sources lists the enabled metadata providers in priority order.
	// Empty means all known providers.
	Sources []string `yaml:"sources"`

	// FetchTimeoutSeconds bounds each provider search call.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" validate:"omitempty,gte=1,lte=300"`
}

var configValidator = validator.New()

// LoadConfig reads and validates the config file at path. A missing file is
// not an error; it yields the zero config and its defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := configValidator.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
