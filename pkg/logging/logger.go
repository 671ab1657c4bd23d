// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging configuration shared by the
// service binaries and the CLI.
//
// # Description
//
// This package is a thin layer over log/slog. It exists so every binary
// resolves level, format, and destination the same way instead of each main
// assembling its own handler.
//
// # Usage
//
//	logger := logging.New(logging.Config{Level: "debug", Format: "text"})
//	logger.Info("starting up", "port", port)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction. The zero value means JSON at info
// level on stdout.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Unknown values
	// fall back to info.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is "json" or "text". Unknown values fall back to json.
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`

	// Output overrides the destination. Nil means stdout.
	Output io.Writer `yaml:"-"`
}

// parseLevel maps the config string onto a slog level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from config.
func New(config Config) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(config.Format), "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// Default builds the production logger, installs it as the process default,
// and returns it.
func Default() *slog.Logger {
	logger := New(Config{})
	slog.SetDefault(logger)
	return logger
}
