// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mxlog provides the structured logger shared by every component
// that touches a managed file, a lock, or a rebuild.
package mxlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// Standard field keys for structured logging. These constants ensure
// consistent field naming across the core.
const (
	// FileKey is the field key for a managed file's path.
	FileKey = "file"
	// OptionKey is the field key for a dotted option path.
	OptionKey = "option"
	// TransactionKey is the field key for a transaction's description.
	TransactionKey = "transaction"
	// OperationKey is the field key for the mutator operation being applied.
	OperationKey = "operation"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - MX_LOG_LEVEL: debug, info, warn, error (default: info)
//   - MX_LOG_FORMAT: json, text (default: json)
//   - MX_LOG_SOURCE: 1 to enable source file/line (default: 0)
func FromEnv() *Config {
	cfg := DefaultConfig()

	if level := os.Getenv("MX_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}
	if format := os.Getenv("MX_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}
	if os.Getenv("MX_LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithFile returns a new logger scoped to a managed file's path.
func WithFile(logger *slog.Logger, path string) *slog.Logger {
	return logger.With(slog.String(FileKey, path))
}

// WithTransaction returns a new logger scoped to a transaction's description.
func WithTransaction(logger *slog.Logger, description string) *slog.Logger {
	return logger.With(slog.String(TransactionKey, description))
}

// WithOption returns a new logger scoped to a dotted option path and the
// mutator operation being applied to it.
func WithOption(logger *slog.Logger, option, operation string) *slog.Logger {
	return logger.With(
		slog.String(OptionKey, option),
		slog.String(OperationKey, operation),
	)
}
