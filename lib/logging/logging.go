// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the *slog.Logger a host application hands to
// the SDK.
//
// The SDK never configures process-wide logging. A host describes what
// it wants in a [Config] (severity level and output format), calls
// [New], and passes the result to messaging.ServerConfig. Nothing here
// calls slog.SetDefault.
//
// Formats:
//
//   - "tint": colored human-readable output (lmittmann/tint)
//   - "text": slog.TextHandler
//   - "json": slog.JSONHandler, for log collectors
//   - "auto" (or empty): tint when the writer is a terminal, JSON otherwise
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats accepted by Config.Format.
const (
	FormatAuto = "auto"
	FormatTint = "tint"
	FormatText = "text"
	FormatJSON = "json"
)

// Config describes a logger.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`

	// Format is one of the Format constants. Empty means auto.
	Format string `yaml:"format"`

	// AddSource includes the source file and line in each record.
	AddSource bool `yaml:"add_source"`
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q (want debug, info, warn, or error)", name)
	}
}

// New builds a logger writing to w according to config.
func New(config Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(config.Format)
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatTint
		}
	}

	var handler slog.Handler
	switch format {
	case FormatTint:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  config.AddSource,
			NoColor:    !isTerminal(w),
		})
	case FormatText:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: config.AddSource})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: config.AddSource})
	default:
		return nil, fmt.Errorf("logging: unknown format %q (want auto, tint, text, or json)", config.Format)
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
