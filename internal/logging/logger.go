// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps a config level name to a pterm log level.
func ParseLevel(name string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning", "":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	default:
		return pterm.LogLevelWarn, fmt.Errorf("unknown log level %q", name)
	}
}

// NewLogger returns a structured logger rendering through pterm into w.
// Attribute values are masked before they are written.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	pl := pterm.DefaultLogger.WithLevel(lvl).WithWriter(w)
	logger := slog.New(&maskingHandler{next: pterm.NewSlogHandler(pl)})
	if err != nil {
		logger.Warn("falling back to warn level", "error", err)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
