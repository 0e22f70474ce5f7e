// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package artifact persists generated SQL as timestamped files.
//
// File names have second granularity. Two writes with the same prefix in the
// same second target the same path and the later one wins.
package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "sqlpilot/cli/internal/errors"
)

const (
	fileTimeLayout   = "20060102_150405"
	headerTimeLayout = "2006-01-02 15:04:05"
)

// Separator closes the header block.
var Separator = "--" + strings.Repeat("-", 50)

// Writer writes SQL artifacts into a directory.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time
	log    *slog.Logger
}

// Option customizes a Writer.
type Option func(*Writer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithPrefix sets the default file name prefix.
func WithPrefix(prefix string) Option {
	return func(w *Writer) { w.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// NewWriter creates a writer for dir. The directory is created lazily.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir: dir,
		now: time.Now,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores sql with a header naming description and returns the path.
func (w *Writer) Write(sql, description string) (string, error) {
	return w.WriteWithPrefix(sql, description, w.prefix)
}

// WriteWithPrefix is Write with an explicit file name prefix.
func (w *Writer) WriteWithPrefix(sql, description, prefix string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errs.Wrap(errs.ArtifactWrite, "cannot create output directory "+w.dir, err)
	}

	ts := w.now()
	path := filepath.Join(w.dir, FileName(prefix, ts))
	if err := os.WriteFile(path, []byte(Render(sql, description, ts)), 0o644); err != nil {
		return "", errs.Wrap(errs.ArtifactWrite, "cannot write "+path, err)
	}
	w.log.Debug("sql artifact written", "path", path, "bytes", len(sql))
	return path, nil
}

// FileName returns "<prefix_>YYYYMMDD_HHMMSS.sql".
func FileName(prefix string, ts time.Time) string {
	if prefix != "" {
		prefix += "_"
	}
	return prefix + ts.Format(fileTimeLayout) + ".sql"
}

// Render returns the full file content.
func Render(sql, description string, ts time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Description: %s\n", oneLine(description))
	fmt.Fprintf(&b, "-- Generated at: %s\n", ts.Format(headerTimeLayout))
	b.WriteString(Separator)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(sql))
	b.WriteString("\n")
	return b.String()
}

// Body strips the header block from rendered content.
func Body(content string) string {
	if i := strings.Index(content, Separator+"\n"); i >= 0 {
		return strings.TrimSpace(content[i+len(Separator)+1:])
	}
	return strings.TrimSpace(content)
}

// StripMarkdown returns the SQL inside the first ``` fence of model output,
// or the trimmed output when it has no fence.
func StripMarkdown(value string) string {
	trimmed := strings.TrimSpace(value)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	// Drop the info string (```sql, ```SQL, ```hive ...).
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(rest, "```"))
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// oneLine keeps multi-line descriptions inside the comment header.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
