// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"path/filepath"
	"strings"
)

var sqliteSchemes = []string{"sqlite://", "sqlite3://", "file:"}

var sqliteExts = map[string]bool{".db": true, ".sqlite": true, ".sqlite3": true}

// SQLiteResolver handles sqlite:// URLs and bare database file paths.
type SQLiteResolver struct{}

// NewSQLiteResolver creates a SQLiteResolver.
func NewSQLiteResolver() *SQLiteResolver {
	return &SQLiteResolver{}
}

// Parse extracts the file path and query parameters.
func (r *SQLiteResolver) Parse(dsn string) (*Info, error) {
	rest := dsn
	for _, s := range sqliteSchemes {
		if strings.HasPrefix(strings.ToLower(dsn), s) {
			rest = dsn[len(s):]
			break
		}
	}
	path, query, _ := strings.Cut(rest, "?")
	if strings.TrimSpace(path) == "" {
		return nil, NewParseError(dsn, "missing database file", "use sqlite:///path/to/file.db")
	}

	info := &Info{Type: SQLite, Database: path, Params: map[string]string{}, Original: dsn}
	for _, param := range strings.Split(query, "&") {
		if k, v, ok := strings.Cut(param, "="); ok {
			info.Params[k] = v
		}
	}
	return info, nil
}

// DriverDSN renders a read-only file: URI for modernc.org/sqlite.
func (r *SQLiteResolver) DriverDSN(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil URL info", "")
	}
	params := &Info{Params: map[string]string{"mode": "ro"}}
	for k, v := range info.Params {
		params.Params[k] = v
	}
	return "file:" + filepath.ToSlash(info.Database) + "?" + params.sortedParams(), nil
}

func isSQLitePath(dsn string) bool {
	if strings.Contains(dsn, "://") {
		return false
	}
	path, _, _ := strings.Cut(dsn, "?")
	return sqliteExts[strings.ToLower(filepath.Ext(path))]
}
