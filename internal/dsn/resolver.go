// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

const supportedHint = "use postgres://, mysql://, sqlite:// or a path to a .db file"

// DetectDBType detects the engine from a URL's scheme or a file extension.
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres
	case strings.HasPrefix(lower, "mysql://"):
		return MySQL
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "sqlite3://"), strings.HasPrefix(lower, "file:"):
		return SQLite
	case isSQLitePath(lower):
		return SQLite
	}
	return Unknown
}

// ResolverFor returns the resolver for t.
func ResolverFor(t DBType) (Resolver, bool) {
	switch t {
	case Postgres:
		return NewPostgresResolver(), true
	case MySQL:
		return NewMySQLResolver(), true
	case SQLite:
		return NewSQLiteResolver(), true
	}
	return nil, false
}

// ParseInfo parses a database URL of any supported engine.
func ParseInfo(dsn string) (*Info, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, NewParseError(dsn, "empty URL", "provide a database URL")
	}
	r, ok := ResolverFor(DetectDBType(dsn))
	if !ok {
		return nil, NewParseError(dsn, "unknown database type", supportedHint)
	}
	return r.Parse(dsn)
}

// Resolve parses dsn and returns its engine plus the driver connection
// string.
func Resolve(dsn string) (*Info, string, error) {
	info, err := ParseInfo(dsn)
	if err != nil {
		return nil, "", err
	}
	r, _ := ResolverFor(info.Type)
	driver, err := r.DriverDSN(info)
	if err != nil {
		return nil, "", err
	}
	return info, driver, nil
}

// Validate reports whether dsn can be resolved.
func Validate(dsn string) error {
	_, _, err := Resolve(dsn)
	return err
}
