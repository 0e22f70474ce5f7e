// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn recognizes database URLs accepted by schema extraction and
// converts them into connection strings for the matching driver.
package dsn

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DBType identifies a database engine.
type DBType string

const (
	Postgres DBType = "postgres"
	MySQL    DBType = "mysql"
	SQLite   DBType = "sqlite"
	Unknown  DBType = "unknown"
)

// Info is a parsed database URL. For SQLite only Database (the file path) and
// Params are set.
type Info struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// Redacted renders the URL with the password replaced, for display.
func (i *Info) Redacted() string {
	if i.Type == SQLite {
		return "sqlite://" + i.Database
	}
	var b strings.Builder
	b.WriteString(string(i.Type))
	b.WriteString("://")
	if i.User != "" {
		b.WriteString(url.PathEscape(i.User))
		if i.Password != "" {
			b.WriteString(":***")
		}
		b.WriteString("@")
	}
	b.WriteString(i.Host)
	if i.Port != "" {
		b.WriteString(":" + i.Port)
	}
	b.WriteString("/" + i.Database)
	return b.String()
}

// sortedParams returns params encoded as key=value pairs in key order.
func (i *Info) sortedParams() string {
	if len(i.Params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(i.Params))
	for k := range i.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for n, k := range keys {
		pairs[n] = url.QueryEscape(k) + "=" + url.QueryEscape(i.Params[k])
	}
	return strings.Join(pairs, "&")
}

// Resolver parses URLs for one engine and renders driver connection strings.
type Resolver interface {
	Parse(dsn string) (*Info, error)
	DriverDSN(info *Info) (string, error)
}

// ParseError describes a URL that could not be understood.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid database URL: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid database URL: %s", e.Reason)
}

// NewParseError creates a ParseError.
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{DSN: dsn, Reason: reason, Hint: hint}
}
