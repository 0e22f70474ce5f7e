// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"net/url"
	"strings"
)

// PostgresResolver handles postgres:// and postgresql:// URLs.
type PostgresResolver struct {
	url networkURL
}

// NewPostgresResolver creates a PostgresResolver.
func NewPostgresResolver() *PostgresResolver {
	return &PostgresResolver{url: networkURL{typ: Postgres, schemes: []string{"postgres", "postgresql"}, defaultPort: "5432"}}
}

// Parse parses a Postgres URL.
func (r *PostgresResolver) Parse(dsn string) (*Info, error) {
	return r.url.parse(dsn)
}

// DriverDSN renders a canonical, fully escaped postgresql:// URL for pgx.
func (r *PostgresResolver) DriverDSN(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil URL info", "")
	}
	var b strings.Builder
	b.WriteString("postgresql://")
	if info.User != "" {
		b.WriteString(url.QueryEscape(info.User))
		if info.Password != "" {
			b.WriteString(":" + url.QueryEscape(info.Password))
		}
		b.WriteString("@")
	}
	b.WriteString(net.JoinHostPort(info.Host, info.Port))
	b.WriteString("/" + url.PathEscape(info.Database))
	if q := info.sortedParams(); q != "" {
		b.WriteString("?" + q)
	}
	return b.String(), nil
}
