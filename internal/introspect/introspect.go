// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package introspect builds schema catalogs from live databases. It only
// reads catalog metadata and never runs user-supplied SQL.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sqlpilot/cli/internal/dsn"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/logging"
	"sqlpilot/cli/internal/schema"
)

var drivers = map[dsn.DBType]string{
	dsn.Postgres: "pgx",
	dsn.MySQL:    "mysql",
	dsn.SQLite:   "sqlite",
}

// Inspector reads table and column metadata through a catalog for one engine.
type Inspector struct {
	db      *sql.DB
	catalog catalog
	// namespace is the Postgres schema or MySQL database; unused for SQLite.
	namespace string
	logger    *slog.Logger
}

// Options tunes Open.
type Options struct {
	// Namespace overrides the Postgres schema ("public") or MySQL database
	// (taken from the URL).
	Namespace   string
	PingTimeout time.Duration
	Logger      *slog.Logger
}

// Open connects to the database named by rawURL and verifies it answers.
func Open(ctx context.Context, rawURL string, opts Options) (*Inspector, error) {
	info, driverDSN, err := dsn.Resolve(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, "invalid database URL", err)
	}

	db, err := sql.Open(drivers[info.Type], driverDSN)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, "cannot open "+info.Redacted(), err)
	}
	db.SetMaxOpenConns(1)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.Transport, "cannot connect to "+info.Redacted(), err)
	}

	ns := opts.Namespace
	if ns == "" {
		switch info.Type {
		case dsn.Postgres:
			ns = "public"
		case dsn.MySQL:
			ns = info.Database
		}
	}
	return New(db, info.Type, ns, opts.Logger)
}

// New wraps an open database. kind selects the catalog queries.
func New(db *sql.DB, kind dsn.DBType, namespace string, logger *slog.Logger) (*Inspector, error) {
	c, ok := catalogs[kind]
	if !ok {
		return nil, errs.New(errs.ConfigInvalid, fmt.Sprintf("schema extraction does not support %s", kind))
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Inspector{db: db, catalog: c, namespace: namespace, logger: logger}, nil
}

// Close releases the connection.
func (in *Inspector) Close() error {
	return in.db.Close()
}

// TableNames lists base tables, sorted by name.
func (in *Inspector) TableNames(ctx context.Context) ([]string, error) {
	tables, err := in.tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names, nil
}

// Extract returns the named tables with their columns, or every base table
// when only is empty. A requested table that does not exist is an error.
func (in *Inspector) Extract(ctx context.Context, only []string) ([]schema.Table, error) {
	all, err := in.tables(ctx)
	if err != nil {
		return nil, err
	}

	selected := all
	if len(only) > 0 {
		byName := make(map[string]schema.Table, len(all))
		for _, t := range all {
			byName[t.Name] = t
		}
		selected = make([]schema.Table, 0, len(only))
		for _, name := range only {
			t, ok := byName[name]
			if !ok {
				return nil, errs.New(errs.SchemaLoad, fmt.Sprintf("table %q not found", name))
			}
			selected = append(selected, t)
		}
	}

	for i := range selected {
		cols, err := in.columns(ctx, selected[i].Name)
		if err != nil {
			return nil, err
		}
		selected[i].Columns = cols
		in.logger.Debug("extracted table", "table", selected[i].Name, "columns", len(cols))
	}
	return selected, nil
}

func (in *Inspector) tables(ctx context.Context) ([]schema.Table, error) {
	rows, err := in.db.QueryContext(ctx, in.catalog.tables, in.catalog.args(in.namespace)...)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, "list tables", err)
	}
	defer rows.Close()

	var out []schema.Table
	for rows.Next() {
		var t schema.Table
		if err := rows.Scan(&t.Name, &t.Description); err != nil {
			return nil, errs.Wrap(errs.Transport, "list tables", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Transport, "list tables", err)
	}
	return out, nil
}

func (in *Inspector) columns(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := in.db.QueryContext(ctx, in.catalog.columns, in.catalog.args(in.namespace, table)...)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, "list columns of "+table, err)
	}
	defer rows.Close()

	var out []schema.Column
	for rows.Next() {
		var (
			c        schema.Column
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.Type, &nullable, &c.Description); err != nil {
			return nil, errs.Wrap(errs.Transport, "list columns of "+table, err)
		}
		c.Nullable = nullable == "YES"
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Transport, "list columns of "+table, err)
	}
	return out, nil
}
