// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package introspect

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpilot/cli/internal/dsn"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/schema"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestExtractPostgres(t *testing.T) {
	db, mock := newSQLMock(t)
	in, err := New(db, dsn.Postgres, "public", nil)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables t")).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "comment"}).
			AddRow("customers", "").
			AddRow("orders", "One row per order"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns c")).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "type", "is_nullable", "comment"}).
			AddRow("id", "bigint", "NO", "").
			AddRow("email", "character varying(255)", "YES", "login"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns c")).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "type", "is_nullable", "comment"}).
			AddRow("id", "bigint", "NO", ""))

	tables, err := in.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, schema.Table{
		Name: "customers",
		Columns: []schema.Column{
			{Name: "id", Type: "bigint", Nullable: false},
			{Name: "email", Type: "character varying(255)", Nullable: true, Description: "login"},
		},
	}, tables[0])
	assert.Equal(t, "One row per order", tables[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractSelectedMySQL(t *testing.T) {
	db, mock := newSQLMock(t)
	in, err := New(db, dsn.MySQL, "shop", nil)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT table_name, table_comment").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_comment"}).
			AddRow("items", "").
			AddRow("orders", ""))
	mock.ExpectQuery("SELECT column_name, column_type").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type", "is_nullable", "column_comment"}).
			AddRow("status", "enum('new','paid')", "NO", "order state"))

	tables, err := in.Extract(context.Background(), []string{"orders"})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "enum('new','paid')", tables[0].Columns[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractMissingTable(t *testing.T) {
	db, mock := newSQLMock(t)
	in, err := New(db, dsn.SQLite, "", nil)
	require.NoError(t, err)

	mock.ExpectQuery("FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name", "comment"}).AddRow("users", ""))

	_, err = in.Extract(context.Background(), []string{"ghosts"})
	assert.True(t, errs.Is(err, errs.SchemaLoad))
	assert.Contains(t, err.Error(), "ghosts")
}

func TestExtractQueryFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	in, err := New(db, dsn.Postgres, "public", nil)
	require.NoError(t, err)

	mock.ExpectQuery("information_schema.tables").WillReturnError(errors.New("permission denied"))

	_, err = in.TableNames(context.Background())
	assert.True(t, errs.Is(err, errs.Transport))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	db, _ := newSQLMock(t)
	_, err := New(db, dsn.Unknown, "", nil)
	assert.True(t, errs.Is(err, errs.ConfigInvalid))
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	seed, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = seed.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL, nickname TEXT);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL, total REAL);
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	in, err := Open(context.Background(), "sqlite://"+path, Options{})
	require.NoError(t, err)
	defer in.Close()

	names, err := in.TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, names)

	tables, err := in.Extract(context.Background(), []string{"users"})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "INTEGER", Nullable: true},
		{Name: "email", Type: "TEXT", Nullable: false},
		{Name: "nickname", Type: "TEXT", Nullable: true},
	}, tables[0].Columns)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "oracle://x@y/z", Options{})
	assert.True(t, errs.Is(err, errs.ConfigInvalid))
}
