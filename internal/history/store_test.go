// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, desc := range []string{"first", "second", "third"} {
		id, err := s.Record(ctx, Entry{
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			SessionID:   "s1",
			Dialect:     "hive",
			Model:       "deepseek-reasoner",
			Description: desc,
			Path:        "generated_sql/x.sql",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Description)
	assert.Equal(t, "second", recent[1].Description)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestForSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, Entry{SessionID: "a", Dialect: "hive", Model: "m", Path: "1.sql"})
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{SessionID: "b", Dialect: "postgres", Model: "m", Path: "2.sql"})
	require.NoError(t, err)

	got, err := s.ForSession(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "postgres", got[0].Dialect)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Record(context.Background(), Entry{SessionID: "x", Dialect: "hive", Model: "m", Path: "p"})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
