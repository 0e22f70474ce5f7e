// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema holds the in-memory catalog of table and column metadata used
// to ground generated SQL. The catalog is assembled from YAML schema files,
// rebuilt each run and never persisted.
//
// Table names are case-sensitive keys. Loading a table that already exists
// replaces it entirely; the replacement is reported, not treated as an error.
package schema

import (
	"io"
	"log/slog"
	"sort"
	"sync"
)

// Store is the table catalog. It is safe for concurrent use, but callers that
// need a consistent view across several loads must serialize them.
type Store struct {
	mu     sync.RWMutex
	tables map[string]Table
	log    *slog.Logger
	// sources remembers every file and directory loaded, for reloads.
	sources []Source
	// added is signalled when a new source is recorded.
	added chan struct{}
}

// Source records a successful load so the store can be rebuilt on change.
type Source struct {
	Path      string
	Dir       bool
	Recursive bool
}

// NewStore creates an empty store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		tables: make(map[string]Table),
		log:    logger,
		added:  make(chan struct{}, 1),
	}
}

// upsert stores t and reports whether it replaced an existing definition.
func (s *Store) upsert(t Table) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.tables[t.Name]
	s.tables[t.Name] = t
	return existed
}

// Clear removes every table and forgets the recorded sources.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]Table)
	s.sources = nil
}

// Remove deletes a single table and reports whether it existed.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return false
	}
	delete(s.tables, name)
	return true
}

// TableCount returns the number of distinct tables.
func (s *Store) TableCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// TableNames returns table names in sorted order.
func (s *Store) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Table returns a copy of the named table.
func (s *Store) Table(name string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return Table{}, false
	}
	t.Columns = append([]Column(nil), t.Columns...)
	return t, true
}

// Column returns the named column of the named table.
func (s *Store) Column(table, column string) (Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return Column{}, false
	}
	for _, c := range t.Columns {
		if c.Name == column {
			return c, true
		}
	}
	return Column{}, false
}

// Sources returns the loads recorded since the last Clear.
func (s *Store) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Source(nil), s.sources...)
}

func (s *Store) addSource(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sources {
		if existing == src {
			return
		}
	}
	s.sources = append(s.sources, src)
	select {
	case s.added <- struct{}{}:
	default:
	}
}

// snapshot returns tables sorted by name.
func (s *Store) snapshot() []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
