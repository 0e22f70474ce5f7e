// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extensions recognized when scanning directories.
var Extensions = []string{".yaml", ".yml"}

// LoadError reports a schema file that could not be loaded.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadReport describes the effect of loading one file.
type LoadReport struct {
	Path        string
	Loaded      []string
	Overwritten []string
}

// DirReport describes the effect of loading a directory.
type DirReport struct {
	Files  []LoadReport
	Failed []*LoadError
}

// TableCount returns the number of table definitions read across all files.
func (r DirReport) TableCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Loaded)
	}
	return n
}

// LoadFile parses a YAML schema document and upserts every table it defines.
// The whole document is validated before the store is touched.
func (s *Store) LoadFile(path string) (LoadReport, error) {
	report, err := s.loadFile(path)
	if err != nil {
		return report, err
	}
	s.addSource(Source{Path: path})
	return report, nil
}

func (s *Store) loadFile(path string) (LoadReport, error) {
	report := LoadReport{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, &LoadError{Path: path, Reason: "file not found", Err: err}
		}
		return report, &LoadError{Path: path, Reason: "cannot read file", Err: err}
	}

	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return report, &LoadError{Path: path, Reason: "malformed YAML", Err: err}
	}
	if doc.Tables == nil {
		return report, &LoadError{Path: path, Reason: "missing top-level 'tables' list"}
	}
	for i, rt := range *doc.Tables {
		if strings.TrimSpace(rt.Name) == "" {
			return report, &LoadError{Path: path, Reason: fmt.Sprintf("table #%d has no name", i+1)}
		}
		for j, c := range rt.Columns {
			if strings.TrimSpace(c.Name) == "" {
				return report, &LoadError{Path: path, Reason: fmt.Sprintf("table %q column #%d has no name", rt.Name, j+1)}
			}
		}
	}

	for _, rt := range *doc.Tables {
		t := rt.toTable()
		if s.upsert(t) {
			report.Overwritten = append(report.Overwritten, t.Name)
			s.log.Warn("schema table redefined", "table", t.Name, "path", path)
		}
		report.Loaded = append(report.Loaded, t.Name)
	}
	s.log.Debug("schema file loaded", "path", path, "tables", len(report.Loaded))
	return report, nil
}

// LoadDirectory loads every schema file under dir. Each file is loaded
// independently: a failure is logged, recorded in the report and skipped.
// Only a missing or unreadable directory is returned as an error.
func (s *Store) LoadDirectory(dir string, recursive bool) (DirReport, error) {
	var report DirReport

	files, err := ListSchemaFiles(dir, recursive)
	if err != nil {
		return report, err
	}
	for _, f := range files {
		r, err := s.loadFile(f)
		if err != nil {
			var le *LoadError
			if !errors.As(err, &le) {
				le = &LoadError{Path: f, Reason: "load failed", Err: err}
			}
			s.log.Warn("skipping schema file", "path", f, "error", le.Error())
			report.Failed = append(report.Failed, le)
			continue
		}
		report.Files = append(report.Files, r)
	}
	s.addSource(Source{Path: dir, Dir: true, Recursive: recursive})
	return report, nil
}

// Reload clears the tables and replays every recorded source. Per-file
// failures are returned in the report; the previous sources stay registered.
func (s *Store) Reload() DirReport {
	sources := s.Sources()

	s.mu.Lock()
	s.tables = make(map[string]Table)
	s.mu.Unlock()

	var report DirReport
	for _, src := range sources {
		if src.Dir {
			r, err := s.LoadDirectory(src.Path, src.Recursive)
			if err != nil {
				report.Failed = append(report.Failed, asLoadError(src.Path, err))
				continue
			}
			report.Files = append(report.Files, r.Files...)
			report.Failed = append(report.Failed, r.Failed...)
			continue
		}
		r, err := s.loadFile(src.Path)
		if err != nil {
			report.Failed = append(report.Failed, asLoadError(src.Path, err))
			continue
		}
		report.Files = append(report.Files, r)
	}
	return report
}

// ListSchemaFiles returns the sorted schema files in dir.
func ListSchemaFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Reason: "directory not found", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Reason: "not a directory"}
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSchemaFile(p) {
				files = append(files, p)
			}
			return nil
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(dir)
		for _, e := range entries {
			if !e.IsDir() && isSchemaFile(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	if err != nil {
		return nil, &LoadError{Path: dir, Reason: "cannot scan directory", Err: err}
	}
	sort.Strings(files)
	return files, nil
}

func isSchemaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func asLoadError(path string, err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Path: path, Reason: "load failed", Err: err}
}

// Marshal encodes tables as a schema document.
func Marshal(tables []Table) ([]byte, error) {
	return yaml.Marshal(Document{Tables: tables})
}
