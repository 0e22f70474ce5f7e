// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sqlpilot/cli/internal/analyzer"
	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/schema"
)

// Catalog is the read side of the schema store.
type Catalog interface {
	TableNames() []string
	Table(name string) (schema.Table, bool)
}

// Deps are what the built-in tools read from. CurrentDialect supplies the
// dialect used when a call does not name one.
type Deps struct {
	Catalog        Catalog
	Analyzer       *analyzer.Analyzer
	CurrentDialect func() dialect.Name
}

// Builtin returns a registry holding list_dialects, list_tables,
// describe_table, analyze_sql and format_sql.
func Builtin(d Deps) *Registry {
	if d.Analyzer == nil {
		d.Analyzer = analyzer.New()
	}
	if d.CurrentDialect == nil {
		d.CurrentDialect = func() dialect.Name { return dialect.Default }
	}

	r := NewRegistry()
	for _, t := range []Tool{
		listDialects(),
		listTables(d),
		describeTable(d),
		analyzeSQL(d),
		formatSQL(d),
	} {
		// names are fixed and distinct
		_ = r.Register(t)
	}
	return r
}

func listDialects() Tool {
	return &funcTool{
		name:        "list_dialects",
		description: "List supported SQL dialects. Dialects marked with * carry authoring guidance.",
		fn: func(context.Context, map[string]any) (string, error) {
			var b strings.Builder
			for _, name := range dialect.Supported() {
				b.WriteString(name)
				if _, ok := dialect.Guidance(name); ok {
					b.WriteString(" *")
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	}
}

func listTables(d Deps) Tool {
	return &funcTool{
		name:        "list_tables",
		description: "List the tables in the loaded schema catalog.",
		fn: func(context.Context, map[string]any) (string, error) {
			names := d.Catalog.TableNames()
			if len(names) == 0 {
				return "No schema loaded.", nil
			}
			return strings.Join(names, "\n"), nil
		},
	}
}

func describeTable(d Deps) Tool {
	return &funcTool{
		name:        "describe_table",
		description: "Describe one table from the loaded schema catalog: description and columns.",
		params:      []Param{{Name: "table", Description: "Table name (case-sensitive)", Required: true}},
		fn: func(_ context.Context, args map[string]any) (string, error) {
			name, err := stringArg(args, "table")
			if err != nil {
				return "", err
			}
			t, ok := d.Catalog.Table(name)
			if !ok {
				return "", errs.New(errs.SchemaLoad, fmt.Sprintf("table %q is not in the loaded schema", name))
			}
			return schema.RenderTable(t), nil
		},
	}
}

func analyzeSQL(d Deps) Tool {
	return &funcTool{
		name:        "analyze_sql",
		description: "Check SQL syntax and report statement types and referenced tables as JSON.",
		params: []Param{
			{Name: "sql", Description: "SQL text, one or more statements", Required: true},
			{Name: "dialect", Description: "Target dialect; defaults to the session dialect"},
		},
		fn: func(_ context.Context, args map[string]any) (string, error) {
			sql, err := stringArg(args, "sql")
			if err != nil {
				return "", err
			}
			dl, err := resolveDialect(d, args)
			if err != nil {
				return "", err
			}
			report := d.Analyzer.Analyze(sql, dl)
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

func formatSQL(d Deps) Tool {
	return &funcTool{
		name:        "format_sql",
		description: "Rewrite SQL in canonical form, one statement per line.",
		params:      []Param{{Name: "sql", Description: "SQL text", Required: true}},
		fn: func(_ context.Context, args map[string]any) (string, error) {
			sql, err := stringArg(args, "sql")
			if err != nil {
				return "", err
			}
			return d.Analyzer.Format(sql)
		},
	}
}

func resolveDialect(d Deps, args map[string]any) (dialect.Name, error) {
	name := optionalString(args, "dialect")
	if name == "" {
		return d.CurrentDialect(), nil
	}
	if !dialect.IsSupported(name) {
		return "", errs.New(errs.DialectUnsupported, fmt.Sprintf("unsupported dialect %q", name))
	}
	return dialect.Normalize(name), nil
}
