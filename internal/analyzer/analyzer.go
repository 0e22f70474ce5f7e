// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package analyzer performs static, syntax-only analysis of generated SQL:
// parseability, statement classification, referenced tables and canonical
// formatting. It never executes anything.
//
// The grammar is MySQL-flavored. Dialect-specific syntax (Hive LATERAL VIEW,
// BigQuery backtick paths and the like) may be reported as a syntax error even
// when the target engine would accept it; the report says which dialect the
// statement was checked for so the caller can present that caveat.
package analyzer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"

	"sqlpilot/cli/internal/dialect"
)

// Statement is the analysis of one SQL statement.
type Statement struct {
	Type      string   `json:"type"`
	Tables    []string `json:"tables,omitempty"`
	Formatted string   `json:"formatted,omitempty"`
	ReadOnly  bool     `json:"read_only"`
}

// Report is the analysis of a SQL text.
type Report struct {
	Dialect    dialect.Name `json:"dialect"`
	Valid      bool         `json:"valid"`
	Error      string       `json:"error,omitempty"`
	Statements []Statement  `json:"statements,omitempty"`
}

// Tables returns the distinct tables referenced by all statements, sorted.
func (r Report) Tables() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range r.Statements {
		for _, t := range s.Tables {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Analyzer is stateless; the zero value is ready to use.
type Analyzer struct{}

// New returns an Analyzer.
func New() *Analyzer { return &Analyzer{} }

// Parse parses every statement in sql.
func (a *Analyzer) Parse(sql string) ([]sqlparser.Statement, error) {
	text := strings.TrimSpace(sql)
	if text == "" {
		return nil, errors.New("empty SQL")
	}

	tokens := sqlparser.NewTokenizer(strings.NewReader(text))
	var stmts []sqlparser.Statement
	for {
		stmt, err := sqlparser.ParseNext(tokens)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", len(stmts)+1, err)
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		return nil, errors.New("no statements found")
	}
	return stmts, nil
}

// Analyze checks sql for the given dialect. Syntax errors are reported in the
// Report, not returned.
func (a *Analyzer) Analyze(sql string, d dialect.Name) Report {
	report := Report{Dialect: dialect.Normalize(string(d))}

	stmts, err := a.Parse(sql)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Valid = true
	for _, stmt := range stmts {
		formatted := sqlparser.String(stmt)
		kind := sqlparser.StmtType(sqlparser.Preview(formatted))
		report.Statements = append(report.Statements, Statement{
			Type:      strings.ToLower(kind),
			Tables:    tablesOf(stmt),
			Formatted: formatted,
			ReadOnly:  readOnly(stmt),
		})
	}
	return report
}

// Format returns the canonical form of sql, one statement per line.
func (a *Analyzer) Format(sql string) (string, error) {
	stmts, err := a.Parse(sql)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		parts = append(parts, sqlparser.String(s)+";")
	}
	return strings.Join(parts, "\n"), nil
}

func readOnly(stmt sqlparser.Statement) bool {
	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect, *sqlparser.Show:
		return true
	default:
		return false
	}
}

// tablesOf collects table names from FROM/JOIN/INTO/UPDATE clauses and DDL
// targets. Column qualifiers are not table references and are skipped.
func tablesOf(stmt sqlparser.Statement) []string {
	seen := map[string]bool{}
	add := func(tn sqlparser.TableName) {
		if tn.IsEmpty() {
			return
		}
		name := tn.Name.String()
		if !tn.Qualifier.IsEmpty() {
			name = tn.Qualifier.String() + "." + name
		}
		seen[name] = true
	}

	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if tn, ok := n.Expr.(sqlparser.TableName); ok {
				add(tn)
			}
		case *sqlparser.Insert:
			add(n.Table)
		case *sqlparser.DDL:
			add(n.Table)
			add(n.NewName)
		}
		return true, nil
	}, stmt)

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
