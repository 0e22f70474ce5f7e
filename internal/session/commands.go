// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sqlpilot/cli/internal/analyzer"
	"sqlpilot/cli/internal/schema"
)

const helpText = `Commands:
  /help                  show this help
  /dialect [name]        show or change the SQL dialect
  /dialects              list supported dialects (* = has guidance)
  /schema load <path>    load a schema file or directory
  /schema clear          forget every loaded table
  /tables                list loaded tables
  /describe <table>      show one table
  /analyze <sql>         check SQL syntax for the current dialect
  /format <sql>          rewrite SQL in canonical form
  /history               list recently saved SQL files
  exit | quit            leave the session
Anything else is sent to the model.`

// command runs one slash command. Failures are reported to sink.
func (e *Engine) command(ctx context.Context, line string, sink Sink) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	var (
		out string
		err error
	)
	switch strings.ToLower(name) {
	case "help", "?":
		out = helpText
	case "dialect":
		out, err = e.dialectCommand(arg)
	case "dialects":
		out, err = e.tools.Invoke(ctx, "list_dialects", nil)
	case "schema":
		out, err = e.schemaCommand(arg)
	case "tables":
		out, err = e.tools.Invoke(ctx, "list_tables", nil)
	case "describe":
		out, err = e.tools.Invoke(ctx, "describe_table", map[string]any{"table": arg})
	case "analyze":
		out, err = e.analyzeCommand(arg)
	case "format":
		out, err = e.tools.Invoke(ctx, "format_sql", map[string]any{"sql": arg})
	case "history":
		out, err = e.historyCommand(ctx)
	default:
		err = fmt.Errorf("unknown command /%s; type /help", name)
	}

	if err != nil {
		e.logger.Debug("command failed", "command", name, "err", err)
		sink.Notice("Error: " + err.Error())
		return
	}
	sink.Notice(strings.TrimRight(out, "\n"))
}

func (e *Engine) dialectCommand(arg string) (string, error) {
	if arg == "" {
		return fmt.Sprintf("Current dialect: %s", e.Dialect()), nil
	}
	if err := e.SetDialect(arg); err != nil {
		return "", err
	}
	return fmt.Sprintf("Dialect set to %s", e.Dialect()), nil
}

func (e *Engine) schemaCommand(arg string) (string, error) {
	sub, path, _ := strings.Cut(arg, " ")
	path = strings.TrimSpace(path)

	switch sub {
	case "clear":
		e.store.Clear()
		return "Schema cleared.", nil
	case "load":
		if path == "" {
			return "", fmt.Errorf("usage: /schema load <path>")
		}
		return e.loadSchema(path)
	}
	return "", fmt.Errorf("usage: /schema load <path> | /schema clear")
}

func (e *Engine) loadSchema(path string) (string, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		report, err := e.store.LoadDirectory(path, e.recursive)
		if err != nil {
			return "", err
		}
		return DescribeLoad(report), nil
	}
	report, err := e.store.LoadFile(path)
	if err != nil {
		return "", err
	}
	return DescribeLoad(schema.DirReport{Files: []schema.LoadReport{report}}), nil
}

// DescribeLoad summarizes a schema load for display.
func DescribeLoad(r schema.DirReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loaded %d tables from %d files.", r.TableCount(), len(r.Files))
	for _, f := range r.Files {
		if len(f.Overwritten) > 0 {
			fmt.Fprintf(&b, "\nReplaced from %s: %s", f.Path, strings.Join(f.Overwritten, ", "))
		}
	}
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "\nSkipped %s", f.Error())
	}
	return b.String()
}

func (e *Engine) analyzeCommand(sql string) (string, error) {
	if sql == "" {
		return "", fmt.Errorf("usage: /analyze <sql>")
	}
	return FormatReport(e.analyzer.Analyze(sql, e.Dialect())), nil
}

// FormatReport renders an analysis for the terminal.
func FormatReport(r analyzer.Report) string {
	var b strings.Builder
	if !r.Valid {
		fmt.Fprintf(&b, "Syntax error (checked for %s): %s", r.Dialect, r.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "Valid SQL (checked for %s), %d statement(s)", r.Dialect, len(r.Statements))
	for i, s := range r.Statements {
		mode := "writes"
		if s.ReadOnly {
			mode = "read-only"
		}
		fmt.Fprintf(&b, "\n%d. %s, %s", i+1, s.Type, mode)
		if len(s.Tables) > 0 {
			fmt.Fprintf(&b, ", tables: %s", strings.Join(s.Tables, ", "))
		}
	}
	return b.String()
}

func (e *Engine) historyCommand(ctx context.Context) (string, error) {
	if e.history == nil {
		return "History is disabled.", nil
	}
	entries, err := e.history.Recent(ctx, 10)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No saved SQL yet.", nil
	}
	var b strings.Builder
	for _, en := range entries {
		fmt.Fprintf(&b, "%s  %-10s %s  %s\n", en.CreatedAt.Format("2006-01-02 15:04:05"), en.Dialect, en.Path, en.Description)
	}
	return b.String(), nil
}
