// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/analyzer"
	"sqlpilot/cli/internal/artifact"
	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/session"
)

var (
	analyzeFile    string
	analyzeDialect string
	analyzeJSON    bool
	analyzeFormat  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [sql]",
	Short: "Check SQL syntax and list the statements and tables it touches",
	Long: `The analyze command parses SQL locally without contacting the model. Pass the
SQL as an argument, with -f to read a file (such as a saved artifact), or with
-f - to read stdin. Saved artifact headers are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := analyzeInput(cmd, args)
		if err != nil {
			return err
		}

		name := analyzeDialect
		if name == "" {
			env, err := loadEnvironment(false)
			if err != nil {
				return err
			}
			name = env.Config.SQL.Dialect
		}
		if !dialect.IsSupported(name) {
			return unsupportedDialect(name)
		}

		a := analyzer.New()
		out := cmd.OutOrStdout()
		if analyzeFormat {
			formatted, err := a.Format(sql)
			if err != nil {
				return errs.Wrap(errs.ConfigInvalid, "cannot format SQL", err)
			}
			pterm.Fprintln(out, formatted)
			return nil
		}

		report := a.Analyze(sql, dialect.Normalize(name))
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		if report.Valid {
			pterm.Fprintln(out, pterm.Success.Sprint(session.FormatReport(report)))
		} else {
			pterm.Fprintln(out, pterm.Error.Sprint(session.FormatReport(report)))
		}
		return nil
	},
}

func analyzeInput(cmd *cobra.Command, args []string) (string, error) {
	var raw string
	switch {
	case analyzeFile == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		raw = string(b)
	case analyzeFile != "":
		b, err := os.ReadFile(analyzeFile)
		if err != nil {
			return "", errs.Wrap(errs.ConfigInvalid, "cannot read "+analyzeFile, err)
		}
		raw = artifact.Body(string(b))
	case len(args) == 1:
		raw = args[0]
	default:
		return "", errs.New(errs.ConfigInvalid, "pass SQL as an argument or with -f")
	}
	sql := strings.TrimSpace(artifact.StripMarkdown(raw))
	if sql == "" {
		return "", errs.New(errs.ConfigInvalid, "no SQL to analyze")
	}
	return sql, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFile, "file", "f", "", "Read SQL from a file, or - for stdin")
	f.StringVarP(&analyzeDialect, "dialect", "d", "", "Dialect to report against (default sql.dialect)")
	f.BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")
	f.BoolVar(&analyzeFormat, "format", false, "Print the SQL reformatted instead of a report")
}
