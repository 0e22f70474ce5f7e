// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/introspect"
	"sqlpilot/cli/internal/keychain"
	"sqlpilot/cli/internal/render"
	"sqlpilot/cli/internal/schema"
	"sqlpilot/cli/internal/session"
	"sqlpilot/cli/internal/terminal"
)

// dbURLEnv overrides the stored database URL for schema extraction.
const dbURLEnv = "SQLPILOT_DB_URL"

var (
	showRecursive bool

	extractURL       string
	extractOutput    string
	extractTables    []string
	extractNamespace string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and build schema description files",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <file|dir>...",
	Short: "Print schema files the way they are sent to the model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := schema.NewStore(nil)
		report := schema.DirReport{}
		for _, p := range args {
			info, err := os.Stat(p)
			if err != nil {
				return errs.Wrap(errs.SchemaLoad, "cannot read "+p, err)
			}
			if info.IsDir() {
				r, err := store.LoadDirectory(p, showRecursive)
				if err != nil {
					return err
				}
				report.Files = append(report.Files, r.Files...)
				report.Failed = append(report.Failed, r.Failed...)
				continue
			}
			r, err := store.LoadFile(p)
			if err != nil {
				var le *schema.LoadError
				if errors.As(err, &le) {
					report.Failed = append(report.Failed, le)
					continue
				}
				return err
			}
			report.Files = append(report.Files, r)
		}

		out := cmd.OutOrStdout()
		if rendered := store.RenderPrompt(); rendered != "" {
			pterm.Fprintln(out, rendered)
		}
		pterm.Fprintln(cmd.ErrOrStderr(), session.DescribeLoad(report))
		return nil
	},
}

var schemaExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a schema file from a live database",
	Long: `The extract command reads table and column definitions from a PostgreSQL,
MySQL or SQLite database and writes them in the schema file format. Only the
catalog is read; no other queries are run.

The database URL comes from --db-url, then SQLPILOT_DB_URL, then the URL saved
by 'sqlpilot connect'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(false)
		if err != nil {
			return err
		}
		rawURL, err := resolveDBURL(extractURL)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		stop := func() {}
		if terminal.IsInteractive(os.Stderr) {
			stop = render.StartSpinner(cmd.ErrOrStderr(), "reading catalog", render.Frames, 100*time.Millisecond)
		}
		in, err := introspect.Open(ctx, rawURL, introspect.Options{Namespace: extractNamespace, Logger: env.log})
		if err != nil {
			stop()
			return err
		}
		defer in.Close()

		tables, err := in.Extract(ctx, extractTables)
		stop()
		if err != nil {
			return err
		}

		data, err := schema.Marshal(tables)
		if err != nil {
			return err
		}
		if extractOutput == "" || extractOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(extractOutput, data, 0o644); err != nil {
			return errs.Wrap(errs.ArtifactWrite, "cannot write "+extractOutput, err)
		}
		pterm.Success.Printfln("Wrote %d tables to %s", len(tables), extractOutput)
		return nil
	},
}

// resolveDBURL picks the extraction URL from the flag, the environment, or
// the keychain, in that order.
func resolveDBURL(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(dbURLEnv); v != "" {
		return v, nil
	}
	if km, err := keychain.GetManager(); err == nil {
		if v, err := km.LoadDBURL(); err == nil && v != "" {
			return v, nil
		}
	}
	return "", errs.New(errs.ConfigInvalid,
		fmt.Sprintf("no database URL; pass --db-url, set %s or run 'sqlpilot connect'", dbURLEnv))
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaShowCmd, schemaExtractCmd)

	schemaShowCmd.Flags().BoolVarP(&showRecursive, "recursive", "r", false, "Descend into subdirectories")

	f := schemaExtractCmd.Flags()
	f.StringVar(&extractURL, "db-url", "", "Database URL (postgres://, mysql://, sqlite:// or a file path)")
	f.StringVarP(&extractOutput, "output", "o", "", "Write to this file instead of stdout")
	f.StringSliceVarP(&extractTables, "table", "t", nil, "Only extract these tables (repeatable)")
	f.StringVar(&extractNamespace, "namespace", "", "Postgres schema or MySQL database to read (default from URL)")
}
