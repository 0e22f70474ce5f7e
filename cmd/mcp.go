// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/analyzer"
	"sqlpilot/cli/internal/dialect"
	"sqlpilot/cli/internal/schema"
	"sqlpilot/cli/internal/tools"
)

var (
	mcpSchemas    []string
	mcpSchemaDirs []string
	mcpRecursive  bool
	mcpDialect    string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve schema and SQL tools to MCP clients over stdio",
	Long: `The mcp command runs a Model Context Protocol server on stdin and stdout. It
exposes list_dialects, list_tables, describe_table, analyze_sql and format_sql
over the schema files given with --schema and --schema-dir. Diagnostics go to
stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(false)
		if err != nil {
			return err
		}
		name := env.Config.SQL.Dialect
		if mcpDialect != "" {
			if !dialect.IsSupported(mcpDialect) {
				return unsupportedDialect(mcpDialect)
			}
			name = mcpDialect
		}
		current := dialect.Normalize(name)

		store := schema.NewStore(env.log)
		for _, f := range mcpSchemas {
			if _, err := store.LoadFile(f); err != nil {
				env.log.Warn("schema file skipped", "path", f, "err", err)
			}
		}
		for _, d := range mcpSchemaDirs {
			r, err := store.LoadDirectory(d, mcpRecursive)
			if err != nil {
				return err
			}
			for _, f := range r.Failed {
				env.log.Warn("schema file skipped", "path", f.Path, "err", f.Err)
			}
		}

		registry := tools.Builtin(tools.Deps{
			Catalog:        store,
			Analyzer:       analyzer.New(),
			CurrentDialect: func() dialect.Name { return current },
		})
		srv := tools.NewMCPServer(registry, "sqlpilot", Version, env.log)
		env.log.Info("mcp server starting", "tables", store.TableCount(), "dialect", current)
		return server.NewStdioServer(srv).Listen(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	f := mcpCmd.Flags()
	f.StringArrayVar(&mcpSchemas, "schema", nil, "Schema YAML file to serve (repeatable)")
	f.StringArrayVar(&mcpSchemaDirs, "schema-dir", nil, "Directory of schema YAML files to serve (repeatable)")
	f.BoolVar(&mcpRecursive, "recursive", false, "Descend into subdirectories of --schema-dir")
	f.StringVarP(&mcpDialect, "dialect", "d", "", "Default dialect for analyze_sql (overrides sql.dialect)")
}
