// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for SQLPilot. It implements
// the interactive shell along with schema, analysis, credential and
// configuration subcommands using the Cobra CLI framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/logging"
)

// Version is set at build time with -ldflags "-X sqlpilot/cli/cmd.Version=...".
var Version = "0.0.0-dev"

var (
	showVersion bool
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sqlpilot",
	Short: "Natural-language SQL assistant for your terminal",
	Long: `SQLPilot turns questions about your data into SQL. It sends your request,
the target dialect and your table descriptions to an OpenAI-compatible model,
streams the model's reasoning and answer, and saves the generated SQL to disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "sqlpilot %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, logging.FormatError(err, ""))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug, info, warn or error")
}
