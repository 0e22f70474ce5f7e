// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/dialect"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the SQL dialects SQLPilot can target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := pterm.TableData{{"Dialect", "Guidance"}}
		for _, name := range dialect.Supported() {
			guided := ""
			if _, ok := dialect.Guidance(name); ok {
				guided = "yes"
			}
			if dialect.Name(name) == dialect.Default {
				name += " (default)"
			}
			data = append(data, []string{name, guided})
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		pterm.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dialectsCmd)
}
