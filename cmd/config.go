// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/config"
	"sqlpilot/cli/internal/xdg"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration with the API key masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(true)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		pterm.Fprint(out, env.Config.Masked().String())

		sources := "defaults only"
		if len(env.Files) > 0 {
			sources = strings.Join(env.Files, ", ")
		}
		pterm.Fprintln(out, pterm.NewStyle(pterm.FgGray).Sprint("\nfiles: "+sources))
		if env.KeySource != "" {
			pterm.Fprintln(out, pterm.NewStyle(pterm.FgGray).Sprint("api.key from: "+env.KeySource))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting to the user configuration file",
	Long: `The set command validates the value and stores it in
$XDG_CONFIG_HOME/sqlpilot/config.yaml. Recognized keys:

  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := xdg.ConfigFile()
		if err != nil {
			return err
		}
		if err := config.SetUserValue(path, args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printfln("%s updated in %s", args[0], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
