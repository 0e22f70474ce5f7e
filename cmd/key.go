// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/config"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/keychain"
	"sqlpilot/cli/internal/terminal"
)

var clearAll bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the model API key stored in the OS keychain",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key in the OS keychain",
	Long: `The set command reads the API key without echoing it and stores it in the OS
keychain. Piped input is accepted: echo "$KEY" | sqlpilot key set`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return errs.Wrap(errs.ConfigInvalid, "secure storage is not available on this system", err)
		}
		key, err := terminal.ReadSecret(cmd.OutOrStdout(), os.Stdin, "API key: ")
		if err != nil {
			return errs.Wrap(errs.ConfigInvalid, "cannot read the API key", err)
		}
		if key == "" {
			return errs.New(errs.CredentialMissing, "no API key entered")
		}
		if err := km.SaveAPIKey(key); err != nil {
			return errs.Wrap(errs.ConfigInvalid, "failed to save the API key", err)
		}
		pterm.Success.Printfln("API key %s saved to the keychain.", config.MaskKey(key))
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the API key from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return errs.Wrap(errs.ConfigInvalid, "secure storage is not available on this system", err)
		}
		if clearAll {
			if err := km.ClearAll(); err != nil {
				return err
			}
			pterm.Success.Println("API key and database URL removed.")
			return nil
		}
		if err := km.ClearAPIKey(); err != nil {
			return err
		}
		pterm.Success.Println("API key removed.")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which API key would be used and where it comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(true)
		if err != nil {
			return err
		}
		if env.KeySource == "" {
			pterm.Warning.Println("No API key configured.")
			pterm.Println("   Run 'sqlpilot key set' or export " + config.EnvName("api.key"))
			return nil
		}
		pterm.Printfln("API key %s (from %s)", config.MaskKey(env.Config.API.Key), env.KeySource)
		pterm.Printfln("Endpoint %s, model %s", env.Config.API.BaseURL, env.Config.API.Model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)
	keyClearCmd.Flags().BoolVar(&clearAll, "all", false, "Also remove the saved database URL")
}
