// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/history"
)

var (
	historyLimit   int
	historySession string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved SQL files, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return errs.Wrap(errs.ConfigInvalid, "cannot open history", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		var entries []history.Entry
		if historySession != "" {
			entries, err = store.ForSession(ctx, historySession)
		} else {
			entries, err = store.Recent(ctx, historyLimit)
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			pterm.Fprintln(cmd.OutOrStdout(), "No saved SQL yet.")
			return nil
		}

		data := pterm.TableData{{"Saved", "Dialect", "File", "Request"}}
		for _, e := range entries {
			data = append(data, []string{
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Dialect,
				e.Path,
				clip(e.Description, 60),
			})
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		pterm.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&historySession, "session", "", "Only show files from this session ID")
}
