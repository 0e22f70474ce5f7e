// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlpilot/cli/internal/artifact"
	"sqlpilot/cli/internal/bridge"
	"sqlpilot/cli/internal/bridge/model"
	"sqlpilot/cli/internal/history"
	"sqlpilot/cli/internal/render"
	"sqlpilot/cli/internal/session"
	"sqlpilot/cli/internal/terminal"
	"sqlpilot/cli/internal/xdg"
)

var shellFlags struct {
	schemas    []string
	schemaDirs []string
	recursive  bool
	dialect    string
	model      string
	noStream   bool
	noSave     bool
	watch      bool
}

// shellCmd starts an interactive session.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive SQL generation session",
	Long: `The shell command reads requests line by line and answers each with SQL for the
selected dialect. Table descriptions loaded with --schema or --schema-dir are
sent with every request. Type /help inside the shell for commands, and exit or
quit to leave. Ctrl-C cancels a running request; pressed at the prompt it ends
the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(true)
		if err != nil {
			return err
		}
		cfg := env.Config
		if shellFlags.model != "" {
			cfg.API.Model = shellFlags.model
		}
		if shellFlags.dialect != "" {
			cfg.SQL.Dialect = shellFlags.dialect
		}
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}

		host := hostOf(cfg.API.BaseURL)
		b := bridge.New(bridge.Options{
			APIKey:  cfg.API.Key,
			BaseURL: cfg.API.BaseURL,
			Timeout: time.Duration(cfg.Model.Timeout) * time.Second,
			Logger:  env.log,
		})

		var writer *artifact.Writer
		if cfg.Output.Enabled && !shellFlags.noSave {
			writer = artifact.NewWriter(cfg.Output.Dir,
				artifact.WithPrefix(cfg.Output.Prefix),
				artifact.WithLogger(env.log))
		}

		opts := session.Options{
			Bridge: b,
			Model:  cfg.API.Model,
			Params: model.Params{
				Temperature:      cfg.Model.Temperature,
				MaxTokens:        cfg.Model.MaxTokens,
				TopP:             cfg.Model.TopP,
				PresencePenalty:  cfg.Model.PresencePenalty,
				FrequencyPenalty: cfg.Model.FrequencyPenalty,
			},
			Stream:      cfg.Model.Stream && !shellFlags.noStream,
			Dialect:     cfg.SQL.Dialect,
			SchemaFiles: shellFlags.schemas,
			SchemaDirs:  shellFlags.schemaDirs,
			Recursive:   shellFlags.recursive,
			Watch:       shellFlags.watch,
			IdleTimeout: time.Duration(cfg.Session.Timeout) * time.Second,
			MaxHistory:  cfg.Session.MaxHistory,
			Writer:      writer,
			Logger:      env.log,
		}

		if cfg.History.Enabled {
			store, err := openHistory()
			if err != nil {
				env.log.Warn("history disabled", "err", err)
			} else {
				defer store.Close()
				opts.History = store
			}
		}

		engine, report, err := session.New(opts)
		if err != nil {
			return err
		}

		sink := render.NewTerminal(render.Options{
			Out:     cmd.OutOrStdout(),
			Err:     cmd.ErrOrStderr(),
			Spinner: terminal.IsInteractive(os.Stdout),
			Host:    host,
		})
		printBanner(cmd.OutOrStdout(), engine, cfg.API.Model, writer)
		if len(shellFlags.schemas)+len(shellFlags.schemaDirs) > 0 {
			sink.Notice(session.DescribeLoad(report))
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		interrupts := make(chan struct{}, 1)
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-sigs:
					select {
					case interrupts <- struct{}{}:
					default:
					}
				}
			}
		}()

		reason := engine.Run(ctx, readLines(ctx, cmd.InOrStdin()), interrupts, sink)
		switch reason {
		case session.ExitIdleTimeout:
			pterm.Info.Printfln("Session closed after %ds without input.", cfg.Session.Timeout)
		case session.ExitInterrupted:
			pterm.Println()
			pterm.Info.Println("Interrupted.")
		default:
			pterm.Println("Bye.")
		}
		env.log.Info("session ended", "reason", string(reason))
		return nil
	},
}

func openHistory() (*history.Store, error) {
	path, err := xdg.HistoryFile()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// readLines feeds stdin to the session one line at a time and closes the
// channel at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func printBanner(w io.Writer, engine *session.Engine, modelName string, writer *artifact.Writer) {
	pterm.Fprintln(w, pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("SQLPilot"))
	saving := "off"
	if writer != nil {
		saving = writer.Dir()
	}
	pterm.Fprintln(w, pterm.NewStyle(pterm.FgGray).Sprint(
		fmt.Sprintf("model %s · dialect %s · saving to %s · /help for commands", modelName, engine.Dialect(), saving)))
}

func init() {
	rootCmd.AddCommand(shellCmd)
	f := shellCmd.Flags()
	f.StringArrayVar(&shellFlags.schemas, "schema", nil, "Schema YAML file to load (repeatable)")
	f.StringArrayVar(&shellFlags.schemaDirs, "schema-dir", nil, "Directory of schema YAML files to load (repeatable)")
	f.BoolVar(&shellFlags.recursive, "recursive", false, "Descend into subdirectories of --schema-dir")
	f.StringVarP(&shellFlags.dialect, "dialect", "d", "", "Target SQL dialect (overrides sql.dialect)")
	f.StringVarP(&shellFlags.model, "model", "m", "", "Model name (overrides api.model)")
	f.BoolVar(&shellFlags.noStream, "no-stream", false, "Wait for the full answer instead of streaming")
	f.BoolVar(&shellFlags.noSave, "no-save", false, "Do not write generated SQL to disk")
	f.BoolVar(&shellFlags.watch, "watch", false, "Reload schema files when they change")
}
