// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"sqlpilot/cli/internal/config"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/keychain"
	"sqlpilot/cli/internal/logging"
)

// environment is the resolved configuration shared by subcommands.
type environment struct {
	config.Result
	log *slog.Logger
}

// loadEnvironment resolves configuration and builds the diagnostic logger.
// withSecrets consults the OS keychain for the API key.
func loadEnvironment(withSecrets bool) (*environment, error) {
	var opts config.Options
	if withSecrets {
		if km, err := keychain.GetManager(); err == nil {
			opts.Secrets = km
		}
	}

	res, err := config.Load(opts)
	if err != nil {
		return nil, err
	}

	level := res.Config.Log.Level
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, errs.Wrap(errs.ConfigInvalid, "invalid --log-level", err)
		}
		level = logLevel
	}

	env := &environment{Result: res, log: logging.NewLogger(level, os.Stderr)}
	env.log.Debug("configuration loaded", "files", res.Files, "key_source", res.KeySource)
	return env, nil
}

// hostOf returns the host of an endpoint URL for error hints.
func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}

func unsupportedDialect(name string) error {
	return errs.New(errs.DialectUnsupported,
		fmt.Sprintf("unsupported dialect %q; run 'sqlpilot dialects' for the list", name))
}
