// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config resolves CLI configuration from layered sources.
//
// Precedence, highest first: environment (SQLPILOT_<KEY>), project file
// (.sqlpilot.yaml/.yml/.toml in the working directory), user file
// ($XDG_CONFIG_HOME/sqlpilot/config.yaml), OS keychain (api.key only), and
// built-in defaults. Each layer only overrides the keys it actually sets.
package config

import (
	"fmt"
	"strings"

	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
)

// Config holds every recognized setting.
type Config struct {
	API     APIConfig     `yaml:"api" toml:"api"`
	Model   ModelConfig   `yaml:"model" toml:"model"`
	SQL     SQLConfig     `yaml:"sql" toml:"sql"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	History HistoryConfig `yaml:"history" toml:"history"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// APIConfig locates the model endpoint.
type APIConfig struct {
	Key     string `yaml:"key,omitempty" toml:"key"`
	BaseURL string `yaml:"base_url" toml:"base_url" validate:"required,url"`
	Model   string `yaml:"model" toml:"model" validate:"required"`
}

// ModelConfig holds sampling parameters. Timeout is in seconds.
type ModelConfig struct {
	Temperature      float64 `yaml:"temperature" toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens        int     `yaml:"max_tokens" toml:"max_tokens" validate:"gt=0"`
	TopP             float64 `yaml:"top_p" toml:"top_p" validate:"gte=0,lte=1"`
	PresencePenalty  float64 `yaml:"presence_penalty" toml:"presence_penalty" validate:"gte=-2,lte=2"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" toml:"frequency_penalty" validate:"gte=-2,lte=2"`
	Timeout          int     `yaml:"timeout" toml:"timeout" validate:"gt=0"`
	Stream           bool    `yaml:"stream" toml:"stream"`
}

// SQLConfig selects the target dialect.
type SQLConfig struct {
	Dialect string `yaml:"dialect" toml:"dialect" validate:"required,dialect"`
}

// SessionConfig controls the interactive loop. Timeout is in seconds; 0
// disables the idle watchdog.
type SessionConfig struct {
	Timeout    int `yaml:"timeout" toml:"timeout" validate:"gte=0"`
	MaxHistory int `yaml:"max_history" toml:"max_history" validate:"gte=2"`
}

// OutputConfig controls artifact files.
type OutputConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir" validate:"required_if=Enabled true"`
	Prefix  string `yaml:"prefix" toml:"prefix" validate:"excludesall=/\\"`
}

// HistoryConfig controls the artifact index.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-reasoner",
		},
		Model: ModelConfig{
			Temperature: 0.7,
			MaxTokens:   2000,
			TopP:        0.9,
			Timeout:     30,
			Stream:      true,
		},
		SQL:     SQLConfig{Dialect: string(dialect.Default)},
		Session: SessionConfig{Timeout: 300, MaxHistory: 20},
		Output:  OutputConfig{Enabled: true, Dir: "generated_sql"},
		History: HistoryConfig{Enabled: true},
		Log:     LogConfig{Level: "warn"},
	}
}

// RequireCredentials fails when no API key was resolved from any layer.
func (c Config) RequireCredentials() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return errs.New(errs.CredentialMissing,
			"no API key configured; run 'sqlpilot key set' or set SQLPILOT_API_KEY")
	}
	return nil
}

// Masked returns a copy safe to print.
func (c Config) Masked() Config {
	c.API.Key = MaskKey(c.API.Key)
	return c
}

// MaskKey keeps only enough of a key to recognize it.
func MaskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "***"
	default:
		return key[:3] + "***" + key[len(key)-4:]
	}
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// String renders the configuration as "key = value" lines in key order.
func (c Config) String() string {
	var b strings.Builder
	for _, k := range Keys() {
		v, _ := c.Get(k)
		fmt.Fprintf(&b, "%s = %s\n", k, v)
	}
	return b.String()
}
