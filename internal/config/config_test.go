// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	errs "sqlpilot/cli/internal/errors"
)

type fakeSecrets struct {
	key string
	err error
}

func (f fakeSecrets) LoadAPIKey() (string, error) { return f.key, f.err }

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func isolated(t *testing.T) Options {
	t.Helper()
	root := t.TempDir()
	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))
	return Options{
		UserFile:   filepath.Join(root, "user", "config.yaml"),
		ProjectDir: project,
		Getenv:     env(nil),
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaults(t *testing.T) {
	res, err := Load(isolated(t))
	require.NoError(t, err)

	c := res.Config
	assert.Equal(t, "https://api.deepseek.com/v1", c.API.BaseURL)
	assert.Equal(t, "deepseek-reasoner", c.API.Model)
	assert.Equal(t, 0.7, c.Model.Temperature)
	assert.Equal(t, 2000, c.Model.MaxTokens)
	assert.Equal(t, 0.9, c.Model.TopP)
	assert.Equal(t, 30, c.Model.Timeout)
	assert.True(t, c.Model.Stream)
	assert.Equal(t, "hive", c.SQL.Dialect)
	assert.Equal(t, 300, c.Session.Timeout)
	assert.Equal(t, 20, c.Session.MaxHistory)
	assert.Equal(t, "generated_sql", c.Output.Dir)
	assert.Empty(t, res.Files)

	err = c.RequireCredentials()
	assert.True(t, errs.Is(err, errs.CredentialMissing))
	assert.True(t, errs.CredentialMissing.Fatal())
}

func TestPrecedence(t *testing.T) {
	opts := isolated(t)
	write(t, opts.UserFile, `
api:
  model: user-model
model:
  temperature: 0.1
  max_tokens: 1000
sql:
  dialect: postgres
`)
	write(t, filepath.Join(opts.ProjectDir, ".sqlpilot.toml"), `
[model]
max_tokens = 3000

[sql]
dialect = "snowflake"
`)
	opts.Getenv = env(map[string]string{
		"SQLPILOT_SQL_DIALECT": "bigquery",
		"SQLPILOT_API_KEY":     "sk-env-123456789",
	})
	opts.Secrets = fakeSecrets{key: "sk-keychain-12345"}

	res, err := Load(opts)
	require.NoError(t, err)
	c := res.Config

	assert.Equal(t, "user-model", c.API.Model, "user file beats defaults")
	assert.Equal(t, 0.1, c.Model.Temperature, "untouched by project file")
	assert.Equal(t, 3000, c.Model.MaxTokens, "project file beats user file")
	assert.Equal(t, "bigquery", c.SQL.Dialect, "environment beats files")
	assert.Equal(t, "sk-env-123456789", c.API.Key)
	assert.Equal(t, "environment", res.KeySource)
	assert.Len(t, res.Files, 2)
}

func TestKeySources(t *testing.T) {
	t.Run("keychain", func(t *testing.T) {
		opts := isolated(t)
		opts.Secrets = fakeSecrets{key: "sk-keychain-12345"}
		res, err := Load(opts)
		require.NoError(t, err)
		assert.Equal(t, "sk-keychain-12345", res.Config.API.Key)
		assert.Equal(t, "keychain", res.KeySource)
		assert.NoError(t, res.Config.RequireCredentials())
	})

	t.Run("keychain error is ignored", func(t *testing.T) {
		opts := isolated(t)
		opts.Secrets = fakeSecrets{err: errors.New("locked")}
		res, err := Load(opts)
		require.NoError(t, err)
		assert.Empty(t, res.Config.API.Key)
	})

	t.Run("legacy env", func(t *testing.T) {
		opts := isolated(t)
		opts.Getenv = env(map[string]string{"API_KEY": "sk-legacy"})
		res, err := Load(opts)
		require.NoError(t, err)
		assert.Equal(t, "sk-legacy", res.Config.API.Key)
	})

	t.Run("project file beats keychain", func(t *testing.T) {
		opts := isolated(t)
		opts.Secrets = fakeSecrets{key: "sk-keychain-12345"}
		write(t, filepath.Join(opts.ProjectDir, ".sqlpilot.yaml"), "api:\n  key: sk-project\n")
		res, err := Load(opts)
		require.NoError(t, err)
		assert.Equal(t, "sk-project", res.Config.API.Key)
		assert.Equal(t, "project file", res.KeySource)
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		kind errs.Kind
		msg  string
	}{
		{name: "bad dialect", env: map[string]string{"SQLPILOT_SQL_DIALECT": "cobol"}, kind: errs.DialectUnsupported, msg: "cobol"},
		{name: "temperature range", env: map[string]string{"SQLPILOT_MODEL_TEMPERATURE": "3"}, kind: errs.ConfigInvalid, msg: "model.temperature must be <= 2"},
		{name: "not a number", env: map[string]string{"SQLPILOT_MODEL_MAX_TOKENS": "many"}, kind: errs.ConfigInvalid, msg: "SQLPILOT_MODEL_MAX_TOKENS"},
		{name: "bad url", env: map[string]string{"SQLPILOT_API_BASE_URL": "not a url"}, kind: errs.ConfigInvalid, msg: "api.base_url"},
		{name: "bad level", env: map[string]string{"SQLPILOT_LOG_LEVEL": "loud"}, kind: errs.ConfigInvalid, msg: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := isolated(t)
			opts.Getenv = env(tt.env)
			_, err := Load(opts)
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDialectAliasIsNormalized(t *testing.T) {
	opts := isolated(t)
	opts.Getenv = env(map[string]string{"SQLPILOT_SQL_DIALECT": "HiveSQL"})
	res, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "hive", res.Config.SQL.Dialect)
}

func TestMalformedFile(t *testing.T) {
	opts := isolated(t)
	write(t, opts.UserFile, "model: [")
	_, err := Load(opts)
	assert.True(t, errs.Is(err, errs.ConfigInvalid))
	assert.Contains(t, err.Error(), opts.UserFile)
}

func TestSetUserValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlpilot", "config.yaml")
	write(t, path, "api:\n  model: keep-me\n")

	require.NoError(t, SetUserValue(path, "model.temperature", "0.2"))
	require.NoError(t, SetUserValue(path, "output.prefix", "2024"))
	require.NoError(t, SetUserValue(path, "sql.dialect", "trino"))

	assert.Error(t, SetUserValue(path, "model.temperature", "9"))
	assert.Error(t, SetUserValue(path, "nope.key", "1"))
	assert.Error(t, SetUserValue(path, "api.key", "sk-x"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c Config
	require.NoError(t, yaml.Unmarshal(data, &c))
	assert.Equal(t, "keep-me", c.API.Model)
	assert.Equal(t, 0.2, c.Model.Temperature)
	assert.Equal(t, "2024", c.Output.Prefix)
	assert.Equal(t, "trino", c.SQL.Dialect)
}

func TestMaskedAndString(t *testing.T) {
	c := Defaults()
	c.API.Key = "sk-1234567890abcdef"
	m := c.Masked()
	assert.Equal(t, "sk-***cdef", m.API.Key)
	assert.Equal(t, "sk-1234567890abcdef", c.API.Key)
	assert.Contains(t, m.String(), "api.key = sk-***cdef\n")
	assert.Equal(t, "***", MaskKey("short"))
	assert.Equal(t, "SQLPILOT_API_BASE_URL", EnvName("api.base_url"))
}
