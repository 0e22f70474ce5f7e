// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/xdg"
)

// ProjectFiles are looked up in the working directory, first match wins.
var ProjectFiles = []string{".sqlpilot.yaml", ".sqlpilot.yml", ".sqlpilot.toml"}

// legacyKeyEnv is honored for api.key when SQLPILOT_API_KEY is unset.
const legacyKeyEnv = "API_KEY"

// SecretSource supplies the API key from the OS keychain.
type SecretSource interface {
	LoadAPIKey() (string, error)
}

// Options controls where Load looks. Zero values use the real locations.
type Options struct {
	// UserFile overrides $XDG_CONFIG_HOME/sqlpilot/config.yaml.
	UserFile string
	// ProjectDir overrides the working directory.
	ProjectDir string
	// Getenv overrides os.Getenv.
	Getenv func(string) string
	// Secrets is consulted for api.key when no other layer sets it.
	Secrets SecretSource
}

// Result is a resolved configuration plus where it came from.
type Result struct {
	Config Config
	// Files lists the config files that were read, lowest precedence first.
	Files []string
	// KeySource names the layer that supplied api.key ("" when none did).
	KeySource string
}

// Load resolves and validates the configuration.
func Load(opts Options) (Result, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	res := Result{Config: Defaults()}
	cfg := &res.Config

	if opts.Secrets != nil {
		if key, err := opts.Secrets.LoadAPIKey(); err == nil && strings.TrimSpace(key) != "" {
			cfg.API.Key = key
			res.KeySource = "keychain"
		}
	}

	userFile := opts.UserFile
	if userFile == "" {
		p, err := xdg.ConfigFile()
		if err == nil {
			userFile = p
		}
	}
	if userFile != "" {
		before := cfg.API.Key
		read, err := decodeFile(userFile, cfg)
		if err != nil {
			return res, err
		}
		if read {
			res.Files = append(res.Files, userFile)
			if cfg.API.Key != before {
				res.KeySource = "user file"
			}
		}
	}

	dir := opts.ProjectDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	for _, name := range ProjectFiles {
		p := filepath.Join(dir, name)
		before := cfg.API.Key
		read, err := decodeFile(p, cfg)
		if err != nil {
			return res, err
		}
		if read {
			res.Files = append(res.Files, p)
			if cfg.API.Key != before {
				res.KeySource = "project file"
			}
			break
		}
	}

	if err := applyEnv(cfg, getenv, &res); err != nil {
		return res, err
	}

	if err := cfg.Validate(); err != nil {
		return res, err
	}
	return res, nil
}

func applyEnv(cfg *Config, getenv func(string) string, res *Result) error {
	for _, key := range Keys() {
		v, ok := lookup(getenv, EnvName(key))
		if !ok {
			continue
		}
		if err := cfg.Set(key, v); err != nil {
			return errs.Wrap(errs.ConfigInvalid, "environment variable "+EnvName(key), err)
		}
		if key == "api.key" {
			res.KeySource = "environment"
		}
	}
	if _, ok := lookup(getenv, EnvName("api.key")); !ok {
		if v, ok := lookup(getenv, legacyKeyEnv); ok {
			cfg.API.Key = v
			res.KeySource = "environment"
		}
	}
	return nil
}

func lookup(getenv func(string) string, name string) (string, bool) {
	v := getenv(name)
	return v, v != ""
}

// decodeFile overlays the file at path onto cfg. It reports false when the
// file does not exist.
func decodeFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errs.Wrap(errs.ConfigInvalid, "cannot read "+path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return false, errs.Wrap(errs.ConfigInvalid, "malformed TOML in "+path, err)
		}
		return true, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, errs.Wrap(errs.ConfigInvalid, "malformed YAML in "+path, err)
	}
	return true, nil
}

// SetUserValue validates key=value against the current configuration and
// writes it to the user file with 0600 permissions. Other keys already in
// the file are preserved.
func SetUserValue(path, key, value string) error {
	if key == "api.key" {
		return errs.New(errs.ConfigInvalid, "api.key is stored in the OS keychain; use 'sqlpilot key set'")
	}

	candidate := Defaults()
	if _, err := decodeFile(path, &candidate); err != nil {
		return err
	}
	if err := candidate.Set(key, value); err != nil {
		return err
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errs.Wrap(errs.ConfigInvalid, "malformed YAML in "+path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(errs.ConfigInvalid, "cannot read "+path, err)
	}

	typed, _ := candidate.Get(key)
	var node any = typed
	if !fields[key].text {
		if err := yaml.Unmarshal([]byte(typed), &node); err != nil || node == nil {
			node = typed
		}
	}
	if err := setPath(doc, strings.Split(key, "."), node); err != nil {
		return errs.Wrap(errs.ConfigInvalid, "cannot update "+path, err)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func setPath(doc map[string]any, parts []string, value any) error {
	if len(parts) == 1 {
		doc[parts[0]] = value
		return nil
	}
	next, ok := doc[parts[0]]
	if !ok || next == nil {
		child := map[string]any{}
		doc[parts[0]] = child
		return setPath(child, parts[1:], value)
	}
	child, ok := next.(map[string]any)
	if !ok {
		return fmt.Errorf("%s is not a section", parts[0])
	}
	return setPath(child, parts[1:], value)
}
