// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	errs "sqlpilot/cli/internal/errors"
)

const envPrefix = "SQLPILOT_"

// field binds a dotted key to its location in Config.
type field struct {
	get func(*Config) string
	set func(*Config, string) error
	// text marks string-typed keys, written to files as quoted scalars.
	text bool
}

func stringField(p func(*Config) *string) field {
	return field{
		get:  func(c *Config) string { return *p(c) },
		set:  func(c *Config, v string) error { *p(c) = v; return nil },
		text: true,
	}
}

func intField(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected an integer, got %q", v)
			}
			*p(c) = n
			return nil
		},
	}
}

func floatField(p func(*Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("expected a number, got %q", v)
			}
			*p(c) = f
			return nil
		},
	}
}

func boolField(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"api.key":                 stringField(func(c *Config) *string { return &c.API.Key }),
	"api.base_url":            stringField(func(c *Config) *string { return &c.API.BaseURL }),
	"api.model":               stringField(func(c *Config) *string { return &c.API.Model }),
	"model.temperature":       floatField(func(c *Config) *float64 { return &c.Model.Temperature }),
	"model.max_tokens":        intField(func(c *Config) *int { return &c.Model.MaxTokens }),
	"model.top_p":             floatField(func(c *Config) *float64 { return &c.Model.TopP }),
	"model.presence_penalty":  floatField(func(c *Config) *float64 { return &c.Model.PresencePenalty }),
	"model.frequency_penalty": floatField(func(c *Config) *float64 { return &c.Model.FrequencyPenalty }),
	"model.timeout":           intField(func(c *Config) *int { return &c.Model.Timeout }),
	"model.stream":            boolField(func(c *Config) *bool { return &c.Model.Stream }),
	"sql.dialect":             stringField(func(c *Config) *string { return &c.SQL.Dialect }),
	"session.timeout":         intField(func(c *Config) *int { return &c.Session.Timeout }),
	"session.max_history":     intField(func(c *Config) *int { return &c.Session.MaxHistory }),
	"output.enabled":          boolField(func(c *Config) *bool { return &c.Output.Enabled }),
	"output.dir":              stringField(func(c *Config) *string { return &c.Output.Dir }),
	"output.prefix":           stringField(func(c *Config) *string { return &c.Output.Prefix }),
	"history.enabled":         boolField(func(c *Config) *bool { return &c.History.Enabled }),
	"log.level":               stringField(func(c *Config) *string { return &c.Log.Level }),
}

// Keys returns every recognized key, sorted.
func Keys() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the string form of key.
func (c *Config) Get(key string) (string, bool) {
	f, ok := fields[key]
	if !ok {
		return "", false
	}
	return f.get(c), true
}

// Set parses value into key. It does not validate the resulting Config.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return errs.New(errs.ConfigInvalid, fmt.Sprintf("unknown configuration key %q", key))
	}
	if err := f.set(c, value); err != nil {
		return errs.Wrap(errs.ConfigInvalid, "invalid value for "+key, err)
	}
	return nil
}
