// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("dialect", func(fl validator.FieldLevel) bool {
		return dialect.IsSupported(fl.Field().String())
	})
	return v
}

// Validate checks every field and normalizes the dialect name.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errs.Wrap(errs.ConfigInvalid, "configuration could not be validated", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		first := verrs[0]
		kind := errs.ConfigInvalid
		if first.Tag() == "dialect" {
			kind = errs.DialectUnsupported
		}
		return errs.New(kind, strings.Join(msgs, "; "))
	}
	c.SQL.Dialect = string(dialect.Normalize(c.SQL.Dialect))
	return nil
}

// describe turns a field error into "model.top_p must be <= 1".
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", key, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "dialect":
		return fmt.Sprintf("unsupported SQL dialect %q (run 'sqlpilot dialects')", fe.Value())
	case "excludesall":
		return key + " must not contain path separators"
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}
