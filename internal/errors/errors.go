// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Fatal configuration failures, per-file schema load
// failures and per-turn transport failures all share this shape so callers can
// decide whether to abort, skip or continue based on the Kind alone.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConfigInvalid indicates a configuration value failed validation.
	ConfigInvalid Kind = "config_invalid"
	// CredentialMissing indicates no API key could be resolved.
	CredentialMissing Kind = "credential_missing"
	// DialectUnsupported indicates a dialect outside the registry.
	DialectUnsupported Kind = "dialect_unsupported"
	// SchemaLoad indicates a schema file could not be read or parsed.
	SchemaLoad Kind = "schema_load"
	// Transport indicates a network or remote failure talking to the model.
	Transport Kind = "transport"
	// Timeout indicates the model exchange exceeded its deadline.
	Timeout Kind = "timeout"
	// Auth indicates the model endpoint rejected the credentials.
	Auth Kind = "auth"
	// Canceled indicates the user abandoned the turn.
	Canceled Kind = "canceled"
	// ArtifactWrite indicates generated SQL could not be persisted.
	ArtifactWrite Kind = "artifact_write"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Detail returns the underlying cause as text, or "" when there is none.
func (e *E) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf reports the Kind of the first *E in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Fatal reports whether the kind must abort the program before any turn runs.
func (k Kind) Fatal() bool {
	return k == ConfigInvalid || k == CredentialMissing
}
