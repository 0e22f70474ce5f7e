// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/httperrors"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatError renders a typed error as a titled block with hints. host names
// the model endpoint for transport errors. Errors without a kind fall back to
// PresentError.
func FormatError(err error, host string) string {
	var e *errs.E
	if !errors.As(err, &e) {
		return Mask(err.Error())
	}

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title(e.Kind)))
	b.WriteString("\n")
	b.WriteString(Mask(e.Message))
	b.WriteString("\n")

	hints := hintsFor(e, host)
	if len(hints) > 0 {
		b.WriteString("\n")
		for _, h := range hints {
			b.WriteString("  • ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}

	if d := e.Detail(); d != "" && e.Kind != errs.Canceled {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + truncate(Mask(d), 300)))
		b.WriteString("\n")
	}
	return b.String()
}

func title(k errs.Kind) string {
	switch k {
	case errs.Transport:
		return "Request failed"
	case errs.Timeout:
		return "Request timed out"
	case errs.Auth:
		return "Authentication failed"
	case errs.Canceled:
		return "Canceled"
	case errs.ConfigInvalid:
		return "Invalid configuration"
	case errs.CredentialMissing:
		return "API key missing"
	case errs.DialectUnsupported:
		return "Unsupported dialect"
	case errs.SchemaLoad:
		return "Schema not loaded"
	case errs.ArtifactWrite:
		return "Could not save SQL"
	default:
		return "Error"
	}
}

func hintsFor(e *errs.E, host string) []string {
	var category httperrors.Category
	switch e.Kind {
	case errs.Auth:
		category = httperrors.Auth
	case errs.Timeout:
		category = httperrors.Timeout
	case errs.Transport:
		category = httperrors.Classify(e.Err)
	case errs.CredentialMissing:
		return []string{"Run 'sqlpilot key set' to store a key in the OS keychain", "Or export SQLPILOT_API_KEY"}
	case errs.DialectUnsupported:
		return []string{"Run 'sqlpilot dialects' to list supported dialects"}
	default:
		return nil
	}
	_, hints := httperrors.Explain(category, host)
	return hints
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
