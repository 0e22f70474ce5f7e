// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package prompt assembles the system instruction sent with every turn.
//
// Section order is fixed and affects model output:
// role preamble, SQL guidelines, dialect guidance, schema summary.
// Optional sections that have nothing to say are dropped, never left blank.
package prompt

import (
	"fmt"
	"strings"

	"sqlpilot/cli/internal/dialect"
)

const separator = "\n\n"

const preamble = `You are an AI SQL assistant that helps write and optimize SQL queries.
You have deep knowledge of SQL and database concepts.`

const guidelines = `When writing SQL:
1. Follow SQL best practices for readability and performance
2. Use appropriate indentation and formatting
3. Add helpful comments to explain complex parts
4. Consider query performance and optimization
5. Validate against schema when available`

// SchemaSource renders the schema summary section. An empty string omits it.
type SchemaSource interface {
	RenderPrompt() string
}

// Composer builds system prompts from the active dialect and schema.
type Composer struct {
	schema SchemaSource
}

// NewComposer returns a composer reading schema text from src. src may be nil.
func NewComposer(src SchemaSource) *Composer {
	return &Composer{schema: src}
}

// Compose returns the system prompt for d.
func (c *Composer) Compose(d dialect.Name) string {
	sections := []string{preamble, guidelines}

	if g, ok := dialect.Guidance(string(d)); ok {
		sections = append(sections, DialectSection(d, g))
	}
	if c.schema != nil {
		if s := strings.TrimSpace(c.schema.RenderPrompt()); s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, separator)
}

// DialectSection formats the dialect header followed by its guidance.
func DialectSection(d dialect.Name, guidance string) string {
	return fmt.Sprintf("Current SQL dialect: %s\n%s", strings.ToUpper(string(d)), guidance)
}
