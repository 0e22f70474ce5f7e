// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"fmt"
	"strings"
)

// RenderPrompt returns a deterministic summary of the catalog for the system
// prompt. It returns "" for an empty store so the section can be omitted.
func (s *Store) RenderPrompt() string {
	tables := s.snapshot()
	if len(tables) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Database schema:")
	for _, t := range tables {
		b.WriteString("\n\n")
		b.WriteString(RenderTable(t))
	}
	return b.String()
}

// RenderTable formats one table the way it appears in the prompt.
func RenderTable(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s", t.Name)
	if t.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", t.Description)
	}
	b.WriteString("\nColumns:")
	for _, c := range t.Columns {
		b.WriteString("\n- ")
		b.WriteString(renderColumn(c))
	}
	return b.String()
}

func renderColumn(c Column) string {
	line := c.Name
	if c.Type != "" {
		line += " " + c.Type
	}
	if !c.Nullable {
		line += " NOT NULL"
	}
	if c.Description != "" {
		line += " -- " + c.Description
	}
	return line
}
