// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

// Document is the on-disk schema description format.
type Document struct {
	Tables []Table `yaml:"tables"`
}

// Table represents a database table.
type Table struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"comment,omitempty"`
	Columns     []Column `yaml:"columns"`
}

// Column represents a table column. Nullable defaults to true when the
// source document omits it.
type Column struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Nullable    bool   `yaml:"nullable"`
	Description string `yaml:"comment,omitempty"`
}

// rawColumn is the decoding shape; a nil Nullable means "not specified".
type rawColumn struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Nullable    *bool  `yaml:"nullable"`
	Description string `yaml:"comment"`
}

type rawTable struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"comment"`
	Columns     []rawColumn `yaml:"columns"`
}

type rawDocument struct {
	Tables *[]rawTable `yaml:"tables"`
}

func (r rawTable) toTable() Table {
	t := Table{
		Name:        r.Name,
		Description: r.Description,
		Columns:     make([]Column, 0, len(r.Columns)),
	}
	for _, c := range r.Columns {
		nullable := true
		if c.Nullable != nil {
			nullable = *c.Nullable
		}
		t.Columns = append(t.Columns, Column{
			Name:        c.Name,
			Type:        c.Type,
			Nullable:    nullable,
			Description: c.Description,
		})
	}
	return t
}
