// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package introspect

import "sqlpilot/cli/internal/dsn"

// catalog holds the metadata queries for one engine. tables yields
// (name, comment); columns yields (name, type, 'YES'|'NO', comment).
type catalog struct {
	tables  string
	columns string
	// namespaced engines take the namespace as the first argument.
	namespaced bool
}

func (c catalog) args(namespace string, rest ...string) []any {
	out := make([]any, 0, len(rest)+1)
	if c.namespaced {
		out = append(out, namespace)
	}
	for _, r := range rest {
		out = append(out, r)
	}
	return out
}

var catalogs = map[dsn.DBType]catalog{
	dsn.Postgres: {
		namespaced: true,
		tables: `
		SELECT t.table_name,
			COALESCE(obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class'), '')
		FROM information_schema.tables t
		WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`,
		columns: `
		SELECT c.column_name,
			CASE WHEN c.character_maximum_length IS NOT NULL
				THEN c.data_type || '(' || c.character_maximum_length || ')'
				ELSE c.data_type END,
			c.is_nullable,
			COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), '')
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`,
	},
	dsn.MySQL: {
		namespaced: true,
		tables: `
		SELECT table_name, table_comment
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
		columns: `
		SELECT column_name, column_type, is_nullable, column_comment
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`,
	},
	dsn.SQLite: {
		tables: `
		SELECT name, ''
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
		columns: `
		SELECT name, type, CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END, ''
		FROM pragma_table_info(?)
		ORDER BY cid`,
	},
}
