// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dialect is the static catalog of SQL dialects SQLPilot can target.
// Lookups are case-insensitive and never fail: unknown names simply have no
// guidance. IsSupported is the single gate every dialect mutation goes through.
package dialect

import (
	"sort"
	"strings"
)

// Name identifies a SQL dialect.
type Name string

const (
	Athena      Name = "athena"
	BigQuery    Name = "bigquery"
	ClickHouse  Name = "clickhouse"
	Databricks  Name = "databricks"
	Doris       Name = "doris"
	Drill       Name = "drill"
	Druid       Name = "druid"
	DuckDB      Name = "duckdb"
	Dune        Name = "dune"
	Hive        Name = "hive"
	Materialize Name = "materialize"
	MySQL       Name = "mysql"
	Oracle      Name = "oracle"
	Postgres    Name = "postgres"
	Presto      Name = "presto"
	PRQL        Name = "prql"
	Redshift    Name = "redshift"
	RisingWave  Name = "risingwave"
	Snowflake   Name = "snowflake"
	Spark       Name = "spark"
	Spark2      Name = "spark2"
	SQLite      Name = "sqlite"
	StarRocks   Name = "starrocks"
	Tableau     Name = "tableau"
	Teradata    Name = "teradata"
	Trino       Name = "trino"
	TSQL        Name = "tsql"
)

// Default is the dialect used when configuration does not name one.
const Default = Hive

var supported = map[Name]struct{}{
	Athena: {}, BigQuery: {}, ClickHouse: {}, Databricks: {}, Doris: {},
	Drill: {}, Druid: {}, DuckDB: {}, Dune: {}, Hive: {}, Materialize: {},
	MySQL: {}, Oracle: {}, Postgres: {}, Presto: {}, PRQL: {}, Redshift: {},
	RisingWave: {}, Snowflake: {}, Spark: {}, Spark2: {}, SQLite: {},
	StarRocks: {}, Tableau: {}, Teradata: {}, Trino: {}, TSQL: {},
}

// aliases maps spellings users and older configs commonly use to registry names.
var aliases = map[string]Name{
	"hivesql":    Hive,
	"postgresql": Postgres,
	"pg":         Postgres,
	"mssql":      TSQL,
	"sqlserver":  TSQL,
	"sparksql":   Spark,
	"bq":         BigQuery,
}

// Normalize lowercases name, trims it and resolves known aliases.
// The result is not guaranteed to be supported.
func Normalize(name string) Name {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	return Name(n)
}

// IsSupported reports whether name (after normalization) is in the registry.
func IsSupported(name string) bool {
	_, ok := supported[Normalize(name)]
	return ok
}

// Guidance returns dialect-specific authoring guidance, if any exists.
func Guidance(name string) (string, bool) {
	g, ok := guidance[Normalize(name)]
	return g, ok
}

// Supported returns all registry names sorted alphabetically.
func Supported() []string {
	out := make([]string, 0, len(supported))
	for n := range supported {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}

// WithGuidance returns the sorted subset of dialects that carry guidance text.
func WithGuidance() []string {
	out := make([]string, 0, len(guidance))
	for n := range guidance {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}
