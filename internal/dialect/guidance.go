// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

var guidance = map[Name]string{
	Hive: `When working with Hive:
1. Use partition columns in WHERE clauses so partitions are pruned
2. Prefer MAP JOIN for small dimension tables
3. Watch for data skew on join and group keys
4. Prefer columnar file formats (ORC, Parquet)
5. Consider bucketing for very large tables
6. Remember that Hive transactions are limited`,

	BigQuery: `When working with BigQuery:
1. Filter on partitioning and clustering columns
2. Select only the columns you need to keep scanned bytes low
3. Use table expiration for temporary results
4. Use BigQuery ML when a model is requested
5. Pick data types that keep storage compact
6. Use authorized views when access must be restricted`,

	Snowflake: `When working with Snowflake:
1. Size warehouses to the workload
2. Use time travel for point-in-time queries
3. Use clustering keys on large tables
4. Consider materialized views for repeated aggregations
5. Keep credit usage in mind
6. Let micro-partition pruning work by filtering on clustered columns`,

	Postgres: `When working with PostgreSQL:
1. Pick the right index type (B-tree, GIN, GiST, BRIN)
2. Consider materialized views for heavy aggregations
3. Validate plans with EXPLAIN ANALYZE
4. Use PostgreSQL features such as CTEs, window functions and JSONB operators
5. Consider declarative partitioning for large tables
6. Keep VACUUM and ANALYZE in mind for write-heavy tables`,

	MySQL: `When working with MySQL:
1. Assume InnoDB unless told otherwise
2. Design indexes for coverage of the query
3. Validate plans with EXPLAIN
4. Be aware of transaction isolation levels
5. Consider partitioning for large tables
6. Use appropriate character sets and collations`,

	Spark: `When working with Spark SQL:
1. Minimize shuffles caused by joins and aggregations
2. Cache intermediate results only when reused
3. Filter on partition columns
4. Use broadcast joins for small tables
5. Use window functions instead of self joins
6. Use optimizer hints sparingly and deliberately`,

	Redshift: `When working with Redshift:
1. Respect the distribution key when joining
2. Filter on sort keys
3. Remember VACUUM and ANALYZE after large loads
4. Consider column compression encodings
5. Keep WLM queue limits in mind
6. Select only the columns you need`,

	ClickHouse: `When working with ClickHouse:
1. Match the query to the table engine (MergeTree family)
2. Filter on the primary key prefix
3. Consider materialized views for rollups
4. Use distributed tables for sharded data
5. Use data skipping indices where they help
6. Prefer ClickHouse aggregate functions such as uniq and quantile`,

	Databricks: `When working with Databricks SQL:
1. Use Delta Lake features (MERGE, time travel, OPTIMIZE)
2. Filter on partition and Z-order columns
3. Let Photon accelerate scans by keeping predicates simple
4. Prefer Delta over raw file formats
5. Rely on data skipping statistics
6. Keep concurrency in mind for shared warehouses`,

	Oracle: `When working with Oracle:
1. Use indexes that match access paths
2. Consider materialized views
3. Use partitioning effectively
4. Use optimizer hints only when necessary
5. Consider parallel execution for large scans
6. Use FETCH FIRST n ROWS ONLY instead of ROWNUM tricks where possible`,

	Presto: `When working with Presto:
1. Use connector-specific optimizations
2. Write predicates that can be pushed down
3. Keep memory usage in mind for large joins
4. Put the larger table on the left side of joins
5. Use approximate functions such as approx_distinct when exactness is not required
6. Rely on dynamic filtering for selective joins`,

	SQLite: `When working with SQLite:
1. Use indexes that match WHERE and ORDER BY clauses
2. Remember that types are dynamic and affinity based
3. Keep write transactions short
4. Use WAL mode for concurrent readers
5. Avoid features SQLite lacks, such as RIGHT JOIN on older versions
6. Use parameters instead of string concatenation`,

	Doris: `When working with Doris:
1. Match the data model (duplicate, aggregate, unique)
2. Consider rollup tables
3. Filter on partition and bucket columns
4. Use materialized views for repeated aggregations
5. Choose distribution keys to avoid skew
6. Use bitmap indexes for low-cardinality filters`,

	StarRocks: `When working with StarRocks:
1. Match the table type (duplicate, aggregate, unique, primary key)
2. Consider materialized views
3. Filter on sort key prefixes
4. Choose distribution keys to avoid skew
5. Keep resource isolation in mind
6. Let the cost-based optimizer pick join strategies`,

	Trino: `When working with Trino:
1. Use connector-specific optimizations
2. Rely on dynamic filtering for selective joins
3. Keep resource groups in mind
4. Watch memory usage for large joins and aggregations
5. Put the larger table on the left side of joins
6. Write predicates that can be pushed down`,
}
