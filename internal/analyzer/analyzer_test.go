// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpilot/cli/internal/dialect"
)

func TestAnalyzeSelect(t *testing.T) {
	r := New().Analyze(`SELECT o.id, c.name
FROM orders o JOIN customers c ON o.customer_id = c.id
WHERE o.amount > 10`, "hivesql")

	require.True(t, r.Valid, r.Error)
	assert.Equal(t, dialect.Hive, r.Dialect)
	require.Len(t, r.Statements, 1)
	s := r.Statements[0]
	assert.Equal(t, "select", s.Type)
	assert.True(t, s.ReadOnly)
	assert.Equal(t, []string{"customers", "orders"}, s.Tables)
	assert.NotEmpty(t, s.Formatted)
}

func TestAnalyzeMultipleStatements(t *testing.T) {
	r := New().Analyze("INSERT INTO audit (id) VALUES (1); UPDATE shop.orders SET amount = 0 WHERE id = 2;", dialect.MySQL)
	require.True(t, r.Valid, r.Error)
	require.Len(t, r.Statements, 2)
	assert.Equal(t, "insert", r.Statements[0].Type)
	assert.False(t, r.Statements[0].ReadOnly)
	assert.Equal(t, "update", r.Statements[1].Type)
	assert.Equal(t, []string{"audit", "shop.orders"}, r.Tables())
}

func TestAnalyzeInvalid(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{name: "empty", sql: "   "},
		{name: "garbage", sql: "SELEC FROM WHERE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New().Analyze(tt.sql, dialect.Postgres)
			assert.False(t, r.Valid)
			assert.NotEmpty(t, r.Error)
			assert.Empty(t, r.Statements)
		})
	}
}

func TestFormat(t *testing.T) {
	out, err := New().Format("select  id from   orders where id=1")
	require.NoError(t, err)
	assert.Equal(t, "select id from orders where id = 1;", out)

	_, err = New().Format("not sql at all")
	assert.Error(t, err)
}
