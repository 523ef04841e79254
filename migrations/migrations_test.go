package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	sql, err := Render("001_init.sql", "customer_balances")
	require.NoError(t, err)
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS customer_balances (")
	assert.NotContains(t, sql, "{{")
	assert.Contains(t, sql, "balance     VARCHAR(255)")
}

func TestRenderClickHouse(t *testing.T) {
	sql, err := Render("002_clickhouse_transactions.sql", "balbatch.transactions")
	require.NoError(t, err)
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS balbatch.transactions (")
	assert.Contains(t, sql, "ORDER BY seq")
}

func TestRenderUnknown(t *testing.T) {
	_, err := Render("999_nope.sql", "t")
	assert.Error(t, err)
}
