package dbutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizePostgresRebindsAndSwapsLimit(t *testing.T) {
	query, args := Finalize(DialectPostgres, "SELECT id FROM resources WHERE id = ? LIMIT ?, ?", []interface{}{"r1", 10, 5})
	require.Equal(t, "SELECT id FROM resources WHERE id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"r1", 5, 10}, args)
}

func TestFinalizeSQLiteKeepsPlaceholders(t *testing.T) {
	query, args := Finalize(DialectSQLite, "SELECT id FROM resources WHERE id = ?", []interface{}{"r1"})
	require.Equal(t, "SELECT id FROM resources WHERE id = ?", query)
	require.Equal(t, []interface{}{"r1"}, args)
}
