package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lexdoc.db")

	require.NoError(t, RunMigrations(path))
	// A second run is a no-op.
	require.NoError(t, RunMigrations(path))

	conn, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer conn.Close()

	var tables []string
	require.NoError(t, conn.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'schema_%' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"cases", "documents", "filings", "purchases", "users"}, tables)

	var fk int
	require.NoError(t, conn.Get(&fk, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, fk)
}

func TestRunMigrations_PurchasesHaveNoCaseForeignKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexdoc.db")
	require.NoError(t, RunMigrations(path))

	conn, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer conn.Close()

	var refs []string
	require.NoError(t, conn.Select(&refs, `SELECT "table" FROM pragma_foreign_key_list('purchases')`))
	assert.Empty(t, refs)

	var indexes []string
	require.NoError(t, conn.Select(&indexes,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'purchases' ORDER BY name`))
	assert.Equal(t, []string{"idx_purchases_case", "idx_purchases_session", "idx_purchases_user"}, indexes)
}
