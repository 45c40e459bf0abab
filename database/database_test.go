package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suratgen/records"
	"suratgen/templatestore"
)

func TestInitDB_SQLiteMigrates(t *testing.T) {
	db, err := InitDB("sqlite", filepath.Join(t.TempDir(), "suratgen.db"), false)
	require.NoError(t, err)

	m := db.Migrator()
	assert.True(t, m.HasTable(&templatestore.TemplateEntry{}))
	assert.True(t, m.HasTable(&records.Record{}))
	assert.True(t, m.HasTable(&records.AuditLog{}))

	// running it twice is harmless
	assert.NoError(t, Migrate(db))
}

func TestInitDB_BadPath(t *testing.T) {
	_, err := InitDB("sqlite", filepath.Join(t.TempDir(), "missing", "dir", "x.db"), false)
	assert.Error(t, err)
}
