package storedb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() []Migration {
	return []Migration{
		{Version: 2, Name: "add_note", SQL: `ALTER TABLE items ADD COLUMN note TEXT NOT NULL DEFAULT ''`},
		{Version: 1, Name: "create_items", SQL: `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`},
	}
}

func TestOpen_AppliesMigrationsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	db, err := Open(OpenOptions{Path: path, Module: "items", Migrations: testMigrations()})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO items(name, note) VALUES ('a', 'b')`)
	require.NoError(t, err)

	v, err := CurrentVersion(context.Background(), db, "items")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	for i := 0; i < 2; i++ {
		db, err := Open(OpenOptions{Path: path, Module: "items", Migrations: testMigrations()})
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}

	db, err := Open(OpenOptions{Path: path, Module: "items", Migrations: testMigrations()})
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE module = 'items'`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpen_ModulesAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	db, err := Open(OpenOptions{Path: path, Module: "items", Migrations: testMigrations()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(OpenOptions{Path: path, Module: "other", Migrations: []Migration{
		{Version: 1, Name: "create_other", SQL: `CREATE TABLE other (k TEXT)`},
	}})
	require.NoError(t, err)
	defer db.Close()

	v, err := CurrentVersion(context.Background(), db, "other")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = CurrentVersion(context.Background(), db, "items")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestOpen_FailedMigrationRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	_, err := Open(OpenOptions{Path: path, Module: "bad", Migrations: []Migration{
		{Version: 1, Name: "ok", SQL: `CREATE TABLE ok (k TEXT)`},
		{Version: 2, Name: "broken", SQL: `CREATE TABLE ok (k TEXT)`},
	}})
	require.ErrorIs(t, err, ErrMigrate)

	db, err := Open(OpenOptions{Path: path, Module: "bad"})
	require.NoError(t, err)
	defer db.Close()
	v, err := CurrentVersion(context.Background(), db, "bad")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestOpen_InvalidInput(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.ErrorIs(t, err, ErrOpen)

	_, err = Open(OpenOptions{Path: filepath.Join(t.TempDir(), "x.db"), Module: "m", Migrations: []Migration{
		{Version: 0, Name: "zero", SQL: `SELECT 1`},
	}})
	assert.ErrorIs(t, err, ErrMigrate)

	_, err = Open(OpenOptions{Path: filepath.Join(t.TempDir(), "y.db")})
	assert.ErrorIs(t, err, ErrMigrate)
}
