package populator

import (
	"context"
	"database/sql"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	stmt := createTableSQL(Table{
		Name:         `odd"name`,
		WithoutRowID: true,
		Columns: []Column{
			{Name: "id", Type: TypeInteger, PrimaryKey: true},
			{Name: "label", Type: TypeText, NotNull: true, Default: "''"},
		},
	})
	assert.Equal(t, "CREATE TABLE \"odd\"\"name\" (\n"+
		"    \"id\" INTEGER PRIMARY KEY,\n"+
		"    \"label\" TEXT NOT NULL DEFAULT ''\n"+
		") WITHOUT ROWID", stmt)
}

func TestCreateTableSQLOptions(t *testing.T) {
	stmt := createTableSQL(Table{
		Name:         "kv",
		Strict:       true,
		WithoutRowID: true,
		Columns:      []Column{{Name: "k", Type: TypeText, PrimaryKey: true}},
	})
	assert.Equal(t, "CREATE TABLE \"kv\" (\n    \"k\" TEXT PRIMARY KEY\n) STRICT, WITHOUT ROWID", stmt)
}

func TestRandomIsReproducible(t *testing.T) {
	a := Random(rand.New(rand.NewSource(7)), 4)
	b := Random(rand.New(rand.NewSource(7)), 4)
	assert.Equal(t, a, b)
	require.Len(t, a, 4)
	for _, table := range a {
		assert.GreaterOrEqual(t, len(table.Columns), 5)
		assert.LessOrEqual(t, len(table.Columns), 20)
		assert.Equal(t, "id", table.Columns[0].Name)
		assert.True(t, table.Columns[0].PrimaryKey)
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))

	source, _ := DemoPair()
	require.NoError(t, Create(context.Background(), path, source))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"audit_log", "orders", "users"}, names)
}

func TestCreateEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, Create(context.Background(), path, nil))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
