package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures t.Log output.
type recorder struct {
	testing.TB
	lines []string
}

func (r *recorder) Helper() {}

func (r *recorder) Log(args ...any) {
	for _, a := range args {
		r.lines = append(r.lines, a.(string))
	}
}

func TestNewTestLogger(t *testing.T) {
	rec := &recorder{TB: t}
	NewTestLogger(rec).Debug("loaded entity", "table", "Item", "rows", 3)

	require.Len(t, rec.lines, 1)
	assert.Equal(t, `level=DEBUG msg="loaded entity" table=Item rows=3`, rec.lines[0])
}

func TestWriteFile_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "data/nested/items.csv", "ITEM_CODE\n1\n")

	assert.Equal(t, filepath.Join(dir, "data", "nested", "items.csv"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ITEM_CODE\n1\n", string(got))
}

func TestWriteSQLite_KeepsInsertedTypes(t *testing.T) {
	path := WriteSQLite(t, t.TempDir(), "sales.sqlite", SQLiteTable{
		Name:    "owner",
		Columns: []string{"OWNER_CODE", "OWNER_NAME", "SCORE"},
		Rows:    [][]any{{42, "Ann", 1.5}, {7, "Bob", nil}},
	})

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT typeof("OWNER_CODE"), typeof("OWNER_NAME"), typeof("SCORE") FROM "owner" ORDER BY rowid`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var got [][3]string
	for rows.Next() {
		var r [3]string
		require.NoError(t, rows.Scan(&r[0], &r[1], &r[2]))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][3]string{
		{"integer", "text", "real"},
		{"integer", "text", "null"},
	}, got)
}
