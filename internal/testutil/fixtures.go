package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite" // sqlite driver
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// SQLiteTable is a table to create in a fixture database. Columns are
// declared without a type so values keep the type they are inserted with.
type SQLiteTable struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// WriteSQLite creates a SQLite database at dir/name holding tables and
// returns its path.
func WriteSQLite(t testing.TB, dir, name string, tables ...SQLiteTable) string {
	t.Helper()
	path := filepath.Join(dir, name)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, tbl := range tables {
		quoted := make([]string, len(tbl.Columns))
		marks := make([]string, len(tbl.Columns))
		for i, c := range tbl.Columns {
			quoted[i] = `"` + c + `"`
			marks[i] = "?"
		}
		_, err := db.Exec(fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tbl.Name, strings.Join(quoted, ", ")))
		require.NoError(t, err)

		insert := fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, tbl.Name, strings.Join(marks, ", "))
		for _, row := range tbl.Rows {
			_, err := db.Exec(insert, row...)
			require.NoError(t, err)
		}
	}
	return path
}
