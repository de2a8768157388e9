package extract

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dataset"

	_ "modernc.org/sqlite" // sqlite driver
)

// ReadSQLite reads every row of table from the SQLite database at path.
// The database is opened read-only. Text comes back as string and BLOBs as
// []byte; integers and reals keep their storage class.
func ReadSQLite(ctx context.Context, name, path, table string) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open sqlite source: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite source: %w", err)
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf(`SELECT * FROM "%s"`, strings.ReplaceAll(table, `"`, `""`))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var data [][]any
	for rows.Next() {
		cells := make([]any, len(header))
		ptrs := make([]any, len(header))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return dataset.FromRows(name, header, data)
}
