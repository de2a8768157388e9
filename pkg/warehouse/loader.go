package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 500

// MaxParams bounds the bind parameters of one statement. Postgres rejects
// more than 65535.
const MaxParams = 65535

// InsertError reports a failed insert. Rows before Row stay loaded.
type InsertError struct {
	Table string
	Row   int
	// Statement is the failing statement rendered with literal values. When
	// a value cannot be encoded it holds the rows of the batch encoded
	// before the failure, or the parameterized statement if there are none.
	Statement string
	Err       error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert into %s failed at row %d: %v", e.Table, e.Row, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Loader inserts dataset rows into materialized tables.
type Loader struct {
	conn      Conn
	dialect   *dialect.Dialect
	logger    *slog.Logger
	batchSize int
}

// NewLoader creates a loader. batchSize <= 0 uses DefaultBatchSize.
func NewLoader(conn Conn, d *dialect.Dialect, logger *slog.Logger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{conn: conn, dialect: mustDialect(d), logger: orDiscard(logger), batchSize: batchSize}
}

// InsertRows inserts every row of ds into the entity's table in source
// order and returns the number of rows inserted.
func (l *Loader) InsertRows(ctx context.Context, e schema.Entity, ds *dataset.Dataset) (int64, error) {
	plan, err := schema.Plan(e, ds.Names())
	if err != nil {
		return 0, err
	}
	return l.Insert(ctx, plan, ds)
}

// Insert inserts ds into the table described by plan.
func (l *Loader) Insert(ctx context.Context, plan *schema.TablePlan, ds *dataset.Dataset) (int64, error) {
	cols, sources, err := loadSources(plan, ds)
	if err != nil {
		return 0, err
	}

	batch := l.rowsPerBatch(len(cols))
	var inserted int64
	var stmt string
	for start := 0; start < ds.Len(); start += batch {
		end := min(start+batch, ds.Len())

		args := make([]any, 0, (end-start)*len(cols))
		for r := start; r < end; r++ {
			for i, c := range cols {
				v, err := encodeCell(c, sources[i].Values[r])
				if err != nil {
					return inserted, &InsertError{
						Table:     plan.Table,
						Row:       r,
						Statement: l.partialStatement(plan.Table, cols, args, end-start),
						Err:       fmt.Errorf("column %s: %w", c.Name, err),
					}
				}
				args = append(args, v)
			}
		}

		if stmt == "" || end-start != batch {
			stmt = InsertStatement(l.dialect, plan.Table, cols, end-start)
		}
		if _, err := l.conn.Exec(ctx, stmt, args...); err != nil {
			l.logger.Error("insert failed, table partially loaded",
				"table", plan.Table, "inserted", inserted, "failed_at", start, "error", err)
			return inserted, &InsertError{
				Table:     plan.Table,
				Row:       start,
				Statement: RenderInsert(l.dialect, plan.Table, cols, args),
				Err:       err,
			}
		}
		inserted += int64(end - start)
	}

	l.logger.Info("inserted", "table", plan.Table, "rows", inserted)
	return inserted, nil
}

// rowsPerBatch keeps a statement over width columns within MaxParams.
func (l *Loader) rowsPerBatch(width int) int {
	if width == 0 {
		return l.batchSize
	}
	return max(1, min(l.batchSize, MaxParams/width))
}

// partialStatement renders the complete rows of args, dropping the row
// whose encoding failed. With no complete row it falls back to the
// parameterized statement for the batch.
func (l *Loader) partialStatement(table string, cols []schema.ColumnDef, args []any, rows int) string {
	if len(cols) == 0 {
		return ""
	}
	done := len(args) - len(args)%len(cols)
	if done == 0 {
		return InsertStatement(l.dialect, table, cols, rows)
	}
	return RenderInsert(l.dialect, table, cols, args[:done])
}

// RenderSample renders an INSERT of the first n rows of ds with literal
// values, for review before a load.
func RenderSample(d *dialect.Dialect, plan *schema.TablePlan, ds *dataset.Dataset, n int) (string, error) {
	cols, sources, err := loadSources(plan, ds)
	if err != nil {
		return "", err
	}
	n = min(n, ds.Len())
	if n <= 0 {
		return "", nil
	}

	args := make([]any, 0, n*len(cols))
	for r := range n {
		for i, c := range cols {
			v, err := encodeCell(c, sources[i].Values[r])
			if err != nil {
				return "", &InsertError{Table: plan.Table, Row: r, Err: fmt.Errorf("column %s: %w", c.Name, err)}
			}
			args = append(args, v)
		}
	}
	return RenderInsert(d, plan.Table, cols, args), nil
}

// loadSources pairs each load column with the dataset column feeding it.
func loadSources(plan *schema.TablePlan, ds *dataset.Dataset) ([]schema.ColumnDef, []dataset.Column, error) {
	cols := plan.LoadColumns()
	sources := make([]dataset.Column, len(cols))
	for i, c := range cols {
		name := c.Name
		if c.Role == schema.RolePlaceholder {
			name = c.Source
		}
		col, ok := ds.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("insert into %s: dataset has no column %q", plan.Table, name)
		}
		sources[i] = col
	}
	return cols, sources, nil
}

// encodeCell produces the value for one load column. A placeholder is 0
// when the business key it shadows is present and NULL otherwise.
func encodeCell(c schema.ColumnDef, raw any) (any, error) {
	if c.Role == schema.RolePlaceholder {
		if dataset.IsNull(raw) {
			return nil, nil
		}
		return int64(0), nil
	}
	return Encode(c.Type, raw)
}

// InsertStatement renders a parameterized multi-row INSERT.
func InsertStatement(d *dialect.Dialect, table string, cols []schema.ColumnDef, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdentifier(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdentifier(c.Name))
	}
	b.WriteString(") VALUES ")

	n := 1
	for r := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.FormatPlaceholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// RenderInsert renders a multi-row INSERT with literal values. args holds
// the encoded cells row-major.
func RenderInsert(d *dialect.Dialect, table string, cols []schema.ColumnDef, args []any) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdentifier(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdentifier(c.Name))
	}
	b.WriteString(") VALUES ")

	for i, v := range args {
		switch {
		case i%len(cols) == 0 && i > 0:
			b.WriteString("), (")
		case i == 0:
			b.WriteByte('(')
		default:
			b.WriteString(", ")
		}
		b.WriteString(d.Literal(v))
	}
	if len(args) > 0 {
		b.WriteByte(')')
	}
	return b.String()
}
