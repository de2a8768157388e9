// Package dataset provides the in-memory tabular model the loader works on:
// ordered named columns of nullable cells, with an optional index column.
//
// Datasets are values. Transformations return new datasets and never modify
// their inputs, so cell slices may be shared between datasets.
package dataset

import (
	"fmt"
)

// Column is a named sequence of cells. A nil cell is null.
type Column struct {
	Name   string
	Values []any
}

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	name    string
	index   string
	columns []Column
	pos     map[string]int
	rows    int
}

// FromColumns builds a dataset from columns of equal length.
func FromColumns(name string, cols ...Column) (*Dataset, error) {
	d := &Dataset{name: name, pos: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := d.pos[c.Name]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", name, c.Name)
		}
		if i == 0 {
			d.rows = len(c.Values)
		} else if len(c.Values) != d.rows {
			return nil, fmt.Errorf("dataset %s: column %q has %d rows, want %d", name, c.Name, len(c.Values), d.rows)
		}
		d.pos[c.Name] = i
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// FromRows builds a dataset from a header and row-major cells.
func FromRows(name string, header []string, rows [][]any) (*Dataset, error) {
	cols := make([]Column, len(header))
	for i, h := range header {
		cols[i] = Column{Name: h, Values: make([]any, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("dataset %s: row %d has %d cells, want %d", name, r, len(row), len(header))
		}
		for i, v := range row {
			cols[i].Values[r] = v
		}
	}
	return FromColumns(name, cols...)
}

// MustFromRows is FromRows for literals in tests and fixtures. It panics on error.
func MustFromRows(name string, header []string, rows [][]any) *Dataset {
	d, err := FromRows(name, header, rows)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the dataset's label used in errors and logs.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Index returns the index column name, or "" when unindexed.
func (d *Dataset) Index() string { return d.index }

// Names returns all column names in order, the index column first.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// ValueNames returns the column names excluding the index column.
func (d *Dataset) ValueNames() []string {
	out := make([]string, 0, len(d.columns))
	for _, c := range d.columns {
		if c.Name != d.index {
			out = append(out, c.Name)
		}
	}
	return out
}

// Has reports whether the dataset has a column called name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.pos[name]
	return ok
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.pos[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// Columns returns the columns in order.
func (d *Dataset) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// Value returns the cell at row of the named column; nil if the column is missing.
func (d *Dataset) Value(name string, row int) any {
	i, ok := d.pos[name]
	if !ok {
		return nil
	}
	return d.columns[i].Values[row]
}

// Row returns the cells of row r in column order.
func (d *Dataset) Row(r int) []any {
	out := make([]any, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Values[r]
	}
	return out
}

// WithName returns a copy of the dataset under a different label.
func (d *Dataset) WithName(name string) *Dataset {
	c := *d
	c.name = name
	return &c
}

// WithIndex returns a copy with column name moved to the front and marked
// as the index.
func (d *Dataset) WithIndex(name string) (*Dataset, error) {
	i, ok := d.pos[name]
	if !ok {
		return nil, &MissingKeyError{Dataset: d.name, Key: name}
	}
	cols := make([]Column, 0, len(d.columns))
	cols = append(cols, d.columns[i])
	for j, c := range d.columns {
		if j != i {
			cols = append(cols, c)
		}
	}
	out, err := FromColumns(d.name, cols...)
	if err != nil {
		return nil, err
	}
	out.index = name
	return out, nil
}

// ResetIndex returns a copy without an index. The former index column stays
// in place as an ordinary column.
func (d *Dataset) ResetIndex() *Dataset {
	c := *d
	c.index = ""
	return &c
}

func (d *Dataset) String() string {
	return fmt.Sprintf("%s(%d rows x %d columns)", d.name, d.rows, len(d.columns))
}
