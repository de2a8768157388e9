package dataset

import (
	"fmt"
	"strings"
)

// Rename returns a copy with columns renamed by mapping. Columns without an
// entry keep their name. Two columns ending up with the same name is an error.
func (d *Dataset) Rename(mapping map[string]string) (*Dataset, error) {
	cols := make([]Column, len(d.columns))
	index := d.index
	for i, c := range d.columns {
		if to, ok := mapping[c.Name]; ok {
			if c.Name == d.index {
				index = to
			}
			c.Name = to
		}
		cols[i] = c
	}
	out, err := FromColumns(d.name, cols...)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	out.index = index
	return out, nil
}

// Select returns a copy keeping only the columns for which keep returns
// true, in their original order. Dropping the index column unindexes the
// result.
func (d *Dataset) Select(keep func(name string) bool) *Dataset {
	cols := make([]Column, 0, len(d.columns))
	index := ""
	for _, c := range d.columns {
		if !keep(c.Name) {
			continue
		}
		if c.Name == d.index {
			index = d.index
		}
		cols = append(cols, c)
	}
	out, _ := FromColumns(d.name, cols...) // subset of a valid dataset
	out.index = index
	if len(cols) == 0 {
		out.rows = d.rows
	}
	return out
}

// Exclude returns a copy without the named columns. Unknown names are ignored.
func (d *Dataset) Exclude(names ...string) *Dataset {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	return d.Select(func(name string) bool { return !drop[name] })
}

// ExpectColumns fails with *ShapeError unless the dataset has exactly n
// columns, counting the index column.
func (d *Dataset) ExpectColumns(n int) error {
	if len(d.columns) != n {
		return &ShapeError{Dataset: d.name, Expected: n, Actual: len(d.columns), Columns: d.Names()}
	}
	return nil
}

// Join returns the inner join of d and right on column on. Rows come in d's
// order, each followed by its matches in right's order. The result carries
// d's columns, then right's columns except on; names present on both sides
// get "_x" and "_y" suffixes. Null keys never match. The result is unindexed.
func (d *Dataset) Join(right *Dataset, on string) (*Dataset, error) {
	if !d.Has(on) {
		return nil, &MissingKeyError{Dataset: d.name, Key: on}
	}
	if !right.Has(on) {
		return nil, &MissingKeyError{Dataset: right.name, Key: on}
	}

	rightCol, _ := right.Column(on)
	matches := make(map[any][]int, right.rows)
	for r, v := range rightCol.Values {
		if IsNull(v) {
			continue
		}
		k := keyOf(v)
		matches[k] = append(matches[k], r)
	}

	leftCol, _ := d.Column(on)
	var pairs [][2]int
	for l, v := range leftCol.Values {
		if IsNull(v) {
			continue
		}
		for _, r := range matches[keyOf(v)] {
			pairs = append(pairs, [2]int{l, r})
		}
	}

	var cols []Column
	for _, c := range d.columns {
		name := c.Name
		if name != on && right.Has(name) {
			name += "_x"
		}
		vals := make([]any, len(pairs))
		for i, p := range pairs {
			vals[i] = c.Values[p[0]]
		}
		cols = append(cols, Column{Name: name, Values: vals})
	}
	for _, c := range right.columns {
		if c.Name == on {
			continue
		}
		name := c.Name
		if d.Has(name) {
			name += "_y"
		}
		vals := make([]any, len(pairs))
		for i, p := range pairs {
			vals[i] = c.Values[p[1]]
		}
		cols = append(cols, Column{Name: name, Values: vals})
	}

	out, err := FromColumns(d.name, cols...)
	if err != nil {
		return nil, fmt.Errorf("join %s with %s: %w", d.name, right.name, err)
	}
	return out, nil
}

// Concat returns a copy with a derived column name holding the listed
// columns' values joined by sep. A row with any null input gets null.
func (d *Dataset) Concat(name, sep string, columns ...string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("concat %q: no input columns", name)
	}
	if d.Has(name) {
		return nil, fmt.Errorf("concat: dataset %s already has column %q", d.name, name)
	}
	inputs := make([]Column, len(columns))
	for i, c := range columns {
		col, ok := d.Column(c)
		if !ok {
			return nil, &MissingKeyError{Dataset: d.name, Key: c}
		}
		inputs[i] = col
	}

	vals := make([]any, d.rows)
	parts := make([]string, len(inputs))
	for r := range vals {
		null := false
		for i, in := range inputs {
			v := in.Values[r]
			if IsNull(v) {
				null = true
				break
			}
			parts[i] = Format(v)
		}
		if !null {
			vals[r] = strings.Join(parts, sep)
		}
	}

	cols := append(d.Columns(), Column{Name: name, Values: vals})
	out, err := FromColumns(d.name, cols...)
	if err != nil {
		return nil, err
	}
	out.index = d.index
	return out, nil
}
