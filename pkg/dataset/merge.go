package dataset

import "fmt"

// Merge reconciles two datasets describing the same entities.
//
// The result is an outer join on key, indexed by key. Keys appear in a's
// order followed by keys only b has, in b's order. Columns are key, a's value
// columns, then b's value columns a lacks. For a column both sides carry, a
// null on one side takes the other side's value; two different non-null
// values fail with *MergeConflictError.
//
// A key repeated within one input resolves to its last row.
func Merge(a, b *Dataset, key string) (*Dataset, error) {
	if !a.Has(key) {
		return nil, &MissingKeyError{Dataset: a.name, Key: key}
	}
	if !b.Has(key) {
		return nil, &MissingKeyError{Dataset: b.name, Key: key}
	}

	aRows, aKeys, err := keyRows(a, key)
	if err != nil {
		return nil, err
	}
	bRows, bKeys, err := keyRows(b, key)
	if err != nil {
		return nil, err
	}

	// Key order: a's keys, then b-only keys.
	keys := append([]any(nil), aKeys...)
	for _, k := range bKeys {
		if _, ok := aRows[k]; !ok {
			keys = append(keys, k)
		}
	}

	keyVals, _ := a.Column(key)
	bKeyVals, _ := b.Column(key)
	cols := []Column{{Name: key, Values: make([]any, len(keys))}}
	for i, k := range keys {
		if r, ok := aRows[k]; ok {
			cols[0].Values[i] = keyVals.Values[r]
		} else {
			cols[0].Values[i] = bKeyVals.Values[bRows[k]]
		}
	}

	for _, name := range a.Names() {
		if name == key {
			continue
		}
		merged, err := mergeColumn(a, b, name, keys, aRows, bRows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, merged)
	}
	for _, name := range b.Names() {
		if name == key || a.Has(name) {
			continue
		}
		merged, err := mergeColumn(a, b, name, keys, aRows, bRows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, merged)
	}

	out, err := FromColumns(a.name, cols...)
	if err != nil {
		return nil, err
	}
	out.index = key
	return out, nil
}

// keyRows maps each key to its last row and lists distinct keys in first-seen order.
func keyRows(d *Dataset, key string) (map[any]int, []any, error) {
	col, _ := d.Column(key)
	rows := make(map[any]int, len(col.Values))
	order := make([]any, 0, len(col.Values))
	for r, v := range col.Values {
		if IsNull(v) {
			return nil, nil, fmt.Errorf("dataset %s: null key in column %q at row %d", d.name, key, r)
		}
		k := keyOf(v)
		if _, seen := rows[k]; !seen {
			order = append(order, k)
		}
		rows[k] = r
	}
	return rows, order, nil
}

func mergeColumn(a, b *Dataset, name string, keys []any, aRows, bRows map[any]int) (Column, error) {
	aCol, inA := a.Column(name)
	bCol, inB := b.Column(name)
	out := Column{Name: name, Values: make([]any, len(keys))}

	for i, k := range keys {
		var av, bv any
		if r, ok := aRows[k]; ok && inA {
			av = aCol.Values[r]
		}
		if r, ok := bRows[k]; ok && inB {
			bv = bCol.Values[r]
		}

		switch {
		case IsNull(av) && IsNull(bv):
			out.Values[i] = nil
		case IsNull(bv):
			out.Values[i] = av
		case IsNull(av):
			out.Values[i] = bv
		case Equal(av, bv):
			out.Values[i] = av
		default:
			return Column{}, &MergeConflictError{Column: name, Key: k, Left: av, Right: bv}
		}
	}
	return out, nil
}
