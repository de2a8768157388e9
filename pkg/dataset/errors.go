package dataset

import "fmt"

// MergeConflictError is returned when both sides of a merge hold different
// non-null values for the same key and column.
type MergeConflictError struct {
	Column string
	Key    any
	Left   any
	Right  any
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict in column %q for key %v: %v != %v", e.Column, e.Key, e.Left, e.Right)
}

// MissingKeyError is returned when a required key or column is absent.
type MissingKeyError struct {
	Dataset string
	Key     string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("dataset %s has no column %q", e.Dataset, e.Key)
}

// ShapeError is returned when a dataset does not have the expected number of columns.
type ShapeError struct {
	Dataset  string
	Expected int
	Actual   int
	Columns  []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("dataset %s has %d columns, expected %d: %v", e.Dataset, e.Actual, e.Expected, e.Columns)
}
