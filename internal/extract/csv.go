package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dataset"
)

// ReadCSV reads a delimited file with a header row. Each column gets one
// type from all of its non-empty cells: int64 when every cell parses as an
// integer, else float64 when every cell parses as a number, else string.
// Empty cells are null.
func ReadCSV(name, path string, comma rune) (*dataset.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from project config
	if err != nil {
		return nil, fmt.Errorf("failed to open csv source: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = comma

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cols := make([]dataset.Column, len(header))
	for i, h := range header {
		raw := make([]string, len(records))
		for j, rec := range records {
			raw[j] = rec[i]
		}
		cols[i] = dataset.Column{Name: h, Values: InferColumn(raw)}
	}
	return dataset.FromColumns(name, cols...)
}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindString
)

// InferColumn converts the raw cells of one column to a single type.
// Blank cells become null and do not vote.
func InferColumn(raw []string) []any {
	kind := kindInt
	for _, s := range raw {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		if kind == kindInt {
			if _, err := strconv.ParseInt(t, 10, 64); err == nil {
				continue
			}
			kind = kindFloat
		}
		if !isFinite(t) {
			kind = kindString
			break
		}
	}

	out := make([]any, len(raw))
	for i, s := range raw {
		t := strings.TrimSpace(s)
		switch {
		case t == "":
			out[i] = nil
		case kind == kindInt:
			out[i], _ = strconv.ParseInt(t, 10, 64)
		case kind == kindFloat:
			out[i], _ = strconv.ParseFloat(t, 64)
		default:
			out[i] = s
		}
	}
	return out
}

func isFinite(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
