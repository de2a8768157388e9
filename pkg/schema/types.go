// Package schema derives warehouse column types from the column naming
// convention and turns entity descriptors into physical table plans.
//
// Every column name ends in an underscore-delimited suffix ("PRODUCT_name",
// "UNIT_PRICE_money") which alone decides the physical storage type. There is
// no fallback: a column without a recognized suffix cannot be materialized.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the storage class of a physical column type.
type Kind int

// Storage classes.
const (
	KindInteger Kind = iota
	KindString
	KindText
	KindDecimal
	KindChar
	KindBit
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindDecimal:
		return "decimal"
	case KindChar:
		return "char"
	case KindBit:
		return "bit"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// PhysicalType is a dialect-neutral column type. Dialects render it to DDL.
type PhysicalType struct {
	Kind      Kind
	Length    int // KindString, KindChar
	Precision int // KindDecimal
	Scale     int // KindDecimal
}

// String renders the type in a neutral notation, e.g. "string(80)".
func (t PhysicalType) String() string {
	switch t.Kind {
	case KindString, KindChar:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Length)
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	default:
		return t.Kind.String()
	}
}

// Constructors for the physical types used by the suffix table.
func Integer() PhysicalType         { return PhysicalType{Kind: KindInteger} }
func String(n int) PhysicalType     { return PhysicalType{Kind: KindString, Length: n} }
func Text() PhysicalType            { return PhysicalType{Kind: KindText} }
func Decimal(p, s int) PhysicalType { return PhysicalType{Kind: KindDecimal, Precision: p, Scale: s} }
func Char(n int) PhysicalType       { return PhysicalType{Kind: KindChar, Length: n} }
func Bit() PhysicalType             { return PhysicalType{Kind: KindBit} }
func TimestampType() PhysicalType   { return PhysicalType{Kind: KindTimestamp} }

var suffixTypes = map[string]PhysicalType{
	"id":          Integer(),
	"name":        String(80),
	"image":       String(60),
	"address":     String(80),
	"description": Text(),
	"money":       Decimal(19, 4),
	"percentage":  Decimal(12, 12),
	"date":        String(30),
	"code":        String(40),
	"char":        Char(1),
	"number":      Integer(),
	"phone":       String(30),
	"bool":        Bit(),
}

var (
	// ErrNoSuffix is returned for a column name without an underscore.
	ErrNoSuffix = errors.New("column name has no type suffix")
	// ErrUnknownSuffix is returned when the suffix is not in the type table.
	ErrUnknownSuffix = errors.New("unknown column type suffix")
)

// TypeError reports a column whose type could not be derived.
type TypeError struct {
	Column string
	Suffix string
	Err    error
}

func (e *TypeError) Error() string {
	if e.Suffix == "" {
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("column %q: %v %q (known suffixes: %s)", e.Column, e.Err, e.Suffix, strings.Join(Suffixes(), ", "))
}

func (e *TypeError) Unwrap() error { return e.Err }

// Suffix returns the trailing underscore-delimited segment of name.
func Suffix(name string) (string, bool) {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}

// Resolve derives the physical type of a column from its name.
func Resolve(column string) (PhysicalType, error) {
	suffix, ok := Suffix(column)
	if !ok {
		return PhysicalType{}, &TypeError{Column: column, Err: ErrNoSuffix}
	}
	t, ok := suffixTypes[suffix]
	if !ok {
		return PhysicalType{}, &TypeError{Column: column, Suffix: suffix, Err: ErrUnknownSuffix}
	}
	return t, nil
}

// Suffixes lists the recognized suffixes (sorted).
func Suffixes() []string {
	out := make([]string, 0, len(suffixTypes))
	for s := range suffixTypes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
