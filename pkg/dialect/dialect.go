// Package dialect describes how a warehouse database spells the SQL the
// loader emits: identifier quoting, placeholders, physical type names,
// surrogate key and timestamp column definitions, literals, and the error
// classification used to recover from drop and create failures.
//
// Concrete dialects live next to their adapters (pkg/adapters/*/dialect) and
// register themselves in init().
package dialect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapload/pkg/schema"
	"github.com/shopspring/decimal"
)

// PlaceholderStyle defines how query parameters are written.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2
)

// IdentifierConfig defines identifier quoting.
type IdentifierConfig struct {
	Quote    string
	QuoteEnd string
	Escape   string // replacement for QuoteEnd inside a quoted name
}

// SurrogateFunc returns the statements to run before CREATE TABLE and the
// column definition of the surrogate key.
type SurrogateFunc func(d *Dialect, table, column string) (setup []string, def string)

// Dialect represents a warehouse SQL dialect.
type Dialect struct {
	Name          string
	Identifiers   IdentifierConfig
	DefaultSchema string
	Placeholder   PlaceholderStyle

	typeNames        map[schema.Kind]func(schema.PhysicalType) string
	surrogate        SurrogateFunc
	timestampType    string
	timestampDefault string
	trueLiteral      string
	falseLiteral     string
	alreadyExists    func(error) bool
	notFound         func(error) bool
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// TypeName renders a physical type.
func (d *Dialect) TypeName(t schema.PhysicalType) string {
	if t.Kind == schema.KindTimestamp {
		return d.timestampType
	}
	if f, ok := d.typeNames[t.Kind]; ok {
		return f(t)
	}
	return standardTypeName(t)
}

// SurrogateKey returns the setup statements and column definition for a
// table's auto-incrementing surrogate key.
func (d *Dialect) SurrogateKey(table, column string) ([]string, string) {
	if d.surrogate == nil {
		return nil, d.QuoteIdentifier(column) + " INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	return d.surrogate(d, table, column)
}

// TimestampColumn returns the definition of a creation timestamp column
// defaulting to the insert time.
func (d *Dialect) TimestampColumn(column string) string {
	return fmt.Sprintf("%s %s NOT NULL DEFAULT %s", d.QuoteIdentifier(column), d.timestampType, d.timestampDefault)
}

// IsAlreadyExists reports whether err says the object being created exists.
func (d *Dialect) IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if d.alreadyExists != nil {
		return d.alreadyExists(err)
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// IsNotFound reports whether err says the object being dropped is missing.
func (d *Dialect) IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if d.notFound != nil {
		return d.notFound(err)
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such table")
}

// Literal renders a value as a SQL literal for scripts shown to people.
// Strings are single-quoted with embedded quotes doubled; null-like values
// render as NULL.
func (d *Dialect) Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(x)
	case []byte:
		return quoteString(string(x))
	case bool:
		if x {
			return d.trueLiteral
		}
		return d.falseLiteral
	case float64:
		if math.IsNaN(x) {
			return "NULL"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(x)) {
			return "NULL"
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return "NULL"
		}
		return x.Decimal.String()
	case time.Time:
		return quoteString(x.Format("2006-01-02 15:04:05.999999"))
	case fmt.Stringer:
		return quoteString(x.String())
	default:
		return quoteString(fmt.Sprint(x))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func standardTypeName(t schema.PhysicalType) string {
	switch t.Kind {
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindString:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case schema.KindText:
		return "TEXT"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	case schema.KindChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case schema.KindBit:
		return "BOOLEAN"
	case schema.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("dialect is required")

// ---------- Builder ----------

// Builder constructs a Dialect.
type Builder struct {
	dialect *Dialect
}

// NewDialect starts a dialect with ANSI defaults: double-quoted identifiers,
// ? placeholders, identity surrogate keys, CURRENT_TIMESTAMP timestamps.
func NewDialect(name string) *Builder {
	return &Builder{dialect: &Dialect{
		Name:             name,
		Identifiers:      IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`},
		Placeholder:      PlaceholderQuestion,
		typeNames:        make(map[schema.Kind]func(schema.PhysicalType) string),
		timestampType:    "TIMESTAMP",
		timestampDefault: "CURRENT_TIMESTAMP",
		trueLiteral:      "TRUE",
		falseLiteral:     "FALSE",
	}}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = IdentifierConfig{Quote: quote, QuoteEnd: quoteEnd, Escape: escape}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(name string) *Builder {
	b.dialect.DefaultSchema = name
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// TypeName overrides how a storage class is rendered.
func (b *Builder) TypeName(kind schema.Kind, f func(schema.PhysicalType) string) *Builder {
	b.dialect.typeNames[kind] = f
	return b
}

// Surrogate sets how surrogate key columns are defined.
func (b *Builder) Surrogate(f SurrogateFunc) *Builder {
	b.dialect.surrogate = f
	return b
}

// Timestamp sets the creation timestamp column's type and default expression.
func (b *Builder) Timestamp(typ, def string) *Builder {
	b.dialect.timestampType = typ
	b.dialect.timestampDefault = def
	return b
}

// Booleans sets the boolean literals.
func (b *Builder) Booleans(t, f string) *Builder {
	b.dialect.trueLiteral = t
	b.dialect.falseLiteral = f
	return b
}

// AlreadyExists sets the classifier for "object already exists" errors.
func (b *Builder) AlreadyExists(f func(error) bool) *Builder {
	b.dialect.alreadyExists = f
	return b
}

// NotFound sets the classifier for "object does not exist" errors.
func (b *Builder) NotFound(f func(error) bool) *Builder {
	b.dialect.notFound = f
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
