package dialect

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/leapstack-labs/leapload/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPlaceholder(t *testing.T) {
	q := NewDialect("q").Build()
	assert.Equal(t, "?", q.FormatPlaceholder(1))
	assert.Equal(t, "?", q.FormatPlaceholder(7))

	d := NewDialect("d").PlaceholderStyle(PlaceholderDollar).Build()
	assert.Equal(t, "$1", d.FormatPlaceholder(1))
	assert.Equal(t, "$12", d.FormatPlaceholder(12))
}

func TestQuoteIdentifier(t *testing.T) {
	d := NewDialect("test").Build()
	assert.Equal(t, `"Product"`, d.QuoteIdentifier("Product"))
	assert.Equal(t, `"we""ird"`, d.QuoteIdentifier(`we"ird`))

	b := NewDialect("brackets").Identifiers("[", "]", "]]").Build()
	assert.Equal(t, "[a]]b]", b.QuoteIdentifier("a]b"))
}

func TestTypeName(t *testing.T) {
	d := NewDialect("test").
		TypeName(schema.KindChar, func(t schema.PhysicalType) string { return "VARCHAR(1)" }).
		Timestamp("TIMESTAMPTZ", "now()").
		Build()

	tests := []struct {
		typ  schema.PhysicalType
		want string
	}{
		{schema.Integer(), "INTEGER"},
		{schema.String(80), "VARCHAR(80)"},
		{schema.Text(), "TEXT"},
		{schema.Decimal(19, 4), "DECIMAL(19,4)"},
		{schema.Char(1), "VARCHAR(1)"},
		{schema.Bit(), "BOOLEAN"},
		{schema.TimestampType(), "TIMESTAMPTZ"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, d.TypeName(tt.typ))
		})
	}
}

func TestSurrogateAndTimestamp(t *testing.T) {
	d := NewDialect("test").Build()
	setup, def := d.SurrogateKey("Product", "SK_PRODUCT_id")
	assert.Empty(t, setup)
	assert.Equal(t, `"SK_PRODUCT_id" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY`, def)
	assert.Equal(t, `"Timestamp" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP`, d.TimestampColumn("Timestamp"))

	custom := NewDialect("seq").Surrogate(func(d *Dialect, table, column string) ([]string, string) {
		return []string{"CREATE SEQUENCE s_" + table}, d.QuoteIdentifier(column) + " INTEGER"
	}).Build()
	setup, def = custom.SurrogateKey("t", "SK_t")
	assert.Equal(t, []string{"CREATE SEQUENCE s_t"}, setup)
	assert.Equal(t, `"SK_t" INTEGER`, def)
}

func TestLiteral(t *testing.T) {
	d := NewDialect("test").Build()
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"nil", nil, "NULL"},
		{"nan", math.NaN(), "NULL"},
		{"string", "Trailchef", "'Trailchef'"},
		{"quote doubling", "O'Brien's", "'O''Brien''s'"},
		{"bytes", []byte("x"), "'x'"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"bool", true, "TRUE"},
		{"decimal", decimal.RequireFromString("12.3400"), "12.34"},
		{"null decimal", decimal.NullDecimal{}, "NULL"},
		{"time", ts, "'2024-03-01 12:30:00'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Literal(tt.v))
		})
	}

	bits := NewDialect("bits").Booleans("1", "0").Build()
	assert.Equal(t, "0", bits.Literal(false))
}

func TestErrorClassification(t *testing.T) {
	d := NewDialect("test").Build()
	assert.True(t, d.IsAlreadyExists(errors.New(`table "Product" already exists`)))
	assert.False(t, d.IsAlreadyExists(errors.New("syntax error")))
	assert.False(t, d.IsAlreadyExists(nil))
	assert.True(t, d.IsNotFound(errors.New("no such table: Product")))
	assert.True(t, d.IsNotFound(errors.New(`table "Product" does not exist`)))
	assert.False(t, d.IsNotFound(errors.New("permission denied")))

	sentinel := errors.New("custom")
	c := NewDialect("custom").
		AlreadyExists(func(err error) bool { return errors.Is(err, sentinel) }).
		NotFound(func(err error) bool { return errors.Is(err, sentinel) }).
		Build()
	assert.True(t, c.IsAlreadyExists(sentinel))
	assert.False(t, c.IsAlreadyExists(errors.New("already exists")))
	assert.True(t, c.IsNotFound(sentinel))
}

func TestRegistry(t *testing.T) {
	d := NewDialect("RegistryTest").Build()
	Register(d)

	got, ok := Get("registrytest")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Panics(t, func() { Register(NewDialect("REGISTRYTEST").Build()) })

	_, ok = Get("missing")
	assert.False(t, ok)
}
