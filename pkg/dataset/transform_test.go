package dataset

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumns_Validation(t *testing.T) {
	_, err := FromColumns("d", Column{Name: "A", Values: []any{1}}, Column{Name: "B", Values: []any{1, 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 2 rows")

	_, err = FromColumns("d", Column{Name: "A"}, Column{Name: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")

	_, err = FromRows("d", []string{"A", "B"}, [][]any{{1}})
	require.Error(t, err)
}

func TestWithIndex(t *testing.T) {
	d := MustFromRows("d", []string{"A", "B", "C"}, [][]any{{1, 2, 3}})

	got, err := d.WithIndex("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, got.Names())
	assert.Equal(t, []string{"A", "C"}, got.ValueNames())
	assert.Equal(t, []any{2, 1, 3}, got.Row(0))
	assert.Equal(t, "", d.Index())

	_, err = d.WithIndex("Z")
	var missing *MissingKeyError
	assert.True(t, errors.As(err, &missing))

	assert.Equal(t, "", got.ResetIndex().Index())
}

func TestRename(t *testing.T) {
	d := MustFromRows("d", []string{"CODE", "NAME"}, [][]any{{"x", "y"}})
	d, err := d.WithIndex("CODE")
	require.NoError(t, err)

	got, err := d.Rename(map[string]string{"CODE": "COUNTRY_code", "NAME": "COUNTRY_name", "UNUSED": "X"})
	require.NoError(t, err)
	assert.Equal(t, []string{"COUNTRY_code", "COUNTRY_name"}, got.Names())
	assert.Equal(t, "COUNTRY_code", got.Index())

	_, err = d.Rename(map[string]string{"CODE": "NAME"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestSelectAndExclude(t *testing.T) {
	d := MustFromRows("d", []string{"K", "A", "B"}, [][]any{{1, 2, 3}, {4, 5, 6}})
	d, err := d.WithIndex("K")
	require.NoError(t, err)

	kept := d.Select(func(n string) bool { return n != "A" })
	assert.Equal(t, []string{"K", "B"}, kept.Names())
	assert.Equal(t, "K", kept.Index())

	noIndex := d.Exclude("K", "MISSING")
	assert.Equal(t, []string{"A", "B"}, noIndex.Names())
	assert.Equal(t, "", noIndex.Index())
	assert.Equal(t, 2, noIndex.Len())

	empty := d.Select(func(string) bool { return false })
	assert.Empty(t, empty.Names())
	assert.Equal(t, 2, empty.Len())
}

func TestExpectColumns(t *testing.T) {
	d := MustFromRows("Product", []string{"A", "B"}, nil)
	require.NoError(t, d.ExpectColumns(2))

	err := d.ExpectColumns(3)
	var shape *ShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 3, shape.Expected)
	assert.Equal(t, 2, shape.Actual)
}

func TestJoin(t *testing.T) {
	products := MustFromRows("product", []string{"PRODUCT_NUMBER", "TYPE_CODE", "NOTE"}, [][]any{
		{1, 10, "a"},
		{2, 20, "b"},
		{3, nil, "c"},
		{4, 99, "d"},
	})
	types := MustFromRows("product_type", []string{"TYPE_CODE", "TYPE_NAME", "NOTE"}, [][]any{
		{20, "Tents", "t20"},
		{10, "Packs", "t10"},
		{10, "Packs (alt)", "t10b"},
	})

	got, err := products.Join(types, "TYPE_CODE")
	require.NoError(t, err)

	assert.Equal(t, []string{"PRODUCT_NUMBER", "TYPE_CODE", "NOTE_x", "TYPE_NAME", "NOTE_y"}, got.Names())
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []any{1, 10, "a", "Packs", "t10"}, got.Row(0))
	assert.Equal(t, []any{1, 10, "a", "Packs (alt)", "t10b"}, got.Row(1))
	assert.Equal(t, []any{2, 20, "b", "Tents", "t20"}, got.Row(2))

	_, err = products.Join(types, "PRODUCT_NUMBER")
	var missing *MissingKeyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "product_type", missing.Dataset)
}

func TestConcat(t *testing.T) {
	d := MustFromRows("d", []string{"FIRST", "LAST"}, [][]any{
		{"Ada", "Lovelace"},
		{"Grace", nil},
		{int64(7), 2.5},
	})

	got, err := d.Concat("FULL_name", " ", "FIRST", "LAST")
	require.NoError(t, err)
	assert.Equal(t, []any{"Ada Lovelace", nil, "7 2.5"}, values(t, got, "FULL_name"))
	assert.False(t, d.Has("FULL_name"))

	_, err = d.Concat("FIRST", " ", "LAST")
	require.Error(t, err)
	_, err = d.Concat("X_name", " ", "MISSING")
	require.Error(t, err)
}

func TestIsNull(t *testing.T) {
	var nilPtr *string
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"nan", math.NaN(), true},
		{"nil pointer", nilPtr, true},
		{"invalid null string", sql.NullString{}, true},
		{"valid null string", sql.NullString{String: "x", Valid: true}, false},
		{"zero", 0, false},
		{"empty string", "", false},
		{"false", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNull(tt.v))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, int64(1)))
	assert.True(t, Equal(int32(2), 2.0))
	assert.True(t, Equal([]byte("x"), "x"))
	assert.False(t, Equal("1", 1))
	assert.False(t, Equal(1.5, 1))
	assert.True(t, Equal(true, true))

	price := decimal.RequireFromString("19.90")
	assert.True(t, Equal(price, 19.9))
	assert.True(t, Equal(19.9, price))
	assert.True(t, Equal(decimal.NewFromInt(5), int64(5)))
	assert.False(t, Equal(price, "19.90"))
	assert.False(t, Equal(price, math.Inf(1)))
	assert.Equal(t, keyOf(int64(5)), keyOf(decimal.RequireFromString("5.00")))
}
