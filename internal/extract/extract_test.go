package extract

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, ds *dataset.Dataset, name string) []any {
	t.Helper()
	c, ok := ds.Column(name)
	require.True(t, ok, "missing column %s", name)
	return c.Values
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []any
	}{
		{"integers", []string{"42", "-7", ""}, []any{int64(42), int64(-7), nil}},
		{"integers widen to floats", []string{"1", "3.25", "1e3"}, []any{1.0, 3.25, 1000.0}},
		{"codes keep leading zeros", []string{"007", "A12"}, []any{"007", "A12"}},
		{"one text cell makes text", []string{"1", "2.5", "n/a"}, []any{"1", "2.5", "n/a"}},
		{"non-finite numbers are text", []string{"1", "NaN"}, []any{"1", "NaN"}},
		{"blank only", []string{"", "   "}, []any{nil, nil}},
		{"text kept verbatim", []string{" padded ", "Tent"}, []any{" padded ", "Tent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumn(tt.in))
		})
	}
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "forecast.csv", "\ufeffPRODUCT_NUMBER;YEAR;EXPECTED_VOLUME;NOTE\n"+
		"1110;2024;1200.5;\n"+
		"1111;2024;;\"late; revised\"\n")

	ds, err := ReadCSV("forecast", path, ';')
	require.NoError(t, err)

	assert.Equal(t, "forecast", ds.Name())
	assert.Equal(t, []string{"PRODUCT_NUMBER", "YEAR", "EXPECTED_VOLUME", "NOTE"}, ds.Names())
	assert.Equal(t, []any{int64(1110), int64(1111)}, column(t, ds, "PRODUCT_NUMBER"))
	assert.Equal(t, []any{1200.5, nil}, column(t, ds, "EXPECTED_VOLUME"))
	assert.Equal(t, []any{nil, "late; revised"}, column(t, ds, "NOTE"))
}

func TestReadCSV_MixedCodeColumnJoinsTextKeys(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "products.csv", "PRODUCT_code,PRODUCT_number\n007,1\nA12,2\n")

	ds, err := ReadCSV("products", path, ',')
	require.NoError(t, err)
	assert.Equal(t, []any{"007", "A12"}, column(t, ds, "PRODUCT_code"))
	assert.Equal(t, []any{int64(1), int64(2)}, column(t, ds, "PRODUCT_number"))

	// A snapshot table holding the same codes as text reconciles row for row.
	crm := dataset.MustFromRows("crm", []string{"PRODUCT_code", "PRODUCT_name"}, [][]any{
		{"007", "Tent"},
		{"A12", "Lamp"},
	})
	merged, err := dataset.Merge(ds, crm, "PRODUCT_code")
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, []any{"Tent", "Lamp"}, column(t, merged, "PRODUCT_name"))
}

func TestReadCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"ragged row", "A,B\n1,2\n3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, dir, "bad.csv", tt.content)
			_, err := ReadCSV("bad", path, ',')
			assert.Error(t, err)
		})
	}

	_, err := ReadCSV("missing", dir+"/nope.csv", ',')
	assert.Error(t, err)
}

func TestReadSQLite(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSQLite(t, dir, "go_sales.sqlite", testutil.SQLiteTable{
		Name:    "product",
		Columns: []string{"PRODUCT_NUMBER", "PRODUCT_NAME", "UNIT_COST"},
		Rows: [][]any{
			{int64(1110), "TrailChef Water Bag", 4.45},
			{int64(1111), nil, 10.0},
		},
	})

	ds, err := ReadSQLite(context.Background(), "sales_product", path, "product")
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"PRODUCT_NUMBER", "PRODUCT_NAME", "UNIT_COST"}, ds.Names())
	assert.Equal(t, []any{int64(1110), int64(1111)}, column(t, ds, "PRODUCT_NUMBER"))
	assert.Equal(t, []any{"TrailChef Water Bag", nil}, column(t, ds, "PRODUCT_NAME"))
	assert.Equal(t, []any{4.45, 10.0}, column(t, ds, "UNIT_COST"))
}

func TestReadSQLite_Errors(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSQLite(t, dir, "empty.sqlite", testutil.SQLiteTable{Name: "t", Columns: []string{"A"}})

	_, err := ReadSQLite(context.Background(), "x", path, "missing_table")
	assert.Error(t, err)

	_, err = ReadSQLite(context.Background(), "x", dir+"/nope.sqlite", "t")
	assert.Error(t, err)
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSQLite(t, dir, "go_crm.sqlite",
		testutil.SQLiteTable{Name: "country", Columns: []string{"COUNTRY_CODE", "COUNTRY"}, Rows: [][]any{{int64(1), "Canada"}}},
		testutil.SQLiteTable{Name: "retailer", Columns: []string{"RETAILER_CODE"}, Rows: [][]any{{int64(9)}, {int64(10)}}},
	)
	testutil.WriteFile(t, dir, "inventory.csv", "PRODUCT_NUMBER,QTY\n1,5\n")

	p := &config.Pipeline{
		DataDir: dir,
		Sources: []config.Source{
			{Name: "country", Type: "sqlite", File: "go_crm.sqlite", Table: "country"},
			{Name: "retailer", Type: "sqlite", File: "go_crm.sqlite", Table: "retailer"},
			{Name: "inventory", Type: "csv", File: "inventory.csv"},
		},
	}

	got, err := New(testutil.NewTestLogger(t), 2).Extract(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got["country"].Len())
	assert.Equal(t, 2, got["retailer"].Len())
	assert.Equal(t, []string{"PRODUCT_NUMBER", "QTY"}, got["inventory"].Names())
}

func TestExtractor_Extract_FailureNamesSource(t *testing.T) {
	p := &config.Pipeline{
		DataDir: t.TempDir(),
		Sources: []config.Source{{Name: "ghost", Type: "csv", File: "ghost.csv"}},
	}

	_, err := New(nil, 0).Extract(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract ghost")
}
