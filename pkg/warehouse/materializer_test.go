package warehouse

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDialect = dialect.NewDialect("test").Build()

func newMock(t *testing.T) (*adapter.BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &adapter.BaseSQLAdapter{DB: db}, mock
}

func itemDataset() *dataset.Dataset {
	return dataset.MustFromRows("item", []string{"ITEM_id", "ITEM_name", "OWNER_id"}, [][]any{
		{1, "Tent", nil},
		{2, "O'Brien's Pack", 42},
	})
}

var itemEntity = schema.Entity{Table: "Item", PrimaryKey: "ITEM_id", ForeignSurrogates: []string{"OWNER_id"}}

func TestCreateStatements(t *testing.T) {
	plan, err := schema.Plan(itemEntity, itemDataset().Names())
	require.NoError(t, err)

	stmts := CreateStatements(testDialect, plan)
	require.Len(t, stmts, 1)
	assert.Equal(t, `CREATE TABLE "Item" (
	"SK_ITEM_id" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	"Timestamp" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	"ITEM_id" INTEGER NOT NULL,
	"ITEM_name" VARCHAR(80),
	"OWNER_id" INTEGER,
	"SK_OWNER_id" INTEGER
)`, stmts[0])
}

func TestCreateStatements_SetupAndImplicitKey(t *testing.T) {
	d := dialect.NewDialect("seq").Surrogate(func(d *dialect.Dialect, table, column string) ([]string, string) {
		return []string{"CREATE SEQUENCE s_" + table}, d.QuoteIdentifier(column) + " INTEGER"
	}).Build()

	plan, err := schema.Plan(schema.Entity{Table: "F"}, []string{"A_id", "B_money"})
	require.NoError(t, err)

	stmts := CreateStatements(d, plan)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE SEQUENCE s_F", stmts[0])
	assert.Contains(t, stmts[1], `"SK_F" INTEGER,`)
	assert.Contains(t, stmts[1], `"A_id" INTEGER,`)
	assert.NotContains(t, stmts[1], `"A_id" INTEGER NOT NULL`)
	assert.Contains(t, stmts[1], `"B_money" DECIMAL(19,4)`)
}

func TestMaterializer_CreateTable(t *testing.T) {
	tests := []struct {
		name     string
		execErr  error
		wantErr  bool
		wantPlan bool
	}{
		{name: "created", wantPlan: true},
		{name: "already exists is a no-op", execErr: errors.New(`table "Item" already exists`), wantPlan: true},
		{name: "other failure is fatal", execErr: errors.New("disk full"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			exp := mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "Item"`))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			m := NewMaterializer(conn, testDialect, testutil.NewTestLogger(t))
			plan, err := m.CreateTable(context.Background(), itemEntity, itemDataset())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "create table Item")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantPlan, plan != nil)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMaterializer_CreateTable_BadSuffixIssuesNoSQL(t *testing.T) {
	conn, mock := newMock(t)
	ds := dataset.MustFromRows("x", []string{"A_id", "WEIRD"}, nil)

	_, err := NewMaterializer(conn, testDialect, nil).CreateTable(context.Background(), schema.Entity{Table: "X"}, ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrNoSuffix))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializer_DropTable_SwallowsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"not found", errors.New("no such table: Item")},
		{"other", errors.New("locked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			exp := mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE "Item"`))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			NewMaterializer(conn, testDialect, testutil.NewTestLogger(t)).DropTable(context.Background(), "Item")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewMaterializer_RequiresDialect(t *testing.T) {
	assert.Panics(t, func() { NewMaterializer(nil, nil, nil) })
}
