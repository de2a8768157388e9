// Package dialect provides the PostgreSQL warehouse dialect.
// It has no driver dependency beyond pgconn's error type.
package dialect

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// SQLSTATE codes used for error classification.
const (
	codeDuplicateTable  = "42P07"
	codeDuplicateObject = "42710"
	codeUndefinedTable  = "42P01"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect configuration.
// clock_timestamp() advances within a transaction, unlike now().
var Postgres = dialect.NewDialect("postgres").
	DefaultSchema("public").
	PlaceholderStyle(dialect.PlaceholderDollar).
	TypeName(schema.KindDecimal, func(t schema.PhysicalType) string {
		return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
	}).
	Timestamp("TIMESTAMP", "clock_timestamp()").
	AlreadyExists(func(err error) bool {
		return hasCode(err, codeDuplicateTable, codeDuplicateObject)
	}).
	NotFound(func(err error) bool {
		return hasCode(err, codeUndefinedTable)
	}).
	Build()

func hasCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, c := range codes {
		if pgErr.Code == c {
			return true
		}
	}
	return false
}
