// Package dialect provides the DuckDB warehouse dialect.
// It has no driver dependency so planning can use it without a connection.
package dialect

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect configuration.
// Surrogate keys draw from a per-table sequence; the sequence survives a
// table drop so keys keep increasing across reloads.
var DuckDB = dialect.NewDialect("duckdb").
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	TypeName(schema.KindChar, func(t schema.PhysicalType) string {
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	}).
	Surrogate(func(d *dialect.Dialect, table, column string) ([]string, string) {
		seq := SequenceName(table)
		return []string{fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", seq)},
			fmt.Sprintf("%s INTEGER PRIMARY KEY DEFAULT nextval('%s')", d.QuoteIdentifier(column), seq)
	}).
	Timestamp("TIMESTAMP", "current_timestamp").
	NotFound(func(err error) bool {
		msg := strings.ToLower(err.Error())
		return strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found")
	}).
	Build()

// SequenceName returns the surrogate key sequence for a table.
func SequenceName(table string) string {
	var b strings.Builder
	b.WriteString("seq_")
	for _, r := range strings.ToLower(table) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("_sk")
	return b.String()
}
