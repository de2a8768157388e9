// Package dialect provides the SQLite warehouse dialect.
package dialect

import (
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect configuration. Timestamps are ISO-8601 text
// with millisecond precision, which sorts chronologically.
var SQLite = dialect.NewDialect("sqlite").
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Surrogate(func(d *dialect.Dialect, _, column string) ([]string, string) {
		return nil, d.QuoteIdentifier(column) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}).
	Timestamp("TEXT", "(strftime('%Y-%m-%d %H:%M:%f', 'now'))").
	Booleans("1", "0").
	NotFound(func(err error) bool {
		return strings.Contains(strings.ToLower(err.Error()), "no such table")
	}).
	Build()
