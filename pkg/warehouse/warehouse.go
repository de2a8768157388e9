// Package warehouse materializes star-schema tables and loads them.
//
// Loading is two-phase. Phase 1 creates each entity's table and inserts its
// rows; every foreign surrogate column gets a shadow placeholder column
// SK_<column> holding 0 when the business key is present and NULL when it is
// not. Phase 2 (Resolver) replaces the 0 placeholders with the surrogate key
// of the most recent target row carrying the same business key.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

// Conn is the part of an adapter the warehouse components write through.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (*adapter.Rows, error)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func mustDialect(d *dialect.Dialect) *dialect.Dialect {
	if d == nil {
		panic(dialect.ErrDialectRequired)
	}
	return d
}

// queryInt runs a single-value integer query and closes the rows before
// returning, so single-connection pools stay usable.
func queryInt(ctx context.Context, conn Conn, query string, args ...any) (int64, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var n *int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if n == nil {
		return 0, nil
	}
	return *n, nil
}
