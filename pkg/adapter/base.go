package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrNotConnected is returned when a statement runs before Connect.
var ErrNotConnected = errors.New("database connection not established")

// previewLen bounds the statement text written to debug logs.
const previewLen = 120

// BaseSQLAdapter implements Close, Exec and Query over database/sql.
// Concrete adapters embed it and set DB in Connect.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the connection pool. Closing twice is a no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.Log().Debug("closing database connection", "type", b.Cfg.Type)
	db := b.DB
	b.DB = nil
	return db.Close()
}

// Exec runs a statement and reports the rows it touched. Drivers that
// cannot count affected rows (DDL on some engines) report zero.
func (b *BaseSQLAdapter) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	start := time.Now()
	res, err := b.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = 0
	}
	b.Log().Debug("exec", "sql", preview(query), "args", len(args), "rows", n, "elapsed", time.Since(start))
	return n, nil
}

// Query runs a statement that returns rows. The caller closes them and
// checks Err after iterating.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	b.Log().Debug("query", "sql", preview(query), "args", len(args))
	//nolint:rowserrcheck // checked by the caller
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	return b.DB.PingContext(ctx)
}

// IsConnected reports whether Connect succeeded and Close has not run.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Log returns the adapter's logger, or a discarding one.
func (b *BaseSQLAdapter) Log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// preview flattens a statement onto one line and truncates it.
func preview(query string) string {
	s := strings.Join(strings.Fields(query), " ")
	if len(s) > previewLen {
		return s[:previewLen] + "..."
	}
	return s
}
