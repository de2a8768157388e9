// Package adapter provides the warehouse connection contract used by the
// loader.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with the registry in init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapload/pkg/dialect"
)

// Config holds configuration for connecting to a warehouse.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	// Params holds adapter-specific settings, decoded by each adapter.
	Params map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all warehouse adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a parameterized statement that doesn't return rows and
	// reports the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Query executes a parameterized statement that returns rows.
	Query(ctx context.Context, query string, args ...any) (*Rows, error)

	// Dialect returns the SQL dialect the warehouse speaks. It is available
	// before Connect.
	Dialect() *dialect.Dialect
}
