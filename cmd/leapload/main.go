// Package main provides the leapload command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapload/internal/cli"

	// Register warehouse adapters.
	_ "github.com/leapstack-labs/leapload/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapload/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
