// Package testutil holds helpers shared by package tests.
//
// NewTestLogger routes slog output through t.Log so engine, extract and
// adapter logs show up next to the failing assertion. WriteFile drops
// renames files, CSVs and project configs into a temp directory, creating
// parent directories as needed. WriteSQLite builds a snapshot database
// from SQLiteTable values; columns are untyped so each cell keeps the Go
// type it was inserted with, which lets extract tests cover the same
// int/float/text mix a real source produces.
package testutil
