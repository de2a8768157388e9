// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/testutil"
)

// ProjectConfig is the leapload.yaml written by SetupTestProject.
const ProjectConfig = `target:
  type: sqlite
  database: warehouse.db
sources:
  - name: owners
    type: sqlite
    file: sales.sqlite
    table: owner
  - name: items
    type: csv
    file: items.csv
entities:
  - table: Owner
    from: owners
    primary_key: OWNER_id
  - table: Item
    from: items
    primary_key: ITEM_id
    foreign_surrogates: [OWNER_id]
relationships:
  - table: Item
    column: OWNER_id
    foreign_table: Owner
`

// SetupTestProject creates a temporary project loading owners from a
// SQLite snapshot and items from a CSV into a SQLite warehouse file.
// Item 1 has no owner, item 2 belongs to owner 42 and item 3 references
// an owner that does not exist.
func SetupTestProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	testutil.WriteFile(t, dir, "leapload.yaml", ProjectConfig)
	testutil.WriteFile(t, dir, "renames.json", `{
  "OWNER_CODE": "OWNER_id",
  "OWNER_NAME": "OWNER_name",
  "ITEM_CODE": "ITEM_id",
  "ITEM_NAME": "ITEM_name"
}`)
	testutil.WriteFile(t, dir, "data/items.csv",
		"ITEM_CODE,ITEM_NAME,OWNER_CODE\n1,Tent,\n2,Pack,42\n3,Stove,99\n")
	testutil.WriteSQLite(t, filepath.Join(dir, "data"), "sales.sqlite", testutil.SQLiteTable{
		Name:    "owner",
		Columns: []string{"OWNER_CODE", "OWNER_NAME"},
		Rows:    [][]any{{42, "Ann"}, {7, "Bob"}},
	})
	return dir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
