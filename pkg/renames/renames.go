// Package renames loads the raw-to-typed column rename mapping. The set of
// mapping values doubles as the whitelist of columns allowed into the
// warehouse.
package renames

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Mapping is an immutable raw-name to typed-name column mapping.
type Mapping struct {
	renames   map[string]string
	whitelist map[string]struct{}
}

// New builds a mapping from m. The map is copied.
func New(m map[string]string) *Mapping {
	r := &Mapping{
		renames:   make(map[string]string, len(m)),
		whitelist: make(map[string]struct{}, len(m)),
	}
	for from, to := range m {
		r.renames[from] = to
		r.whitelist[to] = struct{}{}
	}
	return r
}

// Load reads a flat mapping from a YAML or JSON file.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from project config
	if err != nil {
		return nil, fmt.Errorf("failed to read rename mapping: %w", err)
	}
	return Parse(data)
}

// Parse decodes a flat mapping. JSON parses as YAML.
func Parse(data []byte) (*Mapping, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse rename mapping: %w", err)
	}
	return New(m), nil
}

// Lookup returns the typed name for a raw column name.
func (m *Mapping) Lookup(raw string) (string, bool) {
	to, ok := m.renames[raw]
	return to, ok
}

// Allowed reports whether a typed column name may enter the warehouse.
func (m *Mapping) Allowed(name string) bool {
	_, ok := m.whitelist[name]
	return ok
}

// Map returns a copy of the mapping.
func (m *Mapping) Map() map[string]string {
	out := make(map[string]string, len(m.renames))
	for k, v := range m.renames {
		out[k] = v
	}
	return out
}

// Whitelist returns the allowed column names (sorted).
func (m *Mapping) Whitelist() []string {
	out := make([]string, 0, len(m.whitelist))
	for name := range m.whitelist {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of raw names mapped.
func (m *Mapping) Len() int { return len(m.renames) }

// MissingError is returned when a column required by configuration is not a
// value of the mapping.
type MissingError struct {
	Column string
	Owner  string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: column %q is not a value of the rename mapping", e.Owner, e.Column)
}

// Require fails with *MissingError unless every column is whitelisted.
func (m *Mapping) Require(owner string, columns ...string) error {
	for _, c := range columns {
		if !m.Allowed(c) {
			return &MissingError{Column: c, Owner: owner}
		}
	}
	return nil
}
