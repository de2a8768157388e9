package schema

import (
	"errors"
	"fmt"
)

// System column naming.
const (
	SurrogatePrefix = "SK_"
	TimestampColumn = "Timestamp"
)

// SurrogateColumn returns the surrogate or placeholder column for name.
func SurrogateColumn(name string) string {
	return SurrogatePrefix + name
}

// Entity describes a warehouse table to materialize.
type Entity struct {
	Table string
	// PrimaryKey is the business key column. Empty promotes the first
	// dataset column and names the surrogate after the table instead.
	PrimaryKey        string
	ForeignSurrogates []string
}

// SurrogateKey returns the name of the entity's surrogate key column.
func (e Entity) SurrogateKey() string {
	if e.PrimaryKey == "" {
		return SurrogateColumn(e.Table)
	}
	return SurrogateColumn(e.PrimaryKey)
}

// Relationship links a business-key column of one table to the business key
// of another. ForeignTable and ForeignColumn default to Table and Column.
type Relationship struct {
	Table         string
	Column        string
	ForeignTable  string
	ForeignColumn string
}

// Normalize fills in the defaults for the foreign side.
func (r Relationship) Normalize() Relationship {
	if r.ForeignTable == "" {
		r.ForeignTable = r.Table
	}
	if r.ForeignColumn == "" {
		r.ForeignColumn = r.Column
	}
	return r
}

// Placeholder returns the source table's placeholder column.
func (r Relationship) Placeholder() string {
	return SurrogateColumn(r.Column)
}

func (r Relationship) String() string {
	n := r.Normalize()
	return fmt.Sprintf("%s.%s -> %s.%s", n.Table, n.Column, n.ForeignTable, n.ForeignColumn)
}

// ColumnRole says how a planned column gets its values.
type ColumnRole int

// Column roles.
const (
	RoleSurrogate ColumnRole = iota
	RoleTimestamp
	RolePrimaryKey
	RoleValue
	RolePlaceholder
)

// IsSystem reports whether the warehouse fills the column itself.
func (r ColumnRole) IsSystem() bool {
	return r == RoleSurrogate || r == RoleTimestamp
}

// ColumnDef is one column of a table plan.
type ColumnDef struct {
	Name    string
	Type    PhysicalType
	Role    ColumnRole
	NotNull bool
	// Source is the business-key column a placeholder shadows.
	Source string
}

// TablePlan is the physical layout of a materialized table.
type TablePlan struct {
	Table        string
	SurrogateKey string
	PrimaryKey   string
	// Implicit is set when the first dataset column was promoted to primary key.
	Implicit bool
	Columns  []ColumnDef
}

// LoadColumns returns the columns written by row inserts, in insert order.
func (p *TablePlan) LoadColumns() []ColumnDef {
	out := make([]ColumnDef, 0, len(p.Columns))
	for _, c := range p.Columns {
		if !c.Role.IsSystem() {
			out = append(out, c)
		}
	}
	return out
}

// Placeholders returns the placeholder columns of the plan.
func (p *TablePlan) Placeholders() []ColumnDef {
	var out []ColumnDef
	for _, c := range p.Columns {
		if c.Role == RolePlaceholder {
			out = append(out, c)
		}
	}
	return out
}

// ErrNoColumns is returned when planning a table from an empty column list.
var ErrNoColumns = errors.New("dataset has no columns")

// Plan derives the physical layout of an entity's table from the dataset
// columns that survive filtering. Layout: surrogate key, timestamp, primary
// key, remaining columns in order, then one placeholder per foreign
// surrogate column.
func Plan(e Entity, columns []string) (*TablePlan, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", e.Table, ErrNoColumns)
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		if present[c] {
			return nil, fmt.Errorf("table %s: duplicate column %q", e.Table, c)
		}
		present[c] = true
	}

	pk := e.PrimaryKey
	implicit := pk == ""
	if implicit {
		pk = columns[0]
	} else if !present[pk] {
		return nil, fmt.Errorf("table %s: primary key %q not in dataset", e.Table, pk)
	}

	plan := &TablePlan{
		Table:        e.Table,
		SurrogateKey: e.SurrogateKey(),
		PrimaryKey:   pk,
		Implicit:     implicit,
	}
	plan.Columns = append(plan.Columns,
		ColumnDef{Name: plan.SurrogateKey, Type: Integer(), Role: RoleSurrogate, NotNull: true},
		ColumnDef{Name: TimestampColumn, Type: TimestampType(), Role: RoleTimestamp, NotNull: true},
	)

	pkType, err := Resolve(pk)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", e.Table, err)
	}
	plan.Columns = append(plan.Columns, ColumnDef{Name: pk, Type: pkType, Role: RolePrimaryKey, NotNull: !implicit})

	for _, c := range columns {
		if c == pk {
			continue
		}
		t, err := Resolve(c)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", e.Table, err)
		}
		plan.Columns = append(plan.Columns, ColumnDef{Name: c, Type: t, Role: RoleValue})
	}

	seen := make(map[string]bool, len(e.ForeignSurrogates))
	for _, fs := range e.ForeignSurrogates {
		if !present[fs] {
			return nil, fmt.Errorf("table %s: foreign surrogate column %q not in dataset", e.Table, fs)
		}
		if seen[fs] {
			continue
		}
		seen[fs] = true
		if SurrogateColumn(fs) == plan.SurrogateKey {
			return nil, fmt.Errorf("table %s: placeholder for %q collides with the surrogate key", e.Table, fs)
		}
		plan.Columns = append(plan.Columns, ColumnDef{
			Name:   SurrogateColumn(fs),
			Type:   Integer(),
			Role:   RolePlaceholder,
			Source: fs,
		})
	}

	return plan, nil
}
