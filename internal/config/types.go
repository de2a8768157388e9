// Package config provides the pipeline configuration types for leapload:
// the warehouse target, the sources to extract, derived datasets, entities
// with their transformation steps, and relationships to backfill.
// This package is decoupled from CLI concerns.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "main" as fallback.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// AdapterConfig converts the target into an adapter connection config.
// File-based targets read Database as a path.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(t.Type),
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// Source types.
const (
	SourceSQLite = "sqlite"
	SourceCSV    = "csv"
)

// Source is a raw dataset read from a file in the data directory.
type Source struct {
	Name string `koanf:"name"`
	Type string `koanf:"type"` // sqlite or csv
	File string `koanf:"file"`
	// Table is the table read from a SQLite snapshot.
	Table string `koanf:"table"`
	// Delimiter separates CSV fields. Defaults to a comma.
	Delimiter string `koanf:"delimiter"`
}

// MergeSpec reconciles two datasets on a key column.
type MergeSpec struct {
	Left  string `koanf:"left"`
	Right string `koanf:"right"`
	Key   string `koanf:"key"`
}

// DatasetConfig is a derived dataset built from sources or earlier datasets.
type DatasetConfig struct {
	Name  string     `koanf:"name"`
	Merge *MergeSpec `koanf:"merge"`
}

// JoinStep inner-joins the working dataset with another dataset.
type JoinStep struct {
	With string `koanf:"with"`
	On   string `koanf:"on"`
}

// MergeStep reconciles the working dataset with another dataset.
type MergeStep struct {
	With string `koanf:"with"`
	Key  string `koanf:"key"`
}

// ConcatStep derives Column by joining Columns with Separator.
type ConcatStep struct {
	Column    string   `koanf:"column"`
	Columns   []string `koanf:"columns"`
	Separator string   `koanf:"separator"`
}

// Step is one transformation of an entity's working dataset. Exactly one
// field is set.
type Step struct {
	Join          *JoinStep         `koanf:"join"`
	Merge         *MergeStep        `koanf:"merge"`
	Rename        map[string]string `koanf:"rename"`
	Concat        *ConcatStep       `koanf:"concat"`
	Exclude       []string          `koanf:"exclude"`
	Renames       bool              `koanf:"renames"`
	Filter        bool              `koanf:"filter"`
	ExpectColumns int               `koanf:"expect_columns"`
}

// Kind names the step's operation, or "" when no field is set.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var out []string
	if s.Join != nil {
		out = append(out, "join")
	}
	if s.Merge != nil {
		out = append(out, "merge")
	}
	if s.Rename != nil {
		out = append(out, "rename")
	}
	if s.Concat != nil {
		out = append(out, "concat")
	}
	if s.Exclude != nil {
		out = append(out, "exclude")
	}
	if s.Renames {
		out = append(out, "renames")
	}
	if s.Filter {
		out = append(out, "filter")
	}
	if s.ExpectColumns != 0 {
		out = append(out, "expect_columns")
	}
	return out
}

// Entity is a warehouse table built from one source or dataset.
type Entity struct {
	Table string `koanf:"table"`
	From  string `koanf:"from"`
	// PrimaryKey is the business key column after renaming.
	PrimaryKey string `koanf:"primary_key"`
	// ImplicitPrimaryKey acknowledges that the table has no business key
	// and its first column is promoted instead.
	ImplicitPrimaryKey bool     `koanf:"implicit_primary_key"`
	ForeignSurrogates  []string `koanf:"foreign_surrogates"`
	Steps              []Step   `koanf:"steps"`
}

// Descriptor returns the table descriptor the warehouse components use.
func (e Entity) Descriptor() schema.Entity {
	return schema.Entity{
		Table:             e.Table,
		PrimaryKey:        e.PrimaryKey,
		ForeignSurrogates: e.ForeignSurrogates,
	}
}

// HasStep reports whether the entity lists a step of the given kind.
func (e Entity) HasStep(kind string) bool {
	for _, s := range e.Steps {
		if s.Kind() == kind {
			return true
		}
	}
	return false
}

// Relationship links a foreign surrogate column to the table it references.
type Relationship struct {
	Table         string `koanf:"table"`
	Column        string `koanf:"column"`
	ForeignTable  string `koanf:"foreign_table"`
	ForeignColumn string `koanf:"foreign_column"`
}

// Schema returns the normalized relationship.
func (r Relationship) Schema() schema.Relationship {
	return schema.Relationship{
		Table:         r.Table,
		Column:        r.Column,
		ForeignTable:  r.ForeignTable,
		ForeignColumn: r.ForeignColumn,
	}.Normalize()
}

// Pipeline is the complete description of a load.
type Pipeline struct {
	DataDir       string          `koanf:"data_dir"`
	Renames       string          `koanf:"renames"`
	Parallelism   int             `koanf:"parallelism"`
	BatchSize     int             `koanf:"batch_size"`
	Orphans       string          `koanf:"orphans"`
	Target        *TargetConfig   `koanf:"target"`
	Sources       []Source        `koanf:"sources"`
	Datasets      []DatasetConfig `koanf:"datasets"`
	Entities      []Entity        `koanf:"entities"`
	Relationships []Relationship  `koanf:"relationships"`
}

// EntityDescriptors returns the table descriptors of all entities in order.
func (p *Pipeline) EntityDescriptors() []schema.Entity {
	out := make([]schema.Entity, len(p.Entities))
	for i, e := range p.Entities {
		out[i] = e.Descriptor()
	}
	return out
}

// SchemaRelationships returns the normalized relationships in order.
func (p *Pipeline) SchemaRelationships() []schema.Relationship {
	out := make([]schema.Relationship, len(p.Relationships))
	for i, r := range p.Relationships {
		out[i] = r.Schema()
	}
	return out
}
