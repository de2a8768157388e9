package config

import (
	"strings"

	"github.com/leapstack-labs/leapload/pkg/warehouse"
)

// Default configuration values.
const (
	DefaultDataDir     = "data"
	DefaultRenames     = "renames.json"
	DefaultParallelism = 1
	DefaultBatchSize   = warehouse.DefaultBatchSize
	DefaultOrphans     = string(warehouse.OrphansWarn)
	DefaultTargetType  = "duckdb"
)

// ApplyDefaults fills unset pipeline fields.
func ApplyDefaults(p *Pipeline) {
	if p == nil {
		return
	}
	if p.DataDir == "" {
		p.DataDir = DefaultDataDir
	}
	if p.Renames == "" {
		p.Renames = DefaultRenames
	}
	if p.Parallelism <= 0 {
		p.Parallelism = DefaultParallelism
	}
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.Orphans == "" {
		p.Orphans = DefaultOrphans
	}
	if p.Target == nil {
		p.Target = &TargetConfig{Type: DefaultTargetType}
	}
	ApplyTargetDefaults(p.Target)
	for i := range p.Sources {
		if p.Sources[i].Type == SourceCSV && p.Sources[i].Delimiter == "" {
			p.Sources[i].Delimiter = ","
		}
	}
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" {
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
	}
}
