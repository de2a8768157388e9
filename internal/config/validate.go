package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/warehouse"
)

// Validate checks the pipeline for structural errors: duplicate names,
// references to unknown datasets and tables, and malformed steps. It
// expects defaults to have been applied. All problems are reported.
func (p *Pipeline) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p.Target == nil {
		add("target is required")
	} else if err := p.Target.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := warehouse.ParseOrphanPolicy(p.Orphans); err != nil {
		errs = append(errs, err)
	}
	if p.Parallelism < 1 {
		add("parallelism must be at least 1")
	}

	// Dataset names visible to merges, joins and entities, in declaration order.
	known := make(map[string]bool)

	for i, s := range p.Sources {
		where := fmt.Sprintf("sources[%d]", i)
		switch {
		case s.Name == "":
			add("%s: name is required", where)
		case known[s.Name]:
			add("%s: duplicate dataset name %q", where, s.Name)
		}
		known[s.Name] = true

		switch strings.ToLower(s.Type) {
		case SourceSQLite:
			if s.Table == "" {
				add("%s (%s): table is required for sqlite sources", where, s.Name)
			}
		case SourceCSV:
			if len([]rune(s.Delimiter)) > 1 {
				add("%s (%s): delimiter must be a single character", where, s.Name)
			}
		default:
			add("%s (%s): unknown source type %q (want sqlite or csv)", where, s.Name, s.Type)
		}
		if s.File == "" {
			add("%s (%s): file is required", where, s.Name)
		}
	}

	for i, d := range p.Datasets {
		where := fmt.Sprintf("datasets[%d]", i)
		switch {
		case d.Name == "":
			add("%s: name is required", where)
		case known[d.Name]:
			add("%s: duplicate dataset name %q", where, d.Name)
		}
		if d.Merge == nil {
			add("%s (%s): merge is required", where, d.Name)
		} else {
			for _, ref := range []string{d.Merge.Left, d.Merge.Right} {
				if !known[ref] {
					add("%s (%s): unknown dataset %q", where, d.Name, ref)
				}
			}
			if d.Merge.Key == "" {
				add("%s (%s): merge key is required", where, d.Name)
			}
		}
		known[d.Name] = true
	}

	tables := make(map[string]Entity, len(p.Entities))
	for i, e := range p.Entities {
		where := fmt.Sprintf("entities[%d]", i)
		switch {
		case e.Table == "":
			add("%s: table is required", where)
		case tables[e.Table].Table != "":
			add("%s: duplicate table %q", where, e.Table)
		}
		if !known[e.From] {
			add("%s (%s): unknown dataset %q", where, e.Table, e.From)
		}
		if e.PrimaryKey == "" && !e.ImplicitPrimaryKey {
			add("%s (%s): primary_key is required (set implicit_primary_key to promote the first column)", where, e.Table)
		}
		if e.PrimaryKey != "" && e.ImplicitPrimaryKey {
			add("%s (%s): primary_key and implicit_primary_key are mutually exclusive", where, e.Table)
		}
		renamed := false
		for j, s := range e.Steps {
			if err := s.validate(known); err != nil {
				add("%s (%s): steps[%d]: %w", where, e.Table, j, err)
				continue
			}
			switch s.Kind() {
			case "renames":
				renamed = true
			case "filter":
				if !renamed {
					add("%s (%s): steps[%d]: filter must follow a renames step", where, e.Table, j)
				}
			}
		}
		tables[e.Table] = e
	}

	for i, r := range p.Relationships {
		where := fmt.Sprintf("relationships[%d]", i)
		rel := r.Schema()
		src, ok := tables[rel.Table]
		if !ok {
			add("%s (%s): unknown table %q", where, rel, rel.Table)
			continue
		}
		if _, ok := tables[rel.ForeignTable]; !ok {
			add("%s (%s): unknown foreign table %q", where, rel, rel.ForeignTable)
		}
		if !slices.Contains(src.ForeignSurrogates, rel.Column) {
			add("%s (%s): %q is not a foreign surrogate of %s", where, rel, rel.Column, rel.Table)
		}
	}

	return errors.Join(errs...)
}

func (s Step) validate(known map[string]bool) error {
	kinds := s.kinds()
	switch len(kinds) {
	case 0:
		return errors.New("empty step")
	case 1:
	default:
		return fmt.Errorf("step sets %s; use one operation per step", strings.Join(kinds, ", "))
	}

	switch kinds[0] {
	case "join":
		if !known[s.Join.With] {
			return fmt.Errorf("join: unknown dataset %q", s.Join.With)
		}
		if s.Join.On == "" {
			return errors.New("join: on is required")
		}
	case "merge":
		if !known[s.Merge.With] {
			return fmt.Errorf("merge: unknown dataset %q", s.Merge.With)
		}
		if s.Merge.Key == "" {
			return errors.New("merge: key is required")
		}
	case "concat":
		if s.Concat.Column == "" || len(s.Concat.Columns) == 0 {
			return errors.New("concat: column and columns are required")
		}
	case "expect_columns":
		if s.ExpectColumns < 0 {
			return errors.New("expect_columns must be positive")
		}
	}
	return nil
}
