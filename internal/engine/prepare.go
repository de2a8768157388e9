package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/internal/extract"
	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/leapstack-labs/leapload/pkg/renames"
	"github.com/leapstack-labs/leapload/pkg/schema"
)

// Prepared is an entity ready to load: its filtered dataset and the table
// plan derived from it.
type Prepared struct {
	Entity     config.Entity
	Descriptor schema.Entity
	Data       *dataset.Dataset
	Plan       *schema.TablePlan
}

// Prepare extracts every source, builds the derived datasets and runs each
// entity's steps, then plans its table. Nothing touches the warehouse, so a
// bad configuration fails before any table is dropped. Entity failures are
// collected and returned together.
func (e *Engine) Prepare(ctx context.Context) ([]*Prepared, error) {
	mapping, err := renames.Load(e.pipeline.Renames)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded rename mapping", "path", e.pipeline.Renames, "entries", mapping.Len())

	raw, err := extract.New(e.logger, e.pipeline.Parallelism).Extract(ctx, e.pipeline)
	if err != nil {
		return nil, err
	}

	datasets, err := derive(e.pipeline.Datasets, raw)
	if err != nil {
		return nil, err
	}

	var errs []error
	out := make([]*Prepared, 0, len(e.pipeline.Entities))
	for _, ent := range e.pipeline.Entities {
		p, err := prepareEntity(ent, datasets, mapping)
		if err != nil {
			errs = append(errs, fmt.Errorf("entity %s: %w", ent.Table, err))
			continue
		}
		e.logger.Info("imported", "table", ent.Table, "rows", p.Data.Len(), "columns", len(p.Data.Names()))
		out = append(out, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// derive builds the named reconciled datasets in declaration order, so later
// ones may build on earlier ones.
func derive(specs []config.DatasetConfig, raw map[string]*dataset.Dataset) (map[string]*dataset.Dataset, error) {
	out := make(map[string]*dataset.Dataset, len(raw)+len(specs))
	for name, ds := range raw {
		out[name] = ds
	}
	for _, d := range specs {
		merged, err := dataset.Merge(out[d.Merge.Left], out[d.Merge.Right], d.Merge.Key)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		out[d.Name] = merged.WithName(d.Name)
	}
	return out, nil
}

func prepareEntity(ent config.Entity, datasets map[string]*dataset.Dataset, mapping *renames.Mapping) (*Prepared, error) {
	desc := ent.Descriptor()
	required := append([]string(nil), desc.ForeignSurrogates...)
	if desc.PrimaryKey != "" {
		required = append(required, desc.PrimaryKey)
	}
	if err := mapping.Require(ent.Table, required...); err != nil {
		return nil, err
	}

	ds := datasets[ent.From].WithName(ent.Table)
	for i, s := range ent.Steps {
		next, err := applyStep(ds, s, datasets, mapping)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, s.Kind(), err)
		}
		ds = next
	}

	if !ent.HasStep("renames") {
		renamed, err := ds.Rename(mapping.Map())
		if err != nil {
			return nil, err
		}
		ds = renamed
	}
	if !ent.HasStep("filter") {
		ds = ds.Select(mapping.Allowed)
	}

	plan, err := schema.Plan(desc, ds.Names())
	if err != nil {
		return nil, err
	}
	return &Prepared{Entity: ent, Descriptor: desc, Data: ds, Plan: plan}, nil
}

func applyStep(ds *dataset.Dataset, s config.Step, datasets map[string]*dataset.Dataset, mapping *renames.Mapping) (*dataset.Dataset, error) {
	switch s.Kind() {
	case "join":
		return ds.Join(datasets[s.Join.With], s.Join.On)
	case "merge":
		return dataset.Merge(ds, datasets[s.Merge.With], s.Merge.Key)
	case "rename":
		return ds.Rename(s.Rename)
	case "concat":
		return ds.Concat(s.Concat.Column, s.Concat.Separator, s.Concat.Columns...)
	case "exclude":
		return ds.Exclude(s.Exclude...), nil
	case "renames":
		return ds.Rename(mapping.Map())
	case "filter":
		return ds.Select(mapping.Allowed), nil
	case "expect_columns":
		if err := ds.ExpectColumns(s.ExpectColumns); err != nil {
			return nil, err
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("unsupported step %q", s.Kind())
	}
}
