package engine

import (
	"context"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/warehouse"
)

// TableScript is the DDL of one entity's table and a sample of its rows.
type TableScript struct {
	Table      string
	Rows       int
	Statements []string
	// Sample is an INSERT of the first rows with literal values, or "".
	Sample string
}

// Script is what a load would execute, rendered for review.
type Script struct {
	Tables    []TableScript
	Backfills []string
}

// Plan prepares every entity and renders the statements a load would run,
// without connecting to the warehouse. sampleRows bounds the rendered
// INSERT per table; 0 omits it.
func (e *Engine) Plan(ctx context.Context, sampleRows int) (*Script, error) {
	prepared, err := e.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	s := &Script{}
	for _, p := range prepared {
		ts := TableScript{Table: p.Plan.Table, Rows: p.Data.Len()}
		ts.Statements = append(ts.Statements, warehouse.DropStatement(e.dialect, p.Plan.Table))
		ts.Statements = append(ts.Statements, warehouse.CreateStatements(e.dialect, p.Plan)...)
		if sampleRows > 0 {
			sample, err := warehouse.RenderSample(e.dialect, p.Plan, p.Data, sampleRows)
			if err != nil {
				return nil, err
			}
			ts.Sample = sample
		}
		s.Tables = append(s.Tables, ts)
	}

	declared := make(map[string]string, len(prepared))
	for _, p := range prepared {
		declared[p.Plan.Table] = p.Plan.SurrogateKey
	}
	for _, rel := range e.pipeline.SchemaRelationships() {
		s.Backfills = append(s.Backfills,
			warehouse.BackfillStatement(e.dialect, rel, warehouse.TargetSurrogate(rel, declared)))
	}
	return s, nil
}

// SQL joins every statement of the script into one semicolon-terminated
// text.
func (s *Script) SQL() string {
	var b strings.Builder
	write := func(stmt string) {
		if stmt == "" {
			return
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	for _, t := range s.Tables {
		b.WriteString("-- " + t.Table + "\n")
		for _, stmt := range t.Statements {
			write(stmt)
		}
		write(t.Sample)
	}
	if len(s.Backfills) > 0 {
		b.WriteString("-- backfill\n")
		for _, stmt := range s.Backfills {
			write(stmt)
		}
	}
	return b.String()
}
