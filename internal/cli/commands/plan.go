package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/engine"
	"github.com/spf13/cobra"
)

// PlanOptions holds options for the plan command.
type PlanOptions struct {
	Sample int
}

// PlanOutput is the JSON output of the plan command.
type PlanOutput struct {
	Tables    []PlanTable `json:"tables"`
	Backfills []string    `json:"backfills"`
}

// PlanTable is the rendered DDL of one table.
type PlanTable struct {
	Table      string   `json:"table"`
	Rows       int      `json:"rows"`
	Statements []string `json:"statements"`
	Sample     string   `json:"sample,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the SQL a load would run",
		Long: `Extract and transform every entity, then print the statements a load
would execute against the target without connecting to it.

Use --sample to include an INSERT of the first rows of each table.`,
		Example: `  # Review the DDL
  leapload plan

  # Include the first three rows of every table
  leapload plan --sample 3

  # Write a reviewable script
  leapload plan --output text > load.sql`,
		Aliases: []string{"render"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Sample, "sample", 0, "Number of rows per table to render as INSERT")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *PlanOptions) error {
	if opts.Sample < 0 {
		return fmt.Errorf("--sample must not be negative, got %d", opts.Sample)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	script, err := cmdCtx.Engine.Plan(cmd.Context(), opts.Sample)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(planOutput(script))
	case output.ModeMarkdown:
		r.Header(1, "Load Plan")
		rows := make([][]any, 0, len(script.Tables))
		for _, t := range script.Tables {
			rows = append(rows, []any{t.Table, t.Rows})
		}
		r.Table([]string{"Table", "Rows"}, rows)
		r.Println("")
		r.Code("sql", script.SQL())
	default:
		r.Code("sql", script.SQL())
	}
	return nil
}

func planOutput(s *engine.Script) *PlanOutput {
	out := &PlanOutput{Backfills: s.Backfills}
	for _, t := range s.Tables {
		out.Tables = append(out.Tables, PlanTable{
			Table:      t.Table,
			Rows:       t.Rows,
			Statements: t.Statements,
			Sample:     t.Sample,
		})
	}
	return out
}
