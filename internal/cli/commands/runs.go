package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/state"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// RunSummary is one run in the JSON output.
type RunSummary struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Target      string     `json:"target"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunDetail is a run with its table loads and backfills.
type RunDetail struct {
	RunSummary
	Entities  []EntityOutput   `json:"entities"`
	Backfills []BackfillOutput `json:"backfills"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show load history",
		Long: `List recent loads and backfills recorded in the state database,
or show the tables and relationships of one run.`,
		Example: `  # Ten most recent runs
  leapload runs

  # Details of one run
  leapload runs 3f1c2a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Maximum runs to list (0 for all)")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions, args []string) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	if _, err := os.Stat(cmdCtx.Cfg.StatePath); errors.Is(err, fs.ErrNotExist) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON([]RunSummary{})
		}
		r.Println("No runs recorded yet.")
		return nil
	}

	store := state.NewSQLiteStore(clockwork.NewRealClock(), cmdCtx.Logger)
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		return showRun(r, store, args[0])
	}
	return listRuns(r, store, opts.Limit)
}

func listRuns(r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarize(run))
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(summaries)
	}

	r.Header(1, "Runs")
	rows := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []any{s.ID, s.Command, s.Target, s.Status, s.StartedAt.Local().Format(time.DateTime), formatDuration(s), s.Error})
	}
	r.Table([]string{"ID", "Command", "Target", "Status", "Started", "Duration", "Error"}, rows)
	return nil
}

func showRun(r *output.Renderer, store state.Store, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	entities, err := store.GetEntityRuns(id)
	if err != nil {
		return err
	}
	backfills, err := store.GetBackfills(id)
	if err != nil {
		return err
	}

	detail := RunDetail{RunSummary: summarize(run)}
	for _, er := range entities {
		detail.Entities = append(detail.Entities, EntityOutput{
			Table:      er.Table,
			Status:     string(er.Status),
			Rows:       er.Rows,
			DurationMs: er.CompletedAt.Sub(er.StartedAt).Milliseconds(),
			Error:      er.Error,
		})
	}
	for _, b := range backfills {
		detail.Backfills = append(detail.Backfills, BackfillOutput{
			Relationship:    b.Relationship,
			TargetSurrogate: b.TargetSurrogate,
			Resolved:        b.Resolved,
			Orphans:         b.Orphans,
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(detail)
	}
	return renderRun(r, "Run "+detail.ID, &RunOutput{
		Command:   detail.Command,
		Status:    detail.Status,
		Entities:  detail.Entities,
		Backfills: detail.Backfills,
		Error:     detail.Error,
	})
}

func summarize(run *state.Run) RunSummary {
	return RunSummary{
		ID:          run.ID,
		Command:     run.Command,
		Target:      run.Target,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

func formatDuration(s RunSummary) string {
	if s.CompletedAt == nil {
		return "-"
	}
	return s.CompletedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
}
