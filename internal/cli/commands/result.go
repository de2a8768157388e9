package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/engine"
)

// RunOutput is the JSON output of load and backfill.
type RunOutput struct {
	RunID     string           `json:"run_id,omitempty"`
	Command   string           `json:"command"`
	Status    string           `json:"status"`
	Entities  []EntityOutput   `json:"entities,omitempty"`
	Backfills []BackfillOutput `json:"backfills,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// EntityOutput is one loaded table.
type EntityOutput struct {
	Table      string `json:"table"`
	Status     string `json:"status"`
	Rows       int64  `json:"rows"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// BackfillOutput is one resolved relationship.
type BackfillOutput struct {
	Relationship    string `json:"relationship"`
	TargetSurrogate string `json:"target_surrogate"`
	Resolved        int64  `json:"resolved"`
	Orphans         int64  `json:"orphans"`
}

func buildRunOutput(command string, res *engine.Result, runErr error) *RunOutput {
	out := &RunOutput{Command: command, Status: "completed"}
	if runErr != nil {
		out.Status = "failed"
		out.Error = runErr.Error()
	}
	if res == nil {
		return out
	}

	out.RunID = res.RunID
	for _, er := range res.Entities {
		eo := EntityOutput{
			Table:      er.Table,
			Status:     "success",
			Rows:       er.Rows,
			DurationMs: er.Duration.Milliseconds(),
		}
		switch {
		case er.Skipped:
			eo.Status = "skipped"
		case er.Err != nil:
			eo.Status = "failed"
			eo.Error = er.Err.Error()
		}
		out.Entities = append(out.Entities, eo)
	}
	for _, b := range res.Backfills {
		out.Backfills = append(out.Backfills, BackfillOutput{
			Relationship:    b.Relationship.String(),
			TargetSurrogate: b.TargetSurrogate,
			Resolved:        b.Resolved,
			Orphans:         b.Orphans,
		})
	}
	return out
}

// renderRun writes the outcome of a run in the renderer's mode.
func renderRun(r *output.Renderer, title string, out *RunOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, title)
	if out.RunID != "" {
		r.KeyValue("Run", out.RunID)
	}
	r.KeyValue("Status", out.Status)
	if out.Error != "" {
		r.KeyValue("Error", out.Error)
	}
	r.Println("")

	if len(out.Entities) > 0 {
		r.Header(2, "Tables")
		rows := make([][]any, 0, len(out.Entities))
		for _, e := range out.Entities {
			rows = append(rows, []any{e.Table, e.Status, e.Rows, (time.Duration(e.DurationMs) * time.Millisecond).String(), e.Error})
		}
		r.Table([]string{"Table", "Status", "Rows", "Duration", "Error"}, rows)
		r.Println("")
	}

	if len(out.Backfills) > 0 {
		r.Header(2, "Backfill")
		rows := make([][]any, 0, len(out.Backfills))
		for _, b := range out.Backfills {
			rows = append(rows, []any{b.Relationship, b.TargetSurrogate, b.Resolved, b.Orphans})
		}
		r.Table([]string{"Relationship", "Key", "Resolved", "Orphans"}, rows)
		r.Println("")
	}

	if orphans := countOrphans(out); orphans > 0 {
		r.Warn(fmt.Sprintf("warning: %d foreign keys had no match", orphans))
	}
	return nil
}

func countOrphans(out *RunOutput) int64 {
	var n int64
	for _, b := range out.Backfills {
		n += b.Orphans
	}
	return n
}
