package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapload/internal/state"
	"github.com/leapstack-labs/leapload/pkg/warehouse"
	"golang.org/x/sync/errgroup"
)

// EntityResult is the outcome of creating and filling one table.
type EntityResult struct {
	Table    string
	Rows     int64
	Duration time.Duration
	// Skipped is set when an earlier failure stopped the load first.
	Skipped bool
	Err     error
}

// Result summarizes a load or backfill run.
type Result struct {
	// RunID is empty when run history is disabled.
	RunID     string
	Entities  []EntityResult
	Backfills []warehouse.Result
}

// Load runs the full pipeline: prepare every entity, drop all their tables,
// create and fill each table (Phase 1), then backfill every relationship
// (Phase 2). Phase 2 starts only after every Phase 1 load has finished.
func (e *Engine) Load(ctx context.Context) (*Result, error) {
	e.logger.Info("starting load", "target", e.dbConfig.Type, "entities", len(e.pipeline.Entities))

	prepared, err := e.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	run, err := e.startRun("load")
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: run}

	mat := warehouse.NewMaterializer(e.db, e.dialect, e.logger)
	for _, p := range prepared {
		mat.DropTable(ctx, p.Plan.Table)
	}

	res.Entities, err = e.loadEntities(ctx, run, mat, prepared)
	if err != nil {
		e.finishRun(run, err)
		return res, err
	}

	res.Backfills, err = e.backfill(ctx, run)
	e.finishRun(run, err)
	return res, err
}

// Backfill runs Phase 2 alone against an already loaded warehouse.
func (e *Engine) Backfill(ctx context.Context) (*Result, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	run, err := e.startRun("backfill")
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: run}
	res.Backfills, err = e.backfill(ctx, run)
	e.finishRun(run, err)
	return res, err
}

// loadEntities runs Phase 1 for every prepared entity, up to the configured
// parallelism at a time. The first failure stops entities not yet started.
func (e *Engine) loadEntities(ctx context.Context, runID string, mat *warehouse.Materializer, prepared []*Prepared) ([]EntityResult, error) {
	loader := warehouse.NewLoader(e.db, e.dialect, e.logger, e.pipeline.BatchSize)
	results := make([]EntityResult, len(prepared))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.pipeline.Parallelism)
	for i, p := range prepared {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = EntityResult{Table: p.Plan.Table, Skipped: true}
				return nil
			}

			start := e.clock.Now()
			rows, err := e.loadEntity(gctx, mat, loader, p)
			end := e.clock.Now()

			results[i] = EntityResult{Table: p.Plan.Table, Rows: rows, Duration: end.Sub(start), Err: err}
			e.recordEntity(runID, results[i], start, end)
			return err
		})
	}
	return results, g.Wait()
}

func (e *Engine) loadEntity(ctx context.Context, mat *warehouse.Materializer, loader *warehouse.Loader, p *Prepared) (int64, error) {
	if err := mat.Create(ctx, p.Plan); err != nil {
		return 0, err
	}
	return loader.Insert(ctx, p.Plan, p.Data)
}

// backfill resolves every relationship in configured order.
func (e *Engine) backfill(ctx context.Context, runID string) ([]warehouse.Result, error) {
	declared := make(map[string]string, len(e.pipeline.Entities))
	for _, d := range e.pipeline.EntityDescriptors() {
		declared[d.Table] = d.SurrogateKey()
	}

	resolver := warehouse.NewResolver(e.db, e.dialect, e.logger, e.policy)
	results, err := resolver.BackfillAll(ctx, e.pipeline.SchemaRelationships(), declared)
	for _, r := range results {
		e.recordBackfill(runID, r)
	}
	return results, err
}

// --- Run history ---

func (e *Engine) startRun(command string) (string, error) {
	if e.store == nil {
		return "", nil
	}
	run, err := e.store.CreateRun(command, e.dbConfig.Type)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", "run_id", run.ID, "command", command)
	return run.ID, nil
}

func (e *Engine) finishRun(runID string, runErr error) {
	status, msg := state.RunStatusCompleted, ""
	if runErr != nil {
		status, msg = state.RunStatusFailed, runErr.Error()
		e.logger.Info("run failed", "run_id", runID, "error", msg)
	} else {
		e.logger.Info("run completed", "run_id", runID)
	}
	if e.store == nil {
		return
	}
	if err := e.store.CompleteRun(runID, status, msg); err != nil {
		e.logger.Warn("failed to complete run", "run_id", runID, "error", err)
	}
}

func (e *Engine) recordEntity(runID string, r EntityResult, start, end time.Time) {
	if e.store == nil {
		return
	}
	er := &state.EntityRun{
		RunID:       runID,
		Table:       r.Table,
		Status:      state.EntityStatusSuccess,
		Rows:        r.Rows,
		StartedAt:   start,
		CompletedAt: end,
	}
	if r.Err != nil {
		er.Status = state.EntityStatusFailed
		er.Error = r.Err.Error()
	}
	if err := e.store.RecordEntityRun(er); err != nil {
		e.logger.Warn("failed to record entity run", "table", r.Table, "error", err)
	}
}

func (e *Engine) recordBackfill(runID string, r warehouse.Result) {
	if e.store == nil {
		return
	}
	b := &state.Backfill{
		RunID:           runID,
		Relationship:    r.Relationship.String(),
		TargetSurrogate: r.TargetSurrogate,
		Resolved:        r.Resolved,
		Orphans:         r.Orphans,
	}
	if err := e.store.RecordBackfill(b); err != nil {
		e.logger.Warn("failed to record backfill", "relationship", b.Relationship, "error", err)
	}
}
