// Package state records load history in a local SQLite database: one row
// per run, per entity loaded in a run, and per relationship backfilled.
package state

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// EntityStatus is the outcome of loading one entity.
type EntityStatus string

// Entity statuses.
const (
	EntityStatusSuccess EntityStatus = "success"
	EntityStatusFailed  EntityStatus = "failed"
)

// Run is one invocation of load or backfill.
type Run struct {
	ID          string
	Command     string
	Target      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Duration returns how long the run took, or 0 while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// EntityRun is the outcome of creating and filling one table.
type EntityRun struct {
	RunID       string
	Table       string
	Status      EntityStatus
	Rows        int64
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
}

// Backfill is the outcome of resolving one relationship.
type Backfill struct {
	RunID           string
	Relationship    string
	TargetSurrogate string
	Resolved        int64
	Orphans         int64
	RecordedAt      time.Time
}

// Store is the run history the engine writes to.
type Store interface {
	CreateRun(command, target string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	RecordEntityRun(er *EntityRun) error
	GetEntityRuns(runID string) ([]*EntityRun, error)
	RecordBackfill(b *Backfill) error
	GetBackfills(runID string) ([]*Backfill, error)
	Close() error
}
