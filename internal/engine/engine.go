// Package engine runs a pipeline end to end: extract sources, transform them
// into entity datasets, drop and recreate the warehouse tables, insert their
// rows, then backfill the foreign surrogate placeholders.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/internal/dag"
	"github.com/leapstack-labs/leapload/internal/state"
	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
	"github.com/leapstack-labs/leapload/pkg/warehouse"
)

// Engine orchestrates a load.
type Engine struct {
	// Database adapter (lazy connected)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	dialect *dialect.Dialect
	logger  *slog.Logger
	clock   clockwork.Clock

	store     state.Store
	ownsStore bool

	pipeline *config.Pipeline
	policy   warehouse.OrphanPolicy
	graph    *dag.Graph
}

// Config holds engine configuration.
type Config struct {
	// Pipeline is the validated-on-New pipeline to run. Defaults must
	// already be applied and paths resolved.
	Pipeline *config.Pipeline
	// StatePath is the path to the SQLite run history. Ignored when Store
	// is set; empty disables run history.
	StatePath string
	// Store overrides the run history store. The engine does not close it.
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Clock times entity loads (optional, uses the wall clock if nil)
	Clock clockwork.Clock
}

// New validates the pipeline and prepares an engine. The warehouse is only
// connected when a command needs it.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	p := cfg.Pipeline
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	policy, err := warehouse.ParseOrphanPolicy(p.Orphans)
	if err != nil {
		return nil, err
	}

	dbConfig := p.Target.AdapterConfig()
	db, err := adapter.NewAdapter(dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	graph, err := buildGraph(p, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		db:       db,
		dbConfig: dbConfig,
		dialect:  db.Dialect(),
		logger:   logger,
		clock:    clock,
		store:    cfg.Store,
		pipeline: p,
		policy:   policy,
		graph:    graph,
	}

	if e.store == nil && cfg.StatePath != "" {
		store := state.NewSQLiteStore(clock, logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
		e.ownsStore = true
	}

	logger.Debug("engine ready",
		"target", dbConfig.Type,
		"entities", len(p.Entities),
		"relationships", len(p.Relationships))
	return e, nil
}

// buildGraph records which tables reference which. Self references are
// legal but add no edge. Chains and cycles are logged; backfill order stays
// the configured order since every target key is final after Phase 1.
func buildGraph(p *config.Pipeline, logger *slog.Logger) (*dag.Graph, error) {
	g := dag.NewGraph()
	for _, ent := range p.Entities {
		g.AddNode(ent.Table)
	}
	for _, r := range p.SchemaRelationships() {
		if r.Table == r.ForeignTable {
			logger.Debug("self reference", "relationship", r.String())
			continue
		}
		if err := g.AddEdge(r.ForeignTable, r.Table); err != nil {
			return nil, fmt.Errorf("relationship %s: %w", r, err)
		}
	}

	if cyclic, path := g.HasCycle(); cyclic {
		logger.Info("tables reference each other in a cycle", "path", path)
		return g, nil
	}
	chains, err := g.Chains()
	if err != nil {
		return nil, err
	}
	for _, c := range chains {
		logger.Debug("relationship chain", "tables", c)
	}
	return g, nil
}

// ensureDBConnected lazily connects to the warehouse.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)
	if err := e.db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	e.dbConnected = true
	return nil
}

// Ping connects to the warehouse if needed and runs a trivial query.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.ensureDBConnected(ctx); err != nil {
		return err
	}
	rows, err := e.db.Query(ctx, "SELECT 1")
	if err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return rows.Close()
}

// Close releases the warehouse connection and the run history store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	e.dbMu.Lock()
	if e.dbConnected {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
		e.dbConnected = false
	}
	e.dbMu.Unlock()
	if e.ownsStore {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- Getters (public accessors) ---

// Graph returns the table reference graph.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// Dialect returns the warehouse dialect.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// DB returns the warehouse adapter. It is unconnected until a load or
// backfill runs.
func (e *Engine) DB() adapter.Adapter {
	return e.db
}

// Store returns the run history store, or nil when history is disabled.
func (e *Engine) Store() state.Store {
	return e.store
}

// Pipeline returns the pipeline the engine runs.
func (e *Engine) Pipeline() *config.Pipeline {
	return e.pipeline
}
