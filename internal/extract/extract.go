// Package extract reads raw source datasets from the data directory:
// tables of SQLite snapshots and delimited text files.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/pkg/dataset"
	"golang.org/x/sync/errgroup"
)

// Extractor reads the sources of a pipeline.
type Extractor struct {
	logger      *slog.Logger
	parallelism int
}

// New creates an extractor reading up to parallelism sources at a time.
func New(logger *slog.Logger, parallelism int) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Extractor{logger: logger, parallelism: parallelism}
}

// Extract reads every source of p and returns the datasets by source name.
// The first failure cancels the remaining reads.
func (x *Extractor) Extract(ctx context.Context, p *config.Pipeline) (map[string]*dataset.Dataset, error) {
	var mu sync.Mutex
	out := make(map[string]*dataset.Dataset, len(p.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.parallelism)
	for _, src := range p.Sources {
		g.Go(func() error {
			ds, err := x.Read(gctx, src, p.SourcePath(src))
			if err != nil {
				return err
			}
			mu.Lock()
			out[src.Name] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Read reads one source from path.
func (x *Extractor) Read(ctx context.Context, src config.Source, path string) (*dataset.Dataset, error) {
	start := time.Now()

	var ds *dataset.Dataset
	var err error
	switch strings.ToLower(src.Type) {
	case config.SourceSQLite:
		ds, err = ReadSQLite(ctx, src.Name, path, src.Table)
	case config.SourceCSV:
		ds, err = ReadCSV(src.Name, path, delimiter(src.Delimiter))
	default:
		err = fmt.Errorf("unknown source type %q", src.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", src.Name, err)
	}

	x.logger.Info("extracted", "source", src.Name, "rows", ds.Len(), "columns", len(ds.Names()),
		"duration", time.Since(start))
	return ds, nil
}

func delimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return ','
}
