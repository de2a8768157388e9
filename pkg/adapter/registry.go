package adapter

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unconnected adapter that logs to logger.
type Factory func(logger *slog.Logger) Adapter

var factories = struct {
	sync.RWMutex
	byType map[string]Factory
}{byType: map[string]Factory{}}

// Register makes a warehouse type available to NewAdapter. Adapter
// packages call it from init(); blank-importing one enables its type.
func Register(typ string, f Factory) {
	factories.Lock()
	defer factories.Unlock()
	factories.byType[strings.ToLower(typ)] = f
}

func lookup(typ string) (Factory, bool) {
	factories.RLock()
	defer factories.RUnlock()
	f, ok := factories.byType[strings.ToLower(typ)]
	return f, ok
}

// IsRegistered reports whether typ has a registered factory.
func IsRegistered(typ string) bool {
	_, ok := lookup(typ)
	return ok
}

// ListAdapters returns the registered warehouse types, sorted.
func ListAdapters() []string {
	factories.RLock()
	defer factories.RUnlock()
	return slices.Sorted(maps.Keys(factories.byType))
}

// NewAdapter creates an unconnected adapter for cfg.Type.
// A nil logger discards output.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	f, ok := lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return f(logger.With("adapter", strings.ToLower(cfg.Type))), nil
}

// UnknownAdapterError reports a target type no adapter registered for.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown warehouse type %q (available: %s); check target.type in leapload.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
