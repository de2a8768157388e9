package duckdb

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific target settings, decoded from
// target.params in leapload.yaml.
type Params struct {
	// Extensions are installed and loaded after connecting.
	Extensions []string `mapstructure:"extensions"`

	// Threads and MemoryLimit bound the resources a load may use.
	Threads     int    `mapstructure:"threads"`
	MemoryLimit string `mapstructure:"memory_limit"`

	// Settings are applied verbatim with SET.
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes the adapter params map. Unknown keys are rejected.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	if p.Threads < 0 {
		return nil, fmt.Errorf("invalid duckdb params: threads must not be negative")
	}
	return p, nil
}

// settings returns every SET to apply, sorted by name. The typed fields
// win over the same names in Settings.
func (p *Params) settings() [][2]string {
	all := maps.Clone(p.Settings)
	if all == nil {
		all = map[string]string{}
	}
	if p.Threads > 0 {
		all["threads"] = strconv.Itoa(p.Threads)
	}
	if p.MemoryLimit != "" {
		all["memory_limit"] = p.MemoryLimit
	}
	out := make([][2]string, 0, len(all))
	for _, name := range slices.Sorted(maps.Keys(all)) {
		out = append(out, [2]string{name, all[name]})
	}
	return out
}
