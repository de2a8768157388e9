package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapload/internal/cli/output"
)

// Validate checks the CLI-only settings and the target. The rest of the
// pipeline is validated when an engine is built from it.
func (c *Config) Validate() error {
	if c.OutputFormat != "" && output.Mode(c.OutputFormat) == output.ModeAuto &&
		!strings.EqualFold(c.OutputFormat, string(output.ModeAuto)) {
		return fmt.Errorf("invalid output format %q (want one of %s)", c.OutputFormat, strings.Join(output.Modes, ", "))
	}
	if c.Target == nil {
		return fmt.Errorf("target is required")
	}
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	return nil
}

// ValidateDirectories checks that the data directory exists.
func (c *Config) ValidateDirectories() error {
	if !dirExists(c.DataDir) {
		return fmt.Errorf("data directory does not exist: %s\nHint: Create the directory or use --data-dir to specify a different path", c.DataDir)
	}
	return nil
}
