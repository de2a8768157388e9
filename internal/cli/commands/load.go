package commands

import (
	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Rebuild the warehouse from the snapshots",
		Long: `Run a full reload of the warehouse.

Every source is extracted and every entity transformed before the warehouse
is touched. Each entity table is then dropped, created and filled, and
finally every relationship is backfilled with the surrogate keys of the
rows it references.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Load using ./leapload.yaml
  leapload load

  # Load into a different database file
  leapload load --database build/warehouse.duckdb

  # Load four entities at a time and report as JSON
  leapload load --parallelism 4 --output json`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd)
		},
	}

	return cmd
}

func runLoad(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	res, runErr := cmdCtx.Engine.Load(cmd.Context())
	if res == nil && runErr != nil {
		return runErr
	}
	if err := renderRun(cmdCtx.Renderer, "Load", buildRunOutput("load", res, runErr)); err != nil {
		return err
	}
	return runErr
}
