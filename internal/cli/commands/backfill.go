package commands

import (
	"github.com/spf13/cobra"
)

// NewBackfillCommand creates the backfill command.
func NewBackfillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Resolve foreign surrogate keys in a loaded warehouse",
		Long: `Re-run only the backfill phase against tables already loaded.

Each relationship's placeholder column is set to the surrogate key of the
referenced row. Running it again yields the same values.`,
		Example: `  leapload backfill
  leapload backfill --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, runErr := cmdCtx.Engine.Backfill(cmd.Context())
			if res == nil && runErr != nil {
				return runErr
			}
			if err := renderRun(cmdCtx.Renderer, "Backfill", buildRunOutput("backfill", res, runErr)); err != nil {
				return err
			}
			return runErr
		},
	}
}
