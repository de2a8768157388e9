package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapload/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapload project",
		Long: `Initialize a new leapload project with a working example.

This creates:
  - leapload.yaml configuration file
  - renames.json column rename mapping
  - data/ directory with two CSV snapshots`,
		Example: `  # Initialize in current directory
  leapload init

  # Initialize in a new directory
  leapload init my-warehouse

  # Force overwrite existing files
  leapload init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			mode, _ := cmd.Flags().GetString("output")
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(mode))
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	files, err := copyTemplate("project", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"directory": dir, "files": files})
	}

	r.Header(2, "Created")
	for _, f := range files {
		r.Println("  " + f)
	}
	r.Println("")
	r.Println("Next steps:")
	r.Println("  leapload plan    Review the SQL a load would run")
	r.Println("  leapload load    Build the warehouse")
	r.Println("  leapload runs    View load history")
	return nil
}
