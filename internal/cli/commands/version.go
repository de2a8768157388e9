package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display leapload version and build information.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "leapload v%s\n", version)
			_, _ = fmt.Fprintf(out, "commit %s, built %s, %s %s/%s\n", commit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
