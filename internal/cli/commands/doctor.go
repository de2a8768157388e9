package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/pkg/renames"
	"github.com/spf13/cobra"
)

// Health check statuses.
const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// HealthCheck is the result of one doctor check.
type HealthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks   []HealthCheck `json:"checks"`
	Failures int           `json:"failures"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project before loading",
		Long: `Check that a load can run: the config file, data directory, rename
mapping and source snapshots exist, the pipeline is valid and the target
warehouse accepts connections.

Nothing is written to the warehouse.`,
		Example: `  leapload doctor
  leapload doctor --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}

			out := runChecks(cmd.Context(), cmdCtx)
			if err := renderDoctor(cmdCtx.Renderer, out); err != nil {
				return err
			}
			if out.Failures > 0 {
				return fmt.Errorf("%d checks failed", out.Failures)
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	out := &DoctorOutput{}
	add := func(name, status, detail string) {
		out.Checks = append(out.Checks, HealthCheck{Name: name, Status: status, Detail: detail})
		if status == checkFail {
			out.Failures++
		}
	}

	if f := config.GetConfigFileUsed(); f != "" {
		add("config", checkPass, f)
	} else {
		add("config", checkWarn, "no leapload.yaml found, using defaults")
	}

	if err := cfg.ValidateDirectories(); err != nil {
		add("data directory", checkFail, cfg.DataDir)
	} else {
		add("data directory", checkPass, cfg.DataDir)
	}

	if m, err := renames.Load(cfg.Renames); err != nil {
		add("renames", checkFail, err.Error())
	} else {
		add("renames", checkPass, fmt.Sprintf("%d columns", m.Len()))
	}

	for _, s := range cfg.Sources {
		path := cfg.SourcePath(s)
		if _, err := os.Stat(path); err != nil {
			add("source "+s.Name, checkFail, "missing "+path)
		} else {
			add("source "+s.Name, checkPass, path)
		}
	}

	eng, err := createEngine(cfg, cmdCtx.Logger)
	if err != nil {
		add("pipeline", checkFail, err.Error())
		return out
	}
	defer func() { _ = eng.Close() }()
	add("pipeline", checkPass, fmt.Sprintf("%d entities, %d relationships", len(cfg.Entities), len(cfg.Relationships)))

	if cyclic, path := eng.Graph().HasCycle(); cyclic {
		add("references", checkWarn, fmt.Sprintf("cycle %v", path))
	}

	if err := eng.Ping(ctx); err != nil {
		add("target", checkFail, err.Error())
	} else {
		add("target", checkPass, cfg.Target.Type)
	}
	return out
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Project Health")
	rows := make([][]any, 0, len(out.Checks))
	for _, c := range out.Checks {
		rows = append(rows, []any{c.Name, c.Status, c.Detail})
	}
	r.Table([]string{"Check", "Status", "Detail"}, rows)
	return nil
}
