package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/spf13/cobra"
)

// GraphQuerier provides read-only access to the reference graph.
type GraphQuerier interface {
	Parents(string) []string
	Children(string) []string
	Nodes() []string
	NodeCount() int
	EdgeCount() int
	HasCycle() (bool, []string)
	Chains() ([][]string, error)
}

// GraphOutput is the JSON output of the graph command.
type GraphOutput struct {
	Tables []GraphTable `json:"tables"`
	Chains [][]string   `json:"chains,omitempty"`
	Cycle  []string     `json:"cycle,omitempty"`
	Edges  int          `json:"edges"`
}

// GraphTable is one entity table and its neighbours.
type GraphTable struct {
	Table        string   `json:"table"`
	References   []string `json:"references,omitempty"`
	ReferencedBy []string `json:"referenced_by,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show which tables reference which",
		Long: `Display the relationship graph between entity tables.

Each table lists the tables its foreign keys point at and the tables
pointing at it. Reference chains and cycles are reported as well; both
are legal and backfill in configured order.`,
		Example: `  leapload graph
  leapload graph --output json`,
		Aliases: []string{"dag"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := buildGraphOutput(cmdCtx.Engine.Graph())
			return renderGraph(cmdCtx.Renderer, out)
		},
	}
}

func buildGraphOutput(g GraphQuerier) *GraphOutput {
	out := &GraphOutput{Edges: g.EdgeCount()}
	for _, id := range g.Nodes() {
		out.Tables = append(out.Tables, GraphTable{
			Table: id,
			// Edges run from the referenced table to the referencing one.
			References:   g.Parents(id),
			ReferencedBy: g.Children(id),
		})
	}
	if cyclic, path := g.HasCycle(); cyclic {
		out.Cycle = path
	} else if chains, err := g.Chains(); err == nil {
		out.Chains = chains
	}
	return out
}

func renderGraph(r *output.Renderer, out *GraphOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Reference Graph")
	rows := make([][]any, 0, len(out.Tables))
	for _, t := range out.Tables {
		rows = append(rows, []any{t.Table, strings.Join(t.References, ", "), strings.Join(t.ReferencedBy, ", ")})
	}
	r.Table([]string{"Table", "References", "Referenced By"}, rows)
	r.Println("")

	if len(out.Cycle) > 0 {
		r.KeyValue("Cycle", strings.Join(out.Cycle, " -> "))
	}
	for _, c := range out.Chains {
		r.KeyValue("Chain", strings.Join(c, " -> "))
	}
	r.KeyValue("Total", fmt.Sprintf("%d tables, %d references", len(out.Tables), out.Edges))
	return nil
}
