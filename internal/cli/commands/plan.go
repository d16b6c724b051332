package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldoctor/internal/dag"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the sandbox load plan",
		Long: `Parse the schema statement files, build the table dependency graph,
and print the order in which the sandbox would load tables. Units in the
same level have no dependencies on each other and load concurrently.

A cyclic schema does not fail: the plan falls back to a lexicographic
order over all units and says so.`,
		Example: `  # Show the load plan
  sqldoctor plan

  # Machine-readable plan
  sqldoctor plan --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the plan as JSON")
	return cmd
}

func runPlan(cmd *cobra.Command, asJSON bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	units, err := unitSource(cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	loaded, err := units.Load(cmd.Context())
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no schema files found in %s", cmdCtx.Config.SchemasDir)
	}

	graph := dag.Build(loaded)
	levels, hadCycle := graph.ExecutionLevels()

	if asJSON {
		return planJSON(cmd.OutOrStdout(), levels, hadCycle)
	}
	planText(cmd.OutOrStdout(), graph, levels, hadCycle)
	return nil
}

func planText(w io.Writer, graph *dag.Graph, levels [][]*dag.Node, hadCycle bool) {
	if hadCycle {
		fmt.Fprintln(w, "warning: dependency cycle detected, using lexicographic order")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Level", "Unit", "Depends On"})

	for i, level := range levels {
		for _, node := range level {
			deps := "-"
			if parents := graph.GetParents(node.ID); len(parents) > 0 {
				deps = joinNames(parents)
			}
			t.AppendRow(table.Row{i + 1, node.ID, deps})
		}
	}
	t.Render()
	fmt.Fprintf(w, "%d units, %d levels\n", graph.NodeCount(), len(levels))
}

func planJSON(w io.Writer, levels [][]*dag.Node, hadCycle bool) error {
	type jsonLevel struct {
		Level int      `json:"level"`
		Units []string `json:"units"`
	}
	out := struct {
		HadCycle bool        `json:"had_cycle"`
		Levels   []jsonLevel `json:"levels"`
	}{HadCycle: hadCycle}

	for i, level := range levels {
		jl := jsonLevel{Level: i + 1}
		for _, node := range level {
			jl.Units = append(jl.Units, node.ID)
		}
		out.Levels = append(out.Levels, jl)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
