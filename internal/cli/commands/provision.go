package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldoctor/internal/sandbox"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a sandbox and report what was imported",
		Long: `Connect to the target database, provision a sandbox on the sandbox
backend, and report every imported table with its row counts and the
sampling strategy applied. The sandbox is torn down afterwards unless
--keep is given.`,
		Example: `  # Dry-run a sandbox import
  sqldoctor provision

  # Keep the sandbox around for manual inspection
  sqldoctor provision --keep`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProvision(cmd, keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "Leave the sandbox in place instead of tearing it down")
	return cmd
}

func runProvision(cmd *cobra.Command, keep bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	units, err := unitSource(cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}

	source, closeSource, err := openAdapter(ctx, cmdCtx.Config.Target, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeSource()

	dest, closeDest, err := openAdapter(ctx, cmdCtx.Config.Sandbox, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeDest()

	manager := newManager(cmdCtx, source, dest, units)
	report, err := manager.Provision(ctx)
	if err != nil {
		return err
	}

	renderProvisionReport(cmd.OutOrStdout(), report)

	if keep {
		fmt.Fprintf(cmd.OutOrStdout(), "sandbox kept: %s\n", report.Namespace)
		return nil
	}
	return manager.Teardown(ctx)
}

func renderProvisionReport(w io.Writer, report *sandbox.ProvisionReport) {
	fmt.Fprintf(w, "namespace: %s\n", report.Namespace)
	if report.HadCycle {
		fmt.Fprintln(w, "warning: dependency cycle detected, loaded in lexicographic order")
	}

	if len(report.Tables) == 0 {
		fmt.Fprintln(w, "no tables imported")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Sandbox Table", "Source Rows", "Copied Rows", "Strategy"})

	for _, tr := range report.Tables {
		t.AppendRow(table.Row{tr.Table, tr.SandboxTable, tr.SourceRows, tr.CopiedRows, string(tr.Strategy)})
	}
	t.Render()
}
