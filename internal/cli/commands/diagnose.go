package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldoctor/internal/diagtool"
)

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand() *cobra.Command {
	var sqlFile string

	cmd := &cobra.Command{
		Use:   "diagnose [sql]",
		Short: "Run diagnostic SQL against a fresh sandbox",
		Long: `Provision a sandbox, execute the given SQL against it, print the
results with per-statement timings, and tear the sandbox down. The SQL
may reference original table names; they are rewritten to the sandbox
automatically.

The SQL comes from the argument, --file, or stdin, in that priority.
Execution stops when the per-session statement budget is spent.`,
		Example: `  # Diagnose a query directly
  sqldoctor diagnose "SELECT count(*) FROM orders WHERE status = 'open'"

  # Run a diagnosis script
  sqldoctor diagnose --file slow_query_analysis.sql

  # Pipe from another tool
  echo "EXPLAIN SELECT * FROM orders" | sqldoctor diagnose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText, err := readDiagnosisSQL(cmd, args, sqlFile)
			if err != nil {
				return err
			}
			return runDiagnose(cmd, sqlText)
		},
	}

	cmd.Flags().StringVarP(&sqlFile, "file", "f", "", "Read the diagnostic SQL from a file")
	return cmd
}

func readDiagnosisSQL(cmd *cobra.Command, args []string, sqlFile string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if sqlFile != "" {
		raw, err := os.ReadFile(sqlFile)
		if err != nil {
			return "", fmt.Errorf("failed to read SQL file: %w", err)
		}
		return string(raw), nil
	}

	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read SQL from stdin: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("no SQL given: pass it as an argument, via --file, or on stdin")
	}
	return string(raw), nil
}

func runDiagnose(cmd *cobra.Command, sqlText string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cmdCtx.Config.SessionTimeout)
	defer cancel()

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
	if _, err := manager.Provision(ctx); err != nil {
		return err
	}
	defer func() {
		if err := manager.Teardown(ctx); err != nil {
			cmdCtx.Logger.Error("sandbox teardown", "error", err)
		}
	}()

	tool := diagtool.New(manager, dest, cmdCtx.Config.MaxStatements, cmdCtx.Logger)
	result, err := tool.RunStatement(ctx, sqlText)
	if err != nil {
		if errors.Is(err, diagtool.ErrBudgetExceeded) {
			return fmt.Errorf("statement budget of %d exceeded", cmdCtx.Config.MaxStatements)
		}
		return err
	}

	diagtool.Render(cmd.OutOrStdout(), result)
	if !result.Success {
		return fmt.Errorf("diagnosis failed: %s", result.ErrorMessage)
	}
	return nil
}
