// Package commands implements the sqldoctor subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldoctor/internal/cli/config"
	"github.com/leapstack-labs/sqldoctor/internal/sandbox"
	"github.com/leapstack-labs/sqldoctor/internal/schema"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"

	// Register the built-in adapters.
	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/sqlite"
)

// CommandContext bundles everything a subcommand needs.
type CommandContext struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewCommandContext resolves config and logger for a subcommand.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return &CommandContext{
		Config: cfg,
		Logger: config.GetLogger(cmd.Context()),
	}, nil
}

// openAdapter creates and connects an adapter for a connection block.
// The returned cleanup closes the connection.
func openAdapter(ctx context.Context, cfg adapter.Config, logger *slog.Logger) (adapter.Adapter, func(), error) {
	a, err := adapter.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close adapter", "type", cfg.Type, "error", err)
		}
	}
	return a, cleanup, nil
}

// unitSource returns the schema statement source for the configured
// schemas directory.
func unitSource(cfg *config.Config, logger *slog.Logger) (schema.Source, error) {
	if err := cfg.ValidateSchemasDir(); err != nil {
		return nil, err
	}
	return &schema.DirSource{Dir: cfg.SchemasDir, Logger: logger}, nil
}

// sourceLabel picks the human-readable name of the target database for
// sandbox namespacing.
func sourceLabel(cfg *config.Config) string {
	if cfg.Target.Database != "" {
		return cfg.Target.Database
	}
	if cfg.Target.Path != "" && cfg.Target.Path != ":memory:" {
		return cfg.Target.Path
	}
	return cfg.Target.Type
}

// newManager wires a sandbox manager from config and connected adapters.
func newManager(ctx *CommandContext, source, dest adapter.Adapter, units schema.Source) *sandbox.Manager {
	return sandbox.NewManager(sandbox.Options{
		Source:     source,
		Sandbox:    dest,
		SourceName: sourceLabel(ctx.Config),
		Units:      units,
		Spec:       ctx.Config.SamplingSpec(),
		BatchSize:  ctx.Config.BatchSize,
		Logger:     ctx.Logger,
	})
}
