package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

// Validate checks the merged configuration. Sampling parameters are
// decoded against their strategy here so a typo fails at startup.
func Validate(c *Config) error {
	if c.Target.Type == "" {
		return fmt.Errorf("target.type is required")
	}
	if !adapter.IsRegistered(c.Target.Type) {
		return fmt.Errorf("unknown target type %q (available: %s)",
			c.Target.Type, strings.Join(adapter.ListAdapters(), ", "))
	}
	if !adapter.IsRegistered(c.Sandbox.Type) {
		return fmt.Errorf("unknown sandbox type %q (available: %s)",
			c.Sandbox.Type, strings.Join(adapter.ListAdapters(), ", "))
	}

	if c.CopyThreshold < 0 {
		return fmt.Errorf("copy_threshold must not be negative")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MaxStatements <= 0 {
		return fmt.Errorf("max_statements must be positive")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}

	spec := c.SamplingSpec()
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("sampling configuration: %w", err)
	}
	return nil
}

// ValidateSchemasDir checks that the schemas directory exists. Split
// from Validate so help and version commands work without a project.
func (c *Config) ValidateSchemasDir() error {
	if _, err := os.Stat(c.SchemasDir); os.IsNotExist(err) {
		return fmt.Errorf("schemas directory does not exist: %s\nHint: create the directory or use --schemas-dir to point at your schema files", c.SchemasDir)
	}
	return nil
}
