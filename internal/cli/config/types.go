// Package config loads and validates sqldoctor configuration from
// defaults, sqldoctor.yaml, SQLDOCTOR_* environment variables, and CLI
// flags, in ascending precedence.
package config

import (
	"time"

	"github.com/leapstack-labs/sqldoctor/internal/sampling"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

// Defaults applied before any other configuration source.
const (
	DefaultConfigFile    = "sqldoctor.yaml"
	DefaultSchemasDir    = "schemas"
	DefaultCopyThreshold = 10000
	DefaultSampleSize    = 500
	DefaultStrategy      = "random"
	DefaultBatchSize     = 1000
	DefaultMaxStatements = 50
	DefaultTimeout       = 30 * time.Minute
)

// Config is the full sqldoctor configuration.
type Config struct {
	// Target is the database under diagnosis. Read only.
	Target adapter.Config `koanf:"target"`

	// Sandbox is the backend sandboxes are provisioned on. Defaults to
	// an in-memory DuckDB.
	Sandbox adapter.Config `koanf:"sandbox"`

	// SchemasDir holds the *.sql schema statement files
	SchemasDir string `koanf:"schemas_dir"`

	// CopyThreshold is the row count at or below which tables are
	// always copied in full
	CopyThreshold int64 `koanf:"copy_threshold"`

	// SampleSize is the target row count for sampled tables
	SampleSize int64 `koanf:"sample_size"`

	// SamplingStrategy is one of full_copy, random, time_based, stratified
	SamplingStrategy string `koanf:"sampling_strategy"`

	// SamplingParams carries the strategy-specific parameters
	SamplingParams map[string]any `koanf:"sampling_params"`

	// BatchSize is the INSERT batch size during import
	BatchSize int `koanf:"batch_size"`

	// MaxStatements is the per-session diagnostic statement budget
	MaxStatements int `koanf:"max_statements"`

	// SessionTimeout bounds a whole diagnostic session
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// Verbose enables debug logging
	Verbose bool `koanf:"verbose"`
}

// SamplingSpec builds the session-level sampling spec from the config.
func (c *Config) SamplingSpec() sampling.Spec {
	return sampling.Spec{
		CopyThreshold: c.CopyThreshold,
		SampleSize:    c.SampleSize,
		Strategy:      sampling.Strategy(c.SamplingStrategy),
		Params:        c.SamplingParams,
	}
}
