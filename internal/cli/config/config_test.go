package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqldoctor/internal/sampling"

	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqldoctor/pkg/adapters/postgres"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqldoctor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
target:
  type: duckdb
  path: warehouse.duckdb
`

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig(writeConfig(t, minimalConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, "warehouse.duckdb", cfg.Target.Path)

	// ambient defaults
	assert.Equal(t, "duckdb", cfg.Sandbox.Type)
	assert.Equal(t, ":memory:", cfg.Sandbox.Path)
	assert.Equal(t, "schemas", cfg.SchemasDir)
	assert.Equal(t, int64(10000), cfg.CopyThreshold)
	assert.Equal(t, int64(500), cfg.SampleSize)
	assert.Equal(t, "random", cfg.SamplingStrategy)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 50, cfg.MaxStatements)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
target:
  type: postgres
  host: db.internal
  port: 5433
  database: shop
  user: doctor
  password: secret
sandbox:
  type: duckdb
  path: sandbox.duckdb
copy_threshold: 200
sample_size: 50
sampling_strategy: stratified
sampling_params:
  partition_column: region
max_statements: 10
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5433, cfg.Target.Port)
	assert.Equal(t, "sandbox.duckdb", cfg.Sandbox.Path)
	assert.Equal(t, int64(200), cfg.CopyThreshold)
	assert.Equal(t, "stratified", cfg.SamplingStrategy)
	assert.Equal(t, "region", cfg.SamplingParams["partition_column"])
	assert.Equal(t, 10, cfg.MaxStatements)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	ResetConfig()
	t.Setenv("SQLDOCTOR_SAMPLE_SIZE", "75")
	t.Setenv("SQLDOCTOR_TARGET__PATH", "other.duckdb")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(75), cfg.SampleSize)
	assert.Equal(t, "other.duckdb", cfg.Target.Path)
}

func TestLoadConfigFlagsOverrideEverything(t *testing.T) {
	ResetConfig()
	t.Setenv("SQLDOCTOR_SAMPLE_SIZE", "75")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("sample-size", 0, "")
	flags.Int("max-statements", 0, "")
	require.NoError(t, flags.Parse([]string{"--sample-size=25", "--max-statements=5"}))

	cfg, err := LoadConfig(writeConfig(t, minimalConfig), flags)
	require.NoError(t, err)

	assert.Equal(t, int64(25), cfg.SampleSize)
	assert.Equal(t, 5, cfg.MaxStatements)
}

func TestLoadConfigExpandsCredentialEnvVars(t *testing.T) {
	ResetConfig()
	t.Setenv("DB_PASS", "hunter2")

	path := writeConfig(t, `
target:
  type: postgres
  host: db.internal
  database: shop
  user: doctor
  password: ${DB_PASS}
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Target.Password)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing target type",
			yaml:    "sample_size: 10\n",
			wantErr: "target.type is required",
		},
		{
			name:    "unknown target type",
			yaml:    "target:\n  type: oracle\n",
			wantErr: "unknown target type",
		},
		{
			name:    "bad sampling strategy",
			yaml:    minimalConfig + "sampling_strategy: reservoir\n",
			wantErr: "sampling configuration",
		},
		{
			name:    "stratified without partition column",
			yaml:    minimalConfig + "sampling_strategy: stratified\n",
			wantErr: "partition_column is required",
		},
		{
			name:    "zero budget",
			yaml:    minimalConfig + "max_statements: 0\n",
			wantErr: "max_statements must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSamplingSpecFromConfig(t *testing.T) {
	cfg := &Config{
		CopyThreshold:    100,
		SampleSize:       10,
		SamplingStrategy: "time_based",
		SamplingParams:   map[string]any{"time_column": "ts"},
	}

	spec := cfg.SamplingSpec()
	assert.Equal(t, sampling.StrategyTimeBased, spec.Strategy)
	assert.Equal(t, int64(100), spec.CopyThreshold)
	require.NoError(t, spec.Validate())
}
