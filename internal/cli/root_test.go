package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqldoctor/internal/cli/config"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	schemas := filepath.Join(dir, "schemas")
	require.NoError(t, os.MkdirAll(schemas, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(schemas, "customers.sql"),
		[]byte("CREATE TABLE customers (id INT PRIMARY KEY);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(schemas, "orders.sql"),
		[]byte("CREATE TABLE orders (id INT, customer_id INT REFERENCES customers(id));"), 0o644))

	cfgPath := filepath.Join(dir, "sqldoctor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
target:
  type: duckdb
  path: warehouse.duckdb
schemas_dir: `+schemas+`
`), 0o644))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--config", writeProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "sqldoctor "+Version)
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan", "--config", writeProject(t))
	require.NoError(t, err)

	assert.Contains(t, out, "customers")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "2 units, 2 levels")
}

func TestPlanCommandJSON(t *testing.T) {
	out, err := execute(t, "plan", "--config", writeProject(t), "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"had_cycle": false`)
	assert.Contains(t, out, `"customers"`)
}

func TestPlanCommandMissingSchemasDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sqldoctor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
target:
  type: duckdb
  path: warehouse.duckdb
schemas_dir: `+filepath.Join(dir, "nope")+`
`), 0o644))

	_, err := execute(t, "plan", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schemas directory does not exist")
}

func TestInvalidConfigFailsEarly(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sqldoctor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
target:
  type: duckdb
sampling_strategy: bogus
`), 0o644))

	_, err := execute(t, "plan", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling configuration")
}
