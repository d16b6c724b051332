package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqldoctor/internal/cli/config"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		name string
		cfg  adapter.Config
		want string
	}{
		{"network database name", adapter.Config{Type: "postgres", Database: "shop"}, "shop"},
		{"file path", adapter.Config{Type: "duckdb", Path: "warehouse.duckdb"}, "warehouse.duckdb"},
		{"in-memory falls back to type", adapter.Config{Type: "duckdb", Path: ":memory:"}, "duckdb"},
		{"bare type", adapter.Config{Type: "sqlite"}, "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceLabel(&config.Config{Target: tt.cfg}))
		})
	}
}
