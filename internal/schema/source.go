package schema

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Source supplies schema units to the sandbox engine. The engine treats a
// source as an opaque producer; files, literal strings, or a live catalog
// query can all sit behind this interface.
type Source interface {
	// Load returns all units in discovery order.
	Load(ctx context.Context) ([]*Unit, error)
}

// DirSource loads every *.sql file from a directory as one unit each.
// The unit identifier is the file base name without extension; discovery
// order is the sorted directory order.
type DirSource struct {
	Dir    string
	Logger *slog.Logger
}

// Load reads all schema files from the directory.
func (s *DirSource) Load(ctx context.Context) ([]*Unit, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schemas directory: %w", err)
	}

	var units []*Unit
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", entry.Name(), err)
		}

		id := strings.TrimSuffix(entry.Name(), ".sql")
		units = append(units, NewUnit(id, string(raw), s.Logger))
	}

	return units, nil
}

// LiteralSource serves in-memory schema text, mainly for tests and embedding.
type LiteralSource struct {
	units []*Unit
}

// NewLiteralSource builds a source from name/SQL pairs in the given order.
func NewLiteralSource(logger *slog.Logger, pairs ...[2]string) *LiteralSource {
	s := &LiteralSource{}
	for _, p := range pairs {
		s.units = append(s.units, NewUnit(p[0], p[1], logger))
	}
	return s
}

// Load returns the literal units.
func (s *LiteralSource) Load(_ context.Context) ([]*Unit, error) {
	return s.units, nil
}
