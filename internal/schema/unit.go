// Package schema provides schema-unit parsing for the sandbox engine.
// A unit is one self-contained DDL artifact (typically one .sql file); the
// package extracts the tables each unit creates and references so the
// dependency graph can order imports.
package schema

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnitConfig represents parsed YAML frontmatter of a schema unit.
type UnitConfig struct {
	Description string            `yaml:"description"`
	Sampling    *SamplingOverride `yaml:"sampling"`
}

// SamplingOverride carries per-unit sampling settings from frontmatter.
// Zero fields fall back to the session-wide sampling config.
type SamplingOverride struct {
	Strategy   string         `yaml:"strategy"`
	SampleSize int64          `yaml:"sample_size"`
	Params     map[string]any `yaml:"params"`
}

// Unit is one schema artifact processed as an atomic ordering node.
// Immutable after parsing.
type Unit struct {
	// ID is the unit identifier (file base name or literal name)
	ID string

	// SQL is the raw statement text with frontmatter stripped
	SQL string

	// Creates holds normalized names of tables this unit creates
	Creates []string

	// References holds normalized names of tables this unit references
	// via foreign-key clauses
	References []string

	// Config holds optional frontmatter settings (nil when absent)
	Config *UnitConfig
}

// SamplingOverride returns the unit's frontmatter sampling settings, or
// nil when the unit carries no frontmatter.
func (u *Unit) SamplingOverride() *SamplingOverride {
	if u.Config == nil {
		return nil
	}
	return u.Config.Sampling
}

// frontmatterPattern matches /*--- ... ---*/ blocks at the top of a unit.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// NewUnit parses raw schema text into a Unit. Parsing is best-effort:
// malformed frontmatter or unrecognizable DDL yields an empty extraction
// and a warning, never an error, so one bad unit does not block the rest.
func NewUnit(id, raw string, logger *slog.Logger) *Unit {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	u := &Unit{ID: id, SQL: raw}

	if matches := frontmatterPattern.FindStringSubmatch(raw); len(matches) >= 2 {
		cfg, err := parseUnitYAML(matches[1])
		if err != nil {
			logger.Warn("ignoring malformed frontmatter", "unit", id, "error", err)
		} else {
			u.Config = cfg
		}
		u.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(raw, ""))
	}

	u.Creates, u.References = Extract(u.SQL)
	if len(u.Creates) == 0 {
		logger.Warn("no table definitions extracted", "unit", id)
	}

	return u
}

// parseUnitYAML parses frontmatter YAML in strict mode.
func parseUnitYAML(content string) (*UnitConfig, error) {
	var cfg UnitConfig
	decoder := yaml.NewDecoder(strings.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid frontmatter YAML: %w", err)
	}
	return &cfg, nil
}
