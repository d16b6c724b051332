// Package sampling decides, per table, whether the sandbox receives a full
// copy or a statistically chosen subset of rows, and materializes that data
// into the sandbox backend.
package sampling

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/sqldoctor/internal/schema"
)

// Strategy identifies how a table's rows are selected for the sandbox.
type Strategy string

const (
	// StrategyFullCopy copies every row verbatim.
	StrategyFullCopy Strategy = "full_copy"
	// StrategyRandom draws a fixed-size uniform random subset.
	StrategyRandom Strategy = "random"
	// StrategyTimeBased selects rows in the most recent (or configured) time window.
	StrategyTimeBased Strategy = "time_based"
	// StrategyStratified draws proportional subsets per category partition.
	StrategyStratified Strategy = "stratified"
)

// Spec holds the sampling decision inputs for one table.
type Spec struct {
	// CopyThreshold is the row count at or below which the table is always
	// copied in full, regardless of the configured strategy.
	CopyThreshold int64

	// SampleSize is the target row count for sampled strategies.
	SampleSize int64

	// Strategy is the configured strategy tag.
	Strategy Strategy

	// Params is the strategy-specific parameter payload, shaped per tag.
	Params map[string]any
}

// RandomParams: the random strategy needs nothing beyond the sample size.
type RandomParams struct{}

// TimeBasedParams configures the time_based strategy.
type TimeBasedParams struct {
	// TimeColumn names the timestamp column; when empty a conventional
	// column name is detected from table metadata.
	TimeColumn string `mapstructure:"time_column"`

	// WindowDays bounds the sample to the most recent N days (0 = unbounded).
	WindowDays int `mapstructure:"window_days"`
}

// StratifiedParams configures the stratified strategy.
type StratifiedParams struct {
	// PartitionColumn is the category column rows are partitioned by.
	PartitionColumn string `mapstructure:"partition_column"`
}

// Validate checks the spec's strategy tag and decodes the parameter payload
// against the per-tag shape. Called at configuration-load time so shape
// errors surface before any sandbox work starts.
func (s *Spec) Validate() error {
	switch s.Strategy {
	case StrategyFullCopy:
		return nil
	case StrategyRandom:
		var p RandomParams
		if err := decodeParams(s.Params, &p); err != nil {
			return fmt.Errorf("random sampling params: %w", err)
		}
	case StrategyTimeBased:
		var p TimeBasedParams
		if err := decodeParams(s.Params, &p); err != nil {
			return fmt.Errorf("time_based sampling params: %w", err)
		}
		if p.WindowDays < 0 {
			return fmt.Errorf("time_based sampling params: window_days must not be negative")
		}
	case StrategyStratified:
		var p StratifiedParams
		if err := decodeParams(s.Params, &p); err != nil {
			return fmt.Errorf("stratified sampling params: %w", err)
		}
		if p.PartitionColumn == "" {
			return fmt.Errorf("stratified sampling params: partition_column is required")
		}
	default:
		return fmt.Errorf("unknown sampling strategy %q", s.Strategy)
	}

	if s.SampleSize <= 0 {
		return fmt.Errorf("sample_size must be positive for strategy %q", s.Strategy)
	}
	return nil
}

// Resolve returns the effective strategy for a table with the given live
// row count: at or below the copy threshold the strategy is always a full
// copy, whatever the configured tag.
func (s *Spec) Resolve(rowCount int64) Strategy {
	if rowCount <= s.CopyThreshold {
		return StrategyFullCopy
	}
	return s.Strategy
}

// Merge returns a copy of the spec with per-unit frontmatter overrides
// applied. The merged spec is validated before use.
func (s Spec) Merge(o *schema.SamplingOverride) (Spec, error) {
	if o == nil {
		return s, nil
	}
	if o.Strategy != "" {
		s.Strategy = Strategy(o.Strategy)
	}
	if o.SampleSize > 0 {
		s.SampleSize = o.SampleSize
	}
	if o.Params != nil {
		s.Params = o.Params
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// decodeParams strictly decodes the opaque params mapping into a typed
// per-strategy struct; unused keys are rejected to catch typos early.
func decodeParams(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
