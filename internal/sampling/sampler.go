package sampling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

// DefaultBatchSize is the number of rows per INSERT batch.
const DefaultBatchSize = 1000

// conventionalTimeColumns are the column names probed, in order, when
// time_based sampling has no explicit time_column configured.
var conventionalTimeColumns = []string{
	"created_at", "updated_at", "create_time", "update_time",
	"event_time", "logged_at", "timestamp", "ts",
}

// TableReport describes one materialized sandbox table.
type TableReport struct {
	// Table is the source table name
	Table string
	// SandboxTable is the destination table name inside the sandbox
	SandboxTable string
	// SourceRows is the live row count at materialization time
	SourceRows int64
	// CopiedRows is the number of rows actually written to the sandbox
	CopiedRows int64
	// Strategy is the effective strategy after threshold resolution
	Strategy Strategy
	// Sampled is true when the table holds a subset rather than a full copy
	Sampled bool
}

// Sampler materializes source tables into the sandbox backend. It reads
// from the target database and writes to the sandbox database; the source
// is never mutated.
type Sampler struct {
	source     adapter.Adapter
	dest       adapter.Adapter
	destSchema string
	batchSize  int
	logger     *slog.Logger
}

// New creates a sampler copying from source into dest. destSchema is the
// sandbox namespace (empty for schema-less backends, where the destination
// table name already carries the namespace suffix).
func New(source, dest adapter.Adapter, destSchema string, batchSize int, logger *slog.Logger) *Sampler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sampler{
		source:     source,
		dest:       dest,
		destSchema: destSchema,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Materialize copies the table into the sandbox under destTable, applying
// the spec's strategy. Failure to read the source row count or to create
// the destination schema is fatal for the whole session.
func (s *Sampler) Materialize(ctx context.Context, table, destTable string, spec Spec) (*TableReport, error) {
	count, err := s.source.RowCount(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read row count for %s: %w", table, err)
	}

	strategy := spec.Resolve(count)
	s.logger.Debug("materializing table",
		"table", table, "sandbox_table", destTable, "rows", count, "strategy", string(strategy))

	meta, err := s.source.TableMetadata(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata for %s: %w", table, err)
	}

	if err := s.createDestTable(ctx, meta, destTable); err != nil {
		return nil, fmt.Errorf("failed to create sandbox table %s: %w", destTable, err)
	}

	var copied int64
	switch strategy {
	case StrategyFullCopy:
		copied, err = s.copyQuery(ctx, fmt.Sprintf("SELECT * FROM %s", s.sourceRef(table)), nil, destTable)
	case StrategyRandom:
		copied, err = s.copyRandom(ctx, table, destTable, spec.SampleSize)
	case StrategyTimeBased:
		copied, err = s.copyTimeBased(ctx, table, destTable, meta, spec)
	case StrategyStratified:
		copied, err = s.copyStratified(ctx, table, destTable, spec)
	default:
		return nil, &StrategyUnsupportedError{Table: table, Strategy: strategy, Reason: "unknown strategy tag"}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("table materialized",
		"table", table, "sandbox_table", destTable,
		"source_rows", count, "copied_rows", copied, "strategy", string(strategy))

	return &TableReport{
		Table:        table,
		SandboxTable: destTable,
		SourceRows:   count,
		CopiedRows:   copied,
		Strategy:     strategy,
		Sampled:      strategy != StrategyFullCopy,
	}, nil
}

// sourceRef returns the quoted, qualified source table reference.
func (s *Sampler) sourceRef(table string) string {
	d := s.source.Dialect()
	schema, name := adapter.ParseQualifiedName(table, d)
	return d.QualifyTable(schema, name)
}

// destRef returns the quoted, qualified destination table reference.
func (s *Sampler) destRef(destTable string) string {
	return s.dest.Dialect().QualifyTable(s.destSchema, destTable)
}

// createDestTable creates the destination table with the same columns and
// types as the source. Constraints are intentionally not carried over: the
// sandbox loads subsets, and foreign keys against unsampled rows would
// reject valid data.
func (s *Sampler) createDestTable(ctx context.Context, meta *adapter.Metadata, destTable string) error {
	d := s.dest.Dialect()

	defs := make([]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		def := d.QuoteIdentifier(col.Name) + " " + col.Type
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", s.destRef(destTable), strings.Join(defs, ", "))
	return s.dest.Exec(ctx, ddl)
}

// copyRandom draws a uniform random subset without replacement.
func (s *Sampler) copyRandom(ctx context.Context, table, destTable string, sampleSize int64) (int64, error) {
	d := s.source.Dialect()
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT %d", s.sourceRef(table), d.RandomFunc, sampleSize)
	return s.copyQuery(ctx, query, nil, destTable)
}

// copyTimeBased selects the most recent rows by the resolved timestamp column.
func (s *Sampler) copyTimeBased(ctx context.Context, table, destTable string, meta *adapter.Metadata, spec Spec) (int64, error) {
	var p TimeBasedParams
	if err := decodeParams(spec.Params, &p); err != nil {
		return 0, fmt.Errorf("time_based sampling params: %w", err)
	}

	timeCol, err := resolveTimeColumn(table, meta, p)
	if err != nil {
		return 0, err
	}

	d := s.source.Dialect()
	var where string
	if p.WindowDays > 0 {
		since := time.Now().AddDate(0, 0, -p.WindowDays)
		where = fmt.Sprintf(" WHERE %s >= %s", d.QuoteIdentifier(timeCol), d.FormatTimestamp(since))
	}

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s DESC LIMIT %d",
		s.sourceRef(table), where, d.QuoteIdentifier(timeCol), spec.SampleSize)
	return s.copyQuery(ctx, query, nil, destTable)
}

// resolveTimeColumn picks the timestamp column for time_based sampling:
// the configured column when given, otherwise the first conventional name
// present in the table with a temporal type.
func resolveTimeColumn(table string, meta *adapter.Metadata, p TimeBasedParams) (string, error) {
	byName := make(map[string]adapter.Column, len(meta.Columns))
	for _, col := range meta.Columns {
		byName[strings.ToLower(col.Name)] = col
	}

	if p.TimeColumn != "" {
		col, ok := byName[strings.ToLower(p.TimeColumn)]
		if !ok {
			return "", &StrategyUnsupportedError{
				Table:    table,
				Strategy: StrategyTimeBased,
				Reason:   fmt.Sprintf("configured time_column %q does not exist", p.TimeColumn),
			}
		}
		return col.Name, nil
	}

	for _, name := range conventionalTimeColumns {
		if col, ok := byName[name]; ok && isTemporalType(col.Type) {
			return col.Name, nil
		}
	}

	return "", &StrategyUnsupportedError{
		Table:    table,
		Strategy: StrategyTimeBased,
		Reason:   "no identifiable timestamp column",
	}
}

// isTemporalType reports whether a column type looks like a timestamp.
func isTemporalType(sqlType string) bool {
	t := strings.ToLower(sqlType)
	return strings.Contains(t, "timestamp") || strings.Contains(t, "date") || strings.Contains(t, "time")
}

// partition is one category bucket of a stratified sample.
type partition struct {
	key   any
	count int64
}

// copyStratified partitions rows by the configured key column and draws
// proportional random subsets from each partition.
func (s *Sampler) copyStratified(ctx context.Context, table, destTable string, spec Spec) (int64, error) {
	var p StratifiedParams
	if err := decodeParams(spec.Params, &p); err != nil {
		return 0, fmt.Errorf("stratified sampling params: %w", err)
	}
	if p.PartitionColumn == "" {
		return 0, &StrategyUnsupportedError{
			Table:    table,
			Strategy: StrategyStratified,
			Reason:   "partition_column is required",
		}
	}

	d := s.source.Dialect()
	keyCol := d.QuoteIdentifier(p.PartitionColumn)

	countQuery := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", keyCol, s.sourceRef(table), keyCol)
	rows, err := s.source.Query(ctx, countQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to read partition counts for %s: %w", table, err)
	}

	var parts []partition
	for rows.Next() {
		var part partition
		if err := rows.Scan(&part.key, &part.count); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan partition count: %w", err)
		}
		parts = append(parts, part)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("error iterating partition counts: %w", err)
	}
	_ = rows.Close()

	quotas := computeQuotas(parts, spec.SampleSize)

	var total int64
	for i, part := range parts {
		if quotas[i] == 0 {
			continue
		}

		var (
			where string
			args  []any
		)
		if part.key == nil {
			where = fmt.Sprintf("%s IS NULL", keyCol)
		} else {
			where = fmt.Sprintf("%s = %s", keyCol, d.FormatPlaceholder(1))
			args = []any{part.key}
		}

		query := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT %d",
			s.sourceRef(table), where, d.RandomFunc, quotas[i])

		copied, err := s.copyQuery(ctx, query, args, destTable)
		if err != nil {
			return total, err
		}
		total += copied
	}

	return total, nil
}

// computeQuotas assigns each partition a share of the sample proportional
// to its population. Every partition with a nonzero population gets at
// least one row so categories are never silently lost.
func computeQuotas(parts []partition, sampleSize int64) []int64 {
	var total int64
	for _, p := range parts {
		total += p.count
	}

	quotas := make([]int64, len(parts))
	if total == 0 {
		return quotas
	}

	for i, p := range parts {
		if p.count == 0 {
			continue
		}
		q := sampleSize * p.count / total
		if q == 0 {
			q = 1
		}
		if q > p.count {
			q = p.count
		}
		quotas[i] = q
	}
	return quotas
}

// copyQuery streams the query's rows from the source into the destination
// table using batched multi-row INSERTs.
func (s *Sampler) copyQuery(ctx context.Context, query string, args []any, destTable string) (int64, error) {
	rows, err := s.source.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read source rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read source columns: %w", err)
	}

	var (
		inserted int64
		batch    [][]any
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.insertBatch(ctx, destTable, cols, batch); err != nil {
			return err
		}
		inserted += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return inserted, fmt.Errorf("failed to scan source row: %w", err)
		}

		batch = append(batch, values)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return inserted, fmt.Errorf("error iterating source rows: %w", err)
	}

	if err := flush(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// insertBatch writes one batch with a single multi-row INSERT.
func (s *Sampler) insertBatch(ctx context.Context, destTable string, cols []string, batch [][]any) error {
	d := s.dest.Dialect()

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.QuoteIdentifier(col)
	}

	var (
		placeholders []string
		args         []any
		idx          = 1
	)
	for _, row := range batch {
		ph := make([]string, len(row))
		for i, val := range row {
			ph[i] = d.FormatPlaceholder(idx)
			args = append(args, val)
			idx++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		s.destRef(destTable), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if err := s.dest.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert batch into %s: %w", destTable, err)
	}
	return nil
}
