package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqldoctor/internal/dag"
	"github.com/leapstack-labs/sqldoctor/internal/sampling"
	"github.com/leapstack-labs/sqldoctor/internal/schema"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

// teardownTimeout bounds teardown work even when the caller's context is
// already cancelled.
const teardownTimeout = 30 * time.Second

// Options configures a sandbox manager.
type Options struct {
	// Source is the connected adapter for the target database (read only)
	Source adapter.Adapter

	// Sandbox is the connected adapter for the sandbox backend
	Sandbox adapter.Adapter

	// SourceName labels the sandbox namespace, usually the target
	// database name
	SourceName string

	// Units supplies the schema statement units to provision from
	Units schema.Source

	// Spec is the session-level sampling configuration
	Spec sampling.Spec

	// BatchSize is the INSERT batch size for table copies
	BatchSize int

	Logger *slog.Logger
}

// ProvisionReport summarizes a successful provisioning run.
type ProvisionReport struct {
	// Namespace is the sandbox schema (or table-name suffix token)
	Namespace string

	// Plan lists unit IDs in load order
	Plan []string

	// HadCycle is true when the dependency graph was cyclic and the
	// load order fell back to lexicographic
	HadCycle bool

	// Tables reports each materialized table
	Tables []*sampling.TableReport
}

// Manager owns the full lifecycle of one sandbox: namespace creation,
// ordered import of sampled tables, reset, and guaranteed teardown.
// Teardown runs at most once regardless of how many times it is invoked
// or which phase failed.
type Manager struct {
	source     adapter.Adapter
	sandbox    adapter.Adapter
	sourceName string
	units      schema.Source
	spec       sampling.Spec
	batchSize  int
	logger     *slog.Logger

	session   *Session
	mapper    *Mapper
	namespace string
	useSchema bool

	mu      sync.Mutex
	levels  [][]*dag.Node
	plan    []string
	tables  []string // sandbox-side quoted refs, for teardown and reset
	reports []*sampling.TableReport

	teardownOnce sync.Once
	teardownErr  error
}

// NewManager creates a manager. The adapters must already be connected.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		source:     opts.Source,
		sandbox:    opts.Sandbox,
		sourceName: opts.SourceName,
		units:      opts.Units,
		spec:       opts.Spec,
		batchSize:  opts.BatchSize,
		logger:     logger,
		session:    NewSession(),
		mapper:     NewMapper(),
	}
}

// Session exposes the lifecycle state machine. The diagnostic layer uses
// it to guard statement execution.
func (m *Manager) Session() *Session { return m.session }

// Mapper exposes the original-to-sandbox table name mapping.
func (m *Manager) Mapper() *Mapper { return m.mapper }

// Namespace returns the sandbox namespace. Empty until provisioned.
func (m *Manager) Namespace() string { return m.namespace }

// Reports returns the per-table materialization reports.
func (m *Manager) Reports() []*sampling.TableReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*sampling.TableReport, len(m.reports))
	copy(out, m.reports)
	return out
}

// Provision creates the sandbox namespace and imports every table in
// dependency order. On any failure the sandbox is torn down before the
// error is returned, so no partial namespace outlives the attempt.
func (m *Manager) Provision(ctx context.Context) (*ProvisionReport, error) {
	if err := m.session.Transition(StateCreating); err != nil {
		return nil, err
	}

	report, err := m.provision(ctx)
	if err != nil {
		_ = m.session.Transition(StateFailed)
		if terr := m.Teardown(ctx); terr != nil {
			m.logger.Error("teardown after failed provisioning", "error", terr)
		}
		return nil, err
	}
	return report, nil
}

func (m *Manager) provision(ctx context.Context) (*ProvisionReport, error) {
	m.namespace = namespaceFor(m.sourceName)
	m.useSchema = m.sandbox.Dialect().SupportsSchemas

	if m.useSchema {
		ddl := fmt.Sprintf("CREATE SCHEMA %s", m.sandbox.Dialect().QuoteIdentifier(m.namespace))
		if err := m.sandbox.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create sandbox schema %s: %w", m.namespace, err)
		}
	}
	m.logger.Info("sandbox namespace created",
		"namespace", m.namespace, "schema_based", m.useSchema)

	units, err := m.units.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema units: %w", err)
	}

	graph := dag.Build(units)
	levels, hadCycle := graph.ExecutionLevels()
	if hadCycle {
		m.logger.Warn("dependency graph is cyclic, falling back to lexicographic load order")
	}

	m.mu.Lock()
	m.levels = levels
	m.plan = m.plan[:0]
	for _, level := range levels {
		for _, node := range level {
			m.plan = append(m.plan, node.ID)
		}
	}
	plan := make([]string, len(m.plan))
	copy(plan, m.plan)
	m.mu.Unlock()

	if err := m.session.Transition(StateImporting); err != nil {
		return nil, err
	}
	if err := m.importAll(ctx); err != nil {
		return nil, err
	}

	if err := m.session.Transition(StateReady); err != nil {
		return nil, err
	}
	m.logger.Info("sandbox ready", "namespace", m.namespace, "tables", len(m.Reports()))

	return &ProvisionReport{
		Namespace: m.namespace,
		Plan:      plan,
		HadCycle:  hadCycle,
		Tables:    m.Reports(),
	}, nil
}

// importAll materializes every unit level by level. Units inside one
// level have no dependencies on each other and import concurrently.
func (m *Manager) importAll(ctx context.Context) error {
	sampler := sampling.New(m.source, m.sandbox, m.destSchema(), m.batchSize, m.logger)

	for _, level := range m.levels {
		g, gctx := errgroup.WithContext(ctx)
		for _, node := range level {
			unit, ok := node.Data.(*schema.Unit)
			if !ok {
				continue
			}
			g.Go(func() error {
				return m.importUnit(gctx, sampler, unit)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// importUnit provisions the tables one unit creates. Tables present in
// the source are sampled; a unit whose tables are all absent from the
// source is built empty from its own DDL, rewritten to sandbox names.
func (m *Manager) importUnit(ctx context.Context, sampler *sampling.Sampler, unit *schema.Unit) error {
	spec, err := m.spec.Merge(unit.SamplingOverride())
	if err != nil {
		return fmt.Errorf("unit %s: %w", unit.ID, err)
	}

	var existing []string
	for _, table := range unit.Creates {
		ok, err := m.source.TableExists(ctx, table)
		if err != nil {
			return &ImportError{Unit: unit.ID, Table: table, Err: err}
		}
		if ok {
			existing = append(existing, table)
		}
	}

	if len(existing) == 0 && len(unit.Creates) > 0 {
		return m.importEmptyUnit(ctx, unit)
	}

	for _, table := range unit.Creates {
		if !contains(existing, table) {
			m.logger.Warn("table absent from source, skipping",
				"unit", unit.ID, "table", table)
			continue
		}

		destTable := m.destTableName(table)
		report, err := sampler.Materialize(ctx, table, destTable, spec)
		if err != nil {
			return &ImportError{Unit: unit.ID, Table: table, Err: err}
		}
		m.registerTable(table, destTable)
		m.mu.Lock()
		m.reports = append(m.reports, report)
		m.mu.Unlock()
	}
	return nil
}

// importEmptyUnit creates a unit's tables with no rows by executing its
// DDL against the sandbox, with table names rewritten.
func (m *Manager) importEmptyUnit(ctx context.Context, unit *schema.Unit) error {
	for _, table := range unit.Creates {
		m.registerTable(table, m.destTableName(table))
	}

	rewritten := m.mapper.Rewrite(unit.SQL)
	if err := m.sandbox.Exec(ctx, rewritten); err != nil {
		return &ImportError{Unit: unit.ID, Table: unit.Creates[0], Err: err}
	}

	m.logger.Debug("unit created empty, tables absent from source",
		"unit", unit.ID, "tables", unit.Creates)
	return nil
}

// destSchema returns the sampler destination schema ("" when the backend
// has no schemas and names carry the namespace as a suffix).
func (m *Manager) destSchema() string {
	if m.useSchema {
		return m.namespace
	}
	return ""
}

// destTableName returns the table name used inside the sandbox.
func (m *Manager) destTableName(table string) string {
	if m.useSchema {
		return table
	}
	return fmt.Sprintf("%s_%s", table, m.namespace)
}

// registerTable records a provisioned table in the mapper and the
// teardown list.
func (m *Manager) registerTable(table, destTable string) {
	d := m.sandbox.Dialect()
	ref := d.QualifyTable(m.destSchema(), destTable)
	m.mapper.Add(table, ref)

	m.mu.Lock()
	if !contains(m.tables, ref) {
		m.tables = append(m.tables, ref)
	}
	m.mu.Unlock()
}

// Reset drops every sandbox table and re-imports the sampled data,
// returning the sandbox to its freshly provisioned state. The namespace
// and name mapping survive a reset.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.session.Transition(StateImporting); err != nil {
		return err
	}

	m.mu.Lock()
	refs := make([]string, len(m.tables))
	copy(refs, m.tables)
	m.tables = m.tables[:0]
	m.reports = m.reports[:0]
	m.mu.Unlock()

	for _, ref := range refs {
		if err := m.sandbox.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", ref)); err != nil {
			_ = m.session.Transition(StateFailed)
			return fmt.Errorf("reset failed to drop %s: %w", ref, err)
		}
	}

	if err := m.importAll(ctx); err != nil {
		_ = m.session.Transition(StateFailed)
		return err
	}

	m.logger.Info("sandbox reset", "namespace", m.namespace)
	return m.session.Transition(StateReady)
}

// Teardown dismantles the sandbox: every provisioned table is dropped,
// then the namespace itself. It runs at most once; later calls return
// the first call's result. Teardown proceeds even when the caller's
// context is cancelled, and keeps going past individual drop failures.
func (m *Manager) Teardown(ctx context.Context) error {
	m.teardownOnce.Do(func() {
		m.teardownErr = m.teardown(ctx)
	})
	return m.teardownErr
}

func (m *Manager) teardown(ctx context.Context) error {
	if err := m.session.Transition(StateTearingDown); err != nil {
		return err
	}
	defer func() { _ = m.session.Transition(StateClosed) }()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	var errs []error

	m.mu.Lock()
	refs := make([]string, len(m.tables))
	copy(refs, m.tables)
	m.mu.Unlock()

	for _, ref := range refs {
		if err := m.sandbox.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", ref)); err != nil {
			errs = append(errs, fmt.Errorf("drop table %s: %w", ref, err))
		}
	}

	if m.useSchema && m.namespace != "" {
		ddl := fmt.Sprintf("DROP SCHEMA IF EXISTS %s", m.sandbox.Dialect().QuoteIdentifier(m.namespace))
		if err := m.sandbox.Exec(ctx, ddl); err != nil {
			errs = append(errs, fmt.Errorf("drop schema %s: %w", m.namespace, err))
		}
	}

	if len(errs) > 0 {
		return &TeardownError{Namespace: m.namespace, Errs: errs}
	}
	m.logger.Info("sandbox torn down", "namespace", m.namespace)
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
