// Package mysql provides a MySQL database adapter for sqldoctor.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql" // mysql driver

	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
	"github.com/leapstack-labs/sqldoctor/pkg/dialect"
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQL dialect for this adapter.
// MySQL schemas are databases, so the connected database acts as the
// default schema for metadata lookups.
func (a *Adapter) Dialect() *dialect.Dialect {
	base, _ := dialect.Get("mysql")
	d := *base
	d.DefaultSchema = a.Cfg.Database
	return &d
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildMySQLDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN: user:pass@tcp(host:port)/db.
func buildMySQLDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	auth := cfg.Username
	if cfg.Password != "" {
		auth += ":" + cfg.Password
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", auth, host, port, cfg.Database)
}

// TableExists reports whether the given table exists.
func (a *Adapter) TableExists(ctx context.Context, table string) (bool, error) {
	return a.TableExistsCommon(ctx, table, a.Dialect())
}

// RowCount returns the exact number of rows in the given table.
func (a *Adapter) RowCount(ctx context.Context, table string) (int64, error) {
	return a.RowCountCommon(ctx, table, a.Dialect())
}

// TableMetadata retrieves column metadata for a specified table.
func (a *Adapter) TableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.TableMetadataCommon(ctx, table, a.Dialect())
}
