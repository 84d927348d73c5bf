// Package db is the SQL-first store layer behind postboard. It is NOT an ORM:
// repositories write their SQL explicitly and this package supplies the
// connection pool, hook dispatch, error mapping, transactions and the small
// per-driver dialect needed to render upserts portably.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds all options for opening and managing the connection pool.
type Config struct {
	// DSN is the driver-specific data-source name. It is passed through the
	// driver's NormalizeDSN before use.
	DSN string

	// DriverName is one of the registered drivers: "postgres", "pgx",
	// "mysql", "sqlite3" or "sqlite".
	DriverName string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Default query timeout applied when no deadline is set on the context.
	// Zero means no default timeout.
	DefaultTimeout time.Duration

	// Hooks executed around every statement (logging, metrics).
	// nil entries are silently skipped.
	Hooks []Hook
}

// ─────────────────────────────────────────────────────────────────────────────
// DB — the store handle
// ─────────────────────────────────────────────────────────────────────────────

// DB is a thin, concurrency-safe wrapper around *sql.DB.
//
// A DB is constructed once per process by Open and handed explicitly to every
// repository and handler; Close is the shutdown hook. The underlying *sql.DB
// is reachable via Raw() for migrations.
type DB struct {
	sqldb   *sql.DB
	cfg     Config
	hooks   hookChain
	errMap  ErrorMapper
	dialect Dialect
}

// Open opens the database described by cfg and verifies connectivity with Ping.
// Callers are responsible for calling Close() when the application shuts down.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postboard/db: DSN must not be empty")
	}
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("postboard/db: DriverName must not be empty")
	}

	drv, err := LookupDriver(cfg.DriverName)
	if err != nil {
		return nil, err
	}
	dsn, err := drv.NormalizeDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postboard/db: %s dsn: %w", drv.Name(), err)
	}

	sqldb, err := sql.Open(drv.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("postboard/db: open: %w", err)
	}

	// Pool tuning
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	d := &DB{
		sqldb:   sqldb,
		cfg:     cfg,
		hooks:   newHookChain(cfg.Hooks),
		errMap:  ChainMapper(drv.ErrorMapper(), DefaultErrorMapper()),
		dialect: drv.Dialect(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("postboard/db: ping: %w", d.mapErr(err))
	}

	return d, nil
}

// Raw returns the underlying *sql.DB (used by the migration runner).
func (d *DB) Raw() *sql.DB { return d.sqldb }

// DriverName reports the registered driver this handle was opened with.
func (d *DB) DriverName() string { return d.cfg.DriverName }

// Dialect returns the SQL dialect of the opened driver.
func (d *DB) Dialect() Dialect { return d.dialect }

// SetErrorMapper replaces the driver error mapper.
func (d *DB) SetErrorMapper(m ErrorMapper) { d.errMap = m }

// Close closes all pooled connections and frees resources.
// Safe to call multiple times.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.applyDefaultTimeout(ctx)
	defer cancel()
	return d.mapErr(d.sqldb.PingContext(ctx))
}

// Stats returns pool statistics for monitoring.
func (d *DB) Stats() sql.DBStats { return d.sqldb.Stats() }

// ─────────────────────────────────────────────────────────────────────────────
// Query execution helpers
// ─────────────────────────────────────────────────────────────────────────────

// Exec executes a statement that returns no rows (INSERT, UPDATE, DELETE, DDL).
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := d.applyDefaultTimeout(ctx)
	defer cancel()
	var res sql.Result
	err := d.hooks.observe(ctx, query, args, d.errMap, func() (err error) {
		res, err = d.sqldb.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Query executes a query that returns rows.
// The caller MUST close the returned *sql.Rows. The default timeout is not
// applied here because the rows outlive this call.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := d.hooks.observe(ctx, query, args, d.errMap, func() (err error) {
		rows, err = d.sqldb.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
// ErrNotFound is returned from Scan when no row matches.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	row := &Row{errMap: d.errMap}
	d.hooks.observeRow(ctx, query, args, func() {
		row.raw = d.sqldb.QueryRowContext(ctx, query, args...)
	})
	return row
}

// Prepare creates a prepared statement for repeated use.
// The caller is responsible for calling stmt.Close().
func (d *DB) Prepare(ctx context.Context, query string) (*Stmt, error) {
	s, err := d.sqldb.PrepareContext(ctx, query)
	if err != nil {
		return nil, d.mapErr(err)
	}
	return &Stmt{stmt: s, query: query, hooks: d.hooks, errMap: d.errMap}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (d *DB) applyDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.DefaultTimeout == 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {} // caller already set a deadline
	}
	return context.WithTimeout(ctx, d.cfg.DefaultTimeout)
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row — wraps *sql.Row to translate errors uniformly
// ─────────────────────────────────────────────────────────────────────────────

// Row wraps *sql.Row and maps errors through the unified error mapper.
type Row struct {
	raw    *sql.Row
	errMap ErrorMapper
}

// Scan copies columns from the matched row into dest values.
// ErrNotFound is returned when no row was found.
func (r *Row) Scan(dest ...any) error {
	err := r.raw.Scan(dest...)
	if err == nil {
		return nil
	}
	return r.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Stmt — wraps *sql.Stmt
// ─────────────────────────────────────────────────────────────────────────────

// Stmt wraps a prepared *sql.Stmt with hook dispatch and error mapping.
type Stmt struct {
	stmt   *sql.Stmt
	query  string
	hooks  hookChain
	errMap ErrorMapper
}

// Exec executes the prepared statement.
func (s *Stmt) Exec(ctx context.Context, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.hooks.observe(ctx, s.query, args, s.errMap, func() (err error) {
		res, err = s.stmt.ExecContext(ctx, args...)
		return err
	})
	return res, err
}

// QueryRow executes the prepared statement expecting one row.
func (s *Stmt) QueryRow(ctx context.Context, args ...any) *Row {
	row := &Row{errMap: s.errMap}
	s.hooks.observeRow(ctx, s.query, args, func() {
		row.raw = s.stmt.QueryRowContext(ctx, args...)
	})
	return row
}

// Close releases the prepared statement resources.
func (s *Stmt) Close() error { return s.stmt.Close() }
