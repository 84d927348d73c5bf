package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tx — transaction wrapper
// ─────────────────────────────────────────────────────────────────────────────

// Tx is a thin wrapper around *sql.Tx that mirrors the DB API surface so that
// repository code can accept either *DB or *Tx via the Querier interface.
type Tx struct {
	sqltx   *sql.Tx
	hooks   hookChain
	errMap  ErrorMapper
	dialect Dialect
}

// Raw returns the underlying *sql.Tx for advanced use.
func (t *Tx) Raw() *sql.Tx { return t.sqltx }

// Dialect returns the dialect of the database the transaction belongs to.
func (t *Tx) Dialect() Dialect { return t.dialect }

// Exec executes a statement that does not return rows.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (res sql.Result, err error) {
	err = t.hooks.observe(ctx, query, args, t.errMap, func() error {
		res, err = t.sqltx.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Query executes a query returning rows. The caller MUST close *sql.Rows.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (rows *sql.Rows, err error) {
	err = t.hooks.observe(ctx, query, args, t.errMap, func() error {
		rows, err = t.sqltx.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	row := &Row{errMap: t.errMap}
	t.hooks.observeRow(ctx, query, args, func() {
		row.raw = t.sqltx.QueryRowContext(ctx, query, args...)
	})
	return row
}

// Prepare creates a prepared statement within the transaction.
func (t *Tx) Prepare(ctx context.Context, query string) (*Stmt, error) {
	s, err := t.sqltx.PrepareContext(ctx, query)
	if err != nil {
		return nil, t.mapErr(err)
	}
	return &Stmt{stmt: s, query: query, hooks: t.hooks, errMap: t.errMap}, nil
}

func (t *Tx) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return t.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// ExecTx — the primary transaction helper on *DB
// ─────────────────────────────────────────────────────────────────────────────

// TxOptions allows callers to configure isolation level and read-only flag.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ExecTx runs fn in a transaction, committing when fn returns nil and rolling
// back on an error or a panic. Nested calls are not supported. Repositories
// built on tx take part in it:
//
//	err := database.ExecTx(ctx, func(tx *db.Tx) error {
//	    if err := repo.NewUserRepo(tx).Upsert(ctx, owner); err != nil {
//	        return err
//	    }
//	    return repo.NewPostRepo(tx).Upsert(ctx, post)
//	})
func (d *DB) ExecTx(ctx context.Context, fn func(*Tx) error, opts ...TxOptions) (err error) {
	ctx, cancel := d.applyDefaultTimeout(ctx)
	defer cancel()

	var sqlOpts *sql.TxOptions
	if len(opts) > 0 {
		sqlOpts = &sql.TxOptions{
			Isolation: opts[0].Isolation,
			ReadOnly:  opts[0].ReadOnly,
		}
	}

	sqltx, err := d.sqldb.BeginTx(ctx, sqlOpts)
	if err != nil {
		return d.mapErr(err)
	}

	tx := &Tx{
		sqltx:   sqltx,
		hooks:   d.hooks,
		errMap:  d.errMap,
		dialect: d.dialect,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			err = rollback(sqltx, err)
		}
	}()

	if err = fn(tx); err != nil {
		return d.mapErr(err)
	}
	return d.mapErr(sqltx.Commit())
}

// rollback aborts sqltx after cause, keeping cause as the wrapped error.
func rollback(sqltx *sql.Tx, cause error) error {
	if err := sqltx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("postboard/db: rollback: %v: %w", err, cause)
	}
	return cause
}

// ReadSnapshot runs fn inside a read-only transaction at the dialect's
// snapshot isolation level, so every read fn performs observes the same
// consistent state.
func (d *DB) ReadSnapshot(ctx context.Context, fn func(*Tx) error) error {
	return d.ExecTx(ctx, fn, d.dialect.SnapshotTxOptions())
}

// ─────────────────────────────────────────────────────────────────────────────
// Querier — the shared interface accepted by repositories
// ─────────────────────────────────────────────────────────────────────────────

// Querier is the minimal interface shared by both *DB and *Tx.
// Repository constructors accept Querier instead of *DB so they work
// seamlessly inside transactions.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
	Prepare(ctx context.Context, query string) (*Stmt, error)
	Dialect() Dialect
}

// Verify at compile-time that both *DB and *Tx satisfy Querier.
var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
