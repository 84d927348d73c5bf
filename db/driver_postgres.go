package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/lib/pq"
)

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL driver adapter (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter, registered as "postgres".
type PostgresDriver struct{}

func (PostgresDriver) Name() string     { return "postgres" }
func (PostgresDriver) Dialect() Dialect { return postgresDialect{} }
func (PostgresDriver) NormalizeDSN(dsn string) (string, error) {
	return normalizePostgresDSN(dsn)
}

func (PostgresDriver) ErrorMapper() ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return err
		}
		if mapped := mapByPGCode(string(pqErr.Code), err); mapped != nil {
			return mapped
		}
		return err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL driver adapter (pgx stdlib)
// ─────────────────────────────────────────────────────────────────────────────

// PgxDriver is the jackc/pgx/v5 database/sql adapter, registered as "pgx".
type PgxDriver struct{}

func (PgxDriver) Name() string     { return "pgx" }
func (PgxDriver) Dialect() Dialect { return postgresDialect{} }
func (PgxDriver) NormalizeDSN(dsn string) (string, error) {
	return normalizePostgresDSN(dsn)
}

func (PgxDriver) ErrorMapper() ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if mapped := mapByPGCode(pgErr.Code, err); mapped != nil {
				return mapped
			}
			return err
		}
		var connErr *pgconn.ConnectError
		if errors.As(err, &connErr) {
			return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
		}
		return err
	})
}

// normalizePostgresDSN accepts both URL (postgres://, postgresql://) and
// key=value forms; both drivers understand either.
func normalizePostgresDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	return dsn, nil
}
