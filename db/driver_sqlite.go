package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ─────────────────────────────────────────────────────────────────────────────
// SQLite driver adapter (mattn/go-sqlite3, cgo)
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter, registered as "sqlite3".
// It is the default driver.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string     { return "sqlite3" }
func (SQLiteDriver) Dialect() Dialect { return sqliteDialect{} }

// NormalizeDSN turns foreign keys on (SQLite leaves them off per connection)
// and sets a busy timeout so concurrent requests wait instead of failing.
func (SQLiteDriver) NormalizeDSN(dsn string) (string, error) {
	dsn, err := trimSQLiteDSN(dsn, "sqlite3://")
	if err != nil {
		return "", err
	}
	if !strings.Contains(dsn, "_foreign_keys=") && !strings.Contains(dsn, "_fk=") {
		dsn = appendParam(dsn, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout=") && !strings.Contains(dsn, "_timeout=") {
		dsn = appendParam(dsn, "_busy_timeout=5000")
	}
	return dsn, nil
}

func (SQLiteDriver) ErrorMapper() ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		var se sqlite3.Error
		if !errors.As(err, &se) {
			return err
		}
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
		case sqlite3.ErrConstraintForeignKey:
			return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
		case sqlite3.ErrConstraintCheck:
			return &DBError{Sentinel: ErrCheckViolation, Cause: err}
		}
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return &DBError{Sentinel: ErrDeadlock, Cause: err}
		}
		return err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite driver adapter (modernc.org/sqlite, pure Go)
// ─────────────────────────────────────────────────────────────────────────────

// ModerncSQLiteDriver is the cgo-free modernc.org/sqlite adapter, registered
// as "sqlite".
type ModerncSQLiteDriver struct{}

func (ModerncSQLiteDriver) Name() string     { return "sqlite" }
func (ModerncSQLiteDriver) Dialect() Dialect { return sqliteDialect{} }

// NormalizeDSN adds the same pragmas as SQLiteDriver in modernc's
// _pragma=name(value) form.
func (ModerncSQLiteDriver) NormalizeDSN(dsn string) (string, error) {
	dsn, err := trimSQLiteDSN(dsn, "sqlite://")
	if err != nil {
		return "", err
	}
	if !strings.Contains(dsn, "foreign_keys") {
		dsn = appendParam(dsn, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		dsn = appendParam(dsn, "_pragma=busy_timeout(5000)")
	}
	return dsn, nil
}

func (ModerncSQLiteDriver) ErrorMapper() ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return err
		}
		switch se.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
		case sqlitelib.SQLITE_CONSTRAINT_CHECK:
			return &DBError{Sentinel: ErrCheckViolation, Cause: err}
		}
		switch se.Code() & 0xff {
		case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
			return &DBError{Sentinel: ErrDeadlock, Cause: err}
		}
		return err
	})
}

func trimSQLiteDSN(dsn, scheme string) (string, error) {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), scheme)
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	return dsn, nil
}

func appendParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
