package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ─────────────────────────────────────────────────────────────────────────────
// MySQL driver adapter
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter, registered as "mysql".
type MySQLDriver struct{}

func (MySQLDriver) Name() string     { return "mysql" }
func (MySQLDriver) Dialect() Dialect { return mysqlDialect{} }

// NormalizeDSN accepts the driver's native DSN, optionally prefixed with
// "mysql://" as golang-migrate URLs are, and forces parseTime on.
func (MySQLDriver) NormalizeDSN(dsn string) (string, error) {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), "mysql://")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (MySQLDriver) ErrorMapper() ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		var me *mysql.MySQLError
		if !errors.As(err, &me) {
			return err
		}
		switch me.Number {
		case 1062: // ER_DUP_ENTRY
			return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
		case 1452, 1216, 1217, 1451: // ER_NO_REFERENCED_ROW, ER_ROW_IS_REFERENCED
			return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
		case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
			return &DBError{Sentinel: ErrCheckViolation, Cause: err}
		case 1213: // ER_LOCK_DEADLOCK
			return &DBError{Sentinel: ErrDeadlock, Cause: err}
		case 3024: // ER_QUERY_TIMEOUT
			return &DBError{Sentinel: ErrTimeout, Cause: err}
		case 1045, 2002, 2003, 2006, 2013:
			return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
		}
		return err
	})
}
