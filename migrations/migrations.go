// Package migrations embeds the versioned schema for every supported dialect
// and applies it with golang-migrate.
//
// Files live under <dialect>/NNNNNN_name.{up,down}.sql where <dialect> is the
// db.Dialect name ("postgres", "mysql", "sqlite").
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/Skryldev/postboard/db"
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var files embed.FS

// Migrator applies the embedded migrations to one database. It owns a
// dedicated connection pool, released by Close.
type Migrator struct {
	m *migrate.Migrate
}

// New opens driverName/dsn through the db driver registry (so DSN
// normalization matches the application's) and prepares a migrator for the
// driver's dialect.
func New(driverName, dsn string, logger *slog.Logger) (*Migrator, error) {
	drv, err := db.LookupDriver(driverName)
	if err != nil {
		return nil, err
	}
	dsn, err = drv.NormalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("migrations: %s dsn: %w", driverName, err)
	}

	src, err := iofs.New(files, drv.Dialect().Name())
	if err != nil {
		return nil, fmt.Errorf("migrations: source: %w", err)
	}

	sqldb, err := sql.Open(drv.Name(), dsn)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("migrations: open: %w", err)
	}

	target, err := databaseInstance(drv.Name(), sqldb)
	if err != nil {
		_ = src.Close()
		_ = sqldb.Close()
		return nil, fmt.Errorf("migrations: %s instance: %w", driverName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, drv.Name(), target)
	if err != nil {
		_ = target.Close()
		return nil, fmt.Errorf("migrations: init: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	m.Log = &migrateLogger{logger: logger}

	return &Migrator{m: m}, nil
}

func databaseInstance(driverName string, sqldb *sql.DB) (database.Driver, error) {
	switch driverName {
	case "postgres":
		return migratepostgres.WithInstance(sqldb, &migratepostgres.Config{})
	case "pgx":
		return migratepgx.WithInstance(sqldb, &migratepgx.Config{})
	case "mysql":
		return migratemysql.WithInstance(sqldb, &migratemysql.Config{})
	case "sqlite3":
		return migratesqlite3.WithInstance(sqldb, &migratesqlite3.Config{})
	case "sqlite":
		return migratesqlite.WithInstance(sqldb, &migratesqlite.Config{})
	}
	return nil, fmt.Errorf("no migration driver for %q", driverName)
}

// Up applies every pending migration. Being already up to date is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("migrations: down: steps must be >= 1, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Version reports the applied version. A database with no migrations applied
// reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrations: version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running anything, clearing the dirty flag.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("migrations: force %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database.
func (m *Migrator) Drop() error {
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("migrations: drop: %w", err)
	}
	return nil
}

// Close releases the source and the migrator's connection pool.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up is a convenience for opening a Migrator, applying all pending
// migrations and closing it again.
func Up(driverName, dsn string, logger *slog.Logger) error {
	m, err := New(driverName, dsn, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// ─────────────────────────────────────────────────────────────────────────────

type migrateLogger struct {
	logger *slog.Logger
}

// Printf drops the trailing newline golang-migrate puts on its messages.
func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"), "component", "migrate")
}
func (l *migrateLogger) Verbose() bool { return false }
