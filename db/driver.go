// Package db — driver.go
// Defines the pluggable driver abstraction layer. Each driver adapter
// implements Driver and is registered by name, so Open() stays
// driver-agnostic while DSN handling, error translation and SQL dialect
// remain explicit per database.
package db

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour:
//   - normalising a DSN (e.g. forcing SQLite foreign keys on)
//   - providing a driver-specific ErrorMapper
//   - providing the SQL Dialect repositories render their statements with
//
// The adapter's Name must equal the name the database/sql driver registers
// itself under, because Open passes it straight to sql.Open.
type Driver interface {
	Name() string
	NormalizeDSN(dsn string) (string, error)
	ErrorMapper() ErrorMapper
	Dialect() Dialect
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the global registry.
// Panics if a driver with the same name is already registered (use
// ReplaceDriver to override).
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[d.Name()]; ok {
		panic(fmt.Sprintf("postboard/db: driver %q already registered", d.Name()))
	}
	drivers[d.Name()] = d
}

// ReplaceDriver upserts a driver in the registry (no panic on collision).
func ReplaceDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name or an error.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("postboard/db: driver %q not registered (known: %s)",
			name, strings.Join(driverNamesLocked(), ", "))
	}
	return d, nil
}

// DriverNames lists the registered driver names in sorted order.
func DriverNames() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverNamesLocked()
}

func driverNamesLocked() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterDriver(PostgresDriver{})
	RegisterDriver(PgxDriver{})
	RegisterDriver(MySQLDriver{})
	RegisterDriver(SQLiteDriver{})
	RegisterDriver(ModerncSQLiteDriver{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Dialect
// ─────────────────────────────────────────────────────────────────────────────

// Dialect covers the few places where the supported databases disagree:
// bind-parameter syntax, the upsert clause and how to ask for a consistent
// read snapshot.
type Dialect interface {
	// Name is "postgres", "mysql" or "sqlite".
	Name() string

	// Rebind rewrites '?' placeholders into the dialect's native form.
	Rebind(query string) string

	// Upsert renders an INSERT of columns into table that overwrites every
	// non-key column when a row with the same key already exists.
	// columns must include key.
	Upsert(table, key string, columns []string) string

	// SnapshotTxOptions are the transaction options under which several
	// reads observe one consistent state.
	SnapshotTxOptions() TxOptions
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (d postgresDialect) Upsert(table, key string, columns []string) string {
	return d.Rebind(onConflictUpsert(table, key, columns))
}

func (postgresDialect) SnapshotTxOptions() TxOptions {
	return TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                 { return "sqlite" }
func (sqliteDialect) Rebind(query string) string   { return query }
func (sqliteDialect) SnapshotTxOptions() TxOptions { return TxOptions{} } // a deferred read transaction already holds one snapshot

func (sqliteDialect) Upsert(table, key string, columns []string) string {
	return onConflictUpsert(table, key, columns)
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string               { return "mysql" }
func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) Upsert(table, key string, columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == key {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
	}
	return fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s",
		insertValues(table, columns), strings.Join(sets, ", "))
}

func (mysqlDialect) SnapshotTxOptions() TxOptions {
	return TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// onConflictUpsert is the INSERT … ON CONFLICT form shared by PostgreSQL and
// SQLite (3.24+).
func onConflictUpsert(table, key string, columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == key {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
		insertValues(table, columns), key, strings.Join(sets, ", "))
}

func insertValues(table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), marks)
}
