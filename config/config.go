/*
Package config resolves postboard's runtime settings.

# Precedence

Command-line flags override environment variables, which override the
built-in defaults. A .env file (path set by --env-file, default ".env") is
loaded into the environment first when it exists; variables already set in
the process environment win over the file.

# Keys

	PORT                  --port                  3000
	DATABASE_URL          --database-url          (required)
	DATABASE_DRIVER       --database-driver       sqlite3
	FIXTURES_DIR          --fixtures-dir          ./seed-data
	LOG_LEVEL             --log-level             info
	LOG_FORMAT            --log-format            json
	DB_MAX_OPEN_CONNS     --max-open-conns        10
	DB_QUERY_TIMEOUT      --query-timeout         10s
	SLOW_QUERY_THRESHOLD  --slow-query-threshold  200ms
	MIGRATE_ON_START      --migrate-on-start      false
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Skryldev/postboard/db"
)

type Config struct {
	Port               int
	DatabaseURL        string
	DatabaseDriver     string
	FixturesDir        string
	LogLevel           string
	LogFormat          string
	MaxOpenConns       int
	QueryTimeout       time.Duration
	SlowQueryThreshold time.Duration
	MigrateOnStart     bool
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:               3000,
		DatabaseDriver:     "sqlite3",
		FixturesDir:        "./seed-data",
		LogLevel:           "info",
		LogFormat:          "json",
		MaxOpenConns:       10,
		QueryTimeout:       10 * time.Second,
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// flag name → environment variable
var envKeys = map[string]string{
	"port":                 "PORT",
	"database-url":         "DATABASE_URL",
	"database-driver":      "DATABASE_DRIVER",
	"fixtures-dir":         "FIXTURES_DIR",
	"log-level":            "LOG_LEVEL",
	"log-format":           "LOG_FORMAT",
	"max-open-conns":       "DB_MAX_OPEN_CONNS",
	"query-timeout":        "DB_QUERY_TIMEOUT",
	"slow-query-threshold": "SLOW_QUERY_THRESHOLD",
	"migrate-on-start":     "MIGRATE_ON_START",
}

// BindFlags registers every setting on flags. Cobra commands pass their
// PersistentFlags here.
func BindFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String("env-file", ".env", "Path of an optional .env file")
	flags.IntP("port", "p", d.Port, "HTTP listen port")
	flags.StringP("database-url", "d", "", "Database connection string (required)")
	flags.String("database-driver", d.DatabaseDriver, "Database driver: "+strings.Join(db.DriverNames(), ", "))
	flags.String("fixtures-dir", d.FixturesDir, "Directory holding users.json and posts.json")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "Log format: json or text")
	flags.Int("max-open-conns", d.MaxOpenConns, "Maximum open database connections")
	flags.Duration("query-timeout", d.QueryTimeout, "Default per-statement timeout")
	flags.Duration("slow-query-threshold", d.SlowQueryThreshold, "Queries slower than this are logged at warn")
	flags.Bool("migrate-on-start", d.MigrateOnStart, "Apply pending migrations before serving")
}

// Load resolves the configuration from flags (registered with
// BindFlags and already parsed), the environment and the defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	if envFile, err := flags.GetString("env-file"); err == nil && envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := Defaults()
	var errs []error
	lookup := func(name string) (string, bool) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			return f.Value.String(), true
		}
		v, ok := os.LookupEnv(envKeys[name])
		return v, ok && v != ""
	}

	setString := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", envKeys[name], v))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a duration", envKeys[name], v))
				return
			}
			*dst = d
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", envKeys[name], v))
				return
			}
			*dst = b
		}
	}

	setInt("port", &cfg.Port)
	setString("database-url", &cfg.DatabaseURL)
	setString("database-driver", &cfg.DatabaseDriver)
	setString("fixtures-dir", &cfg.FixturesDir)
	setString("log-level", &cfg.LogLevel)
	setString("log-format", &cfg.LogFormat)
	setInt("max-open-conns", &cfg.MaxOpenConns)
	setDuration("query-timeout", &cfg.QueryTimeout)
	setDuration("slow-query-threshold", &cfg.SlowQueryThreshold)
	setBool("migrate-on-start", &cfg.MigrateOnStart)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be provided")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if _, err := db.LookupDriver(c.DatabaseDriver); err != nil {
		return fmt.Errorf("config: DATABASE_DRIVER: %w", err)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("config: DB_MAX_OPEN_CONNS must not be negative")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// DBConfig translates the settings into a db.Config. Hooks are left to the
// caller.
func (c Config) DBConfig() db.Config {
	return db.Config{
		DSN:             c.DatabaseURL,
		DriverName:      c.DatabaseDriver,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxOpenConns / 2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		DefaultTimeout:  c.QueryTimeout,
	}
}
