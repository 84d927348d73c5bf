package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/postboard/config"
)

func parse(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

// clearEnv blanks every key so values from the developer's shell do not leak
// into the test; an empty value counts as unset.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATABASE_URL", "DATABASE_DRIVER", "FIXTURES_DIR", "LOG_LEVEL",
		"LOG_FORMAT", "DB_MAX_OPEN_CONNS", "DB_QUERY_TIMEOUT",
		"SLOW_QUERY_THRESHOLD", "MIGRATE_ON_START",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "file:dev.db")

	cfg, err := config.Load(parse(t, "--env-file", ""))
	require.NoError(t, err)

	want := config.Defaults()
	want.DatabaseURL = "file:dev.db"
	assert.Equal(t, want, cfg)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DB_QUERY_TIMEOUT", "3s")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg, err := config.Load(parse(t, "--env-file", ""))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
	assert.True(t, cfg.MigrateOnStart)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := config.Load(parse(t, "--env-file", "", "-p", "8080", "-d", "file:test.db", "--log-format", "text"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that already exist, even empty ones
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	require.NoError(t, os.Unsetenv("FIXTURES_DIR"))
	t.Cleanup(func() {
		_ = os.Unsetenv("DATABASE_URL")
		_ = os.Unsetenv("FIXTURES_DIR")
	})

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_URL=file:dotenv.db\nFIXTURES_DIR=/srv/seed\n"), 0o644))

	cfg, err := config.Load(parse(t, "--env-file", envFile))
	require.NoError(t, err)
	assert.Equal(t, "file:dotenv.db", cfg.DatabaseURL)
	assert.Equal(t, "/srv/seed", cfg.FixturesDir)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "file:x.db")

	_, err := config.Load(parse(t, "--env-file", filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing database url": {},
		"port not a number":    {"DATABASE_URL": "x", "PORT": "http"},
		"port out of range":    {"DATABASE_URL": "x", "PORT": "70000"},
		"unknown driver":       {"DATABASE_URL": "x", "DATABASE_DRIVER": "oracle"},
		"bad level":            {"DATABASE_URL": "x", "LOG_LEVEL": "loud"},
		"bad format":           {"DATABASE_URL": "x", "LOG_FORMAT": "xml"},
		"bad duration":         {"DATABASE_URL": "x", "DB_QUERY_TIMEOUT": "soon"},
		"bad bool":             {"DATABASE_URL": "x", "MIGRATE_ON_START": "maybe"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load(parse(t, "--env-file", ""))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestDBConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.DatabaseURL = "file:x.db"

	dc := cfg.DBConfig()
	assert.Equal(t, "file:x.db", dc.DSN)
	assert.Equal(t, "sqlite3", dc.DriverName)
	assert.Equal(t, 10*time.Second, dc.DefaultTimeout)
}
