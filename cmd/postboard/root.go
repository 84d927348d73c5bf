package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skryldev/postboard/config"
	"github.com/Skryldev/postboard/db"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "postboard",
		Short: "Posts dashboard backed by a SQL store",
		Long: `postboard lists, filters and deletes posts and re-seeds the store from
users.json and posts.json.

Settings come from flags, then environment variables, then a .env file.`,
		SilenceUsage: true,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(),
		newReseedCmd(),
		newMigrateCmd(),
		newFixturesCmd(),
	)
	return root
}

// loadConfig resolves the settings for cmd and installs the process logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))
	return cfg, nil
}

// openDB opens the store with the query log hook and, when counter is not
// nil, the metrics hook.
func openDB(cfg config.Config, counter *db.QueryCounter) (*db.DB, error) {
	dbCfg := cfg.DBConfig()
	dbCfg.Hooks = []db.Hook{
		db.NewLogHook(db.LogHookConfig{
			Logger:             slog.Default(),
			SlowQueryThreshold: cfg.SlowQueryThreshold,
		}),
	}
	if counter != nil {
		dbCfg.Hooks = append(dbCfg.Hooks, db.NewMetricsHook(counter))
	}
	return db.Open(dbCfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

const shutdownTimeout = 10 * time.Second
