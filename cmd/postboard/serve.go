package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/migrations"
	"github.com/Skryldev/postboard/router"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cfg.MigrateOnStart {
				if err := migrations.Up(cfg.DatabaseDriver, cfg.DatabaseURL, slog.Default()); err != nil {
					return err
				}
				slog.Info("migrations applied")
			}

			counter := &db.QueryCounter{}
			database, err := openDB(cfg, counter)
			if err != nil {
				return err
			}
			defer database.Close()
			slog.Info("database connected", "driver", database.DriverName(), "dialect", database.Dialect().Name())

			handler, err := router.NewRouter(database, counter, cfg)
			if err != nil {
				return err
			}
			server := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("listening", "port", cfg.Port)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			slog.Info("server closed")
			return nil
		},
	}
}
