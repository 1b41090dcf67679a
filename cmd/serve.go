package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhersberg/pictor/internal/config"
	"github.com/mhersberg/pictor/internal/handler"
	"github.com/mhersberg/pictor/internal/repository/sqlite"
	"github.com/mhersberg/pictor/internal/service"
	"github.com/mhersberg/pictor/internal/store"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API server",
		Long: `Opens the catalog database, applies pending migrations, and serves
the JSON API on the configured localhost address until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgStore, cfgPath, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			cfg := cfgStore.Current()

			if err := os.MkdirAll(cfg.ImagesRoot(), 0o755); err != nil {
				return fmt.Errorf("create images root: %w", err)
			}

			db, err := sqlite.New(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(context.Background()); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			slog.Info("database migrations applied")

			files := store.New(cfg.ImagesRoot(), func() store.Settings {
				current := cfgStore.Current()
				return store.Settings{
					ThumbCompression: current.ThumbCompression,
					ImageCompression: current.ImageCompression,
				}
			})
			catalog := service.NewCatalog(db.Images(), db.Tags(), files, slog.Default())

			mux := http.NewServeMux()
			handler.RegisterRoutes(mux, catalog, db.Tags(), service.NewSearchSession(), cfgStore, cfgPath)

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           handler.SecurityHeaders(handler.RequestLogger(mux)),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case err := <-serverErr:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}
			slog.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}
}

// loadConfig resolves the config path and wraps the result in the live
// settings store handed to the artifact layer. The resolved path is
// returned so settings updates can be written back to the same file.
func loadConfig(path string) (*config.Store, string, error) {
	base, err := dataDir()
	if err != nil {
		return nil, "", fmt.Errorf("resolve data dir: %w", err)
	}
	if path == "" {
		path = filepath.Join(base, "config.toml")
	}
	cfg, err := config.Load(path, base)
	if err != nil {
		return nil, "", err
	}
	return config.NewStore(cfg), path, nil
}
