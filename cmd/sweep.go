package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhersberg/pictor/internal/repository/sqlite"
	"github.com/mhersberg/pictor/internal/service"
	"github.com/mhersberg/pictor/internal/store"
)

func newSweepCmd(configPath *string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge half-registered catalog entries",
		Long: `Removes catalog rows whose registration never finished writing its
artifacts, together with any partial files they left on disk. Rows
younger than --older-than are left alone in case a registration is
still in flight.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgStore, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			cfg := cfgStore.Current()

			db, err := sqlite.New(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(context.Background()); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			files := store.New(cfg.ImagesRoot(), func() store.Settings {
				return store.Settings{
					ThumbCompression: cfg.ThumbCompression,
					ImageCompression: cfg.ImageCompression,
				}
			})
			catalog := service.NewCatalog(db.Images(), db.Tags(), files, slog.Default())

			removed, err := catalog.Sweep(context.Background(), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			slog.Info("sweep finished", "removed", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "only purge rows older than this")
	return cmd
}
