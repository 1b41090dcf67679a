package cmd

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the pictor command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pictor",
		Short: "Local-first personal image organizer",
		Long: `Pictor catalogs images and image folders on the local machine:
originals and thumbnails under a data directory, descriptions and tags in
an SQLite database, searchable over a localhost JSON API.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env if present (ignore errors).
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default <data-dir>/config.toml)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newSweepCmd(&configPath))

	return cmd
}

// dataDir resolves the base data directory: $PICTOR_DATA_DIR when set,
// otherwise ~/.pictor.
func dataDir() (string, error) {
	if dir := os.Getenv("PICTOR_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pictor"), nil
}
