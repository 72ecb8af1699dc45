package cmd

import (
	"fmt"
	"log/slog"

	"github.com/offerly-io/offerly/internal/config"
	"github.com/offerly-io/offerly/internal/db"
	"github.com/offerly-io/offerly/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger.Init(cfg.Log.Format, cfg.Log.Level)

		database, err := db.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		slog.Info("Migrations applied", "driver", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
