package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/offerly-io/offerly/internal/api"
	"github.com/offerly-io/offerly/internal/api/handlers"
	"github.com/offerly-io/offerly/internal/config"
	"github.com/offerly-io/offerly/internal/db"
	"github.com/offerly-io/offerly/internal/enrich"
	"github.com/offerly-io/offerly/internal/logger"
	"github.com/spf13/cobra"

	_ "github.com/offerly-io/offerly/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var servePort int

// @title Offerly API
// @version 1.0
// @description Template definition service: versioned field content, business-key enrichment, tenant-unique slugs
// @host localhost:8470
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Offerly API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to run the server on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServer() error {
	handlers.Version = Version

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger.Init(cfg.Log.Format, cfg.Log.Level)
	slog.Info("Starting Offerly server", "version", Version, "mode", cfg.Server.Mode)

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", cfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	router := api.NewRouter(cfg, database, enrich.DefaultRegistry())

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Offerly exited")
	return nil
}
