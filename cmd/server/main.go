/*
main.go - Application entry point

PURPOSE:
  Starts the overtime engine HTTP server and runs schema migrations.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve              Run the HTTP API (default when no command is given)
  migrate up         Apply pending migrations
  migrate down       Roll back every migration
  migrate status     Print the schema version

STARTUP SEQUENCE (serve):
  1. Load .env and the environment (config.Load)
  2. Load the HR settings file, then overlay settings saved through the API
  3. Open the SQLite store and apply pending migrations
  4. Start the edit cache sweeper
  5. Start the HTTP server with graceful shutdown

FLAGS:
  --port       HTTP server port (overrides APP_PORT)
  --db         SQLite database path (overrides DB_PATH)
               Use ":memory:" for an in-memory database
  --settings   HR settings TOML file (overrides OVERTIME_SETTINGS_FILE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the database

EXAMPLES:
  ./server serve --db=./data/overtime.db --settings=./hr.toml
  ./server migrate status

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - store/sqlite/sqlite.go: Database and migrations
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/editcache"
	"github.com/warp/overtime-engine/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Overtime computation and approval engine",
	Long:  `Computes overtime from attendance, turns approved overtime into payroll adjustments and resets clock-outs of rejected claims.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *sqlite.Store) error {
			if err := store.Migrate(); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Println("Migrations applied.")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *sqlite.Store) error {
			if err := store.MigrateDown(); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Println("Migrations rolled back.")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *sqlite.Store) error {
			status, err := store.MigrationStatus()
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}
			fmt.Printf("Current version: %d\n", status.CurrentVersion)
			fmt.Printf("Latest version:  %d\n", status.LatestVersion)
			if status.Dirty {
				fmt.Println("State:           dirty (a migration failed halfway)")
			} else if status.Pending {
				fmt.Println("State:           pending migrations")
			} else {
				fmt.Println("State:           up to date")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default from DB_PATH)")
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server port (default from APP_PORT)")
	rootCmd.PersistentFlags().String("settings", "", "HR settings TOML file (default from OVERTIME_SETTINGS_FILE)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.App.Port = port
	}
	if settings, _ := cmd.Flags().GetString("settings"); settings != "" {
		cfg.SettingsFile = settings
	}
	return cfg, nil
}

func withStore(cmd *cobra.Command, fn func(*sqlite.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func serve(cfg *config.Config) error {
	logger := cfg.NewLogger()

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	edits := editcache.New(cfg.Cache.TTL, logger)
	handler := api.NewHandler(store, settings, edits, logger)
	if err := handler.LoadStoredSettings(context.Background()); err != nil {
		logger.Warn("failed to load stored HR settings", "error", err)
	}

	sweeper := api.NewCacheSweeper(edits, logger)
	sweeper.CheckInterval = cfg.Cache.SweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	level := config.ParseLevel(cfg.App.LogLevel)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORS.Origins,
		Logger:         api.RequestLogger(os.Stdout, level, "app", "overtime-engine", "env", cfg.App.Env),
		LogLevel:       level,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.Database.Path, "tracking", handler.Settings().Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
