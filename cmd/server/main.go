package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	web "orchestra/internal/adapters/http"
	"orchestra/internal/adapters/http/perf"
	"orchestra/internal/adapters/logging"
	"orchestra/internal/adapters/storage"
	instrumentStore "orchestra/internal/adapters/storage/instrument"
	memberStore "orchestra/internal/adapters/storage/member"
	scheduleStore "orchestra/internal/adapters/storage/schedule"
	"orchestra/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// App holds the process dependencies shared by every command.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *sql.DB
	collector *perf.Collector
	stores    *web.Stores
	ctx       context.Context
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "orchestra",
		Short:   "Orchestra rehearsal availability service",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app == nil {
				return
			}
			if app.db != nil {
				app.db.Close()
			}
			if app.logger != nil {
				app.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to orchestra.yaml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp loads config, sets up logging, opens and migrates the database
// and builds the stores.
func initApp() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app = &App{cfg: cfg, logger: logger, ctx: context.Background()}

	// WAL mode, foreign keys and busy timeout.
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	app.db = db
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Debug("startup_event",
		zap.String("event", "database_ready"),
		zap.String("path", cfg.DBPath),
		zap.Int("schema", storage.LatestSchemaVersion()),
	)

	app.collector = perf.NewCollector()
	tdb := storage.NewTimedDB(db, app.collector, cfg.SlowQueryMs)
	app.stores = &web.Stores{
		MemberStore:     memberStore.NewSQLiteStore(tdb),
		InstrumentStore: instrumentStore.NewSQLiteStore(tdb),
		ScheduleStore:   scheduleStore.NewSQLiteStore(tdb),
		Ping:            tdb.PingContext,
	}
	return nil
}
