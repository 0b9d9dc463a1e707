/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll and attendance server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Build the rate table registry (built-in, file, database)
  4. Create API handler and router
  5. Start the month-end scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (environment variable in brackets):
  -port         HTTP server port [PORT] (default: 8080)
  -db           SQLite database path [DB_PATH] (default: paie.db)
                Use ":memory:" for in-memory database
  -log-level    debug, info, warn, error [LOG_LEVEL] (default: info)
  -rate-tables  JSON file with extra rate tables [RATE_TABLE_FILE]
  -schedule     Month-end cron spec [ROLLUP_SCHEDULE] (default: "0 2 1 * *")
  -concurrency  Parallel employees per payroll run [BATCH_CONCURRENCY] (default: 8)
  -scheduler    Enable the month-end scheduler [SCHEDULER_ENABLED] (default: true)

  Flags win over environment variables, which win over defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running payroll)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/paie.db"
  ./server -db=":memory:" -log-level=debug
  RATE_TABLE_FILE=./tables.json ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Month-end scheduler
  - factory/ratetable.go: Rate table file format
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/paie-engine/api"
	"github.com/warp/paie-engine/factory"
	"github.com/warp/paie-engine/payroll"
	"github.com/warp/paie-engine/store/sqlite"
)

// config is the resolved startup configuration.
type config struct {
	Port             int
	DBPath           string
	LogLevel         slog.Level
	RateTableFile    string
	Schedule         string
	Concurrency      int
	SchedulerEnabled bool
}

func loadConfig() (config, error) {
	// .env is optional
	_ = godotenv.Load()

	var (
		cfg      config
		logLevel string
	)
	flag.IntVar(&cfg.Port, "port", getEnvInt("PORT", 8080), "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", getEnv("DB_PATH", "paie.db"), "SQLite database path")
	flag.StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.RateTableFile, "rate-tables", getEnv("RATE_TABLE_FILE", ""), "JSON file with extra rate tables")
	flag.StringVar(&cfg.Schedule, "schedule", getEnv("ROLLUP_SCHEDULE", api.DefaultMonthEndSchedule), "Month-end cron spec")
	flag.IntVar(&cfg.Concurrency, "concurrency", getEnvInt("BATCH_CONCURRENCY", 8), "Parallel employees per payroll run")
	flag.BoolVar(&cfg.SchedulerEnabled, "scheduler", getEnvBool("SCHEDULER_ENABLED", true), "Enable the month-end scheduler")
	flag.Parse()

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := api.NewLogger(os.Stdout, cfg.LogLevel, "paie-engine")
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Rate tables: built-in, then file, then database
	registry, err := payroll.NewRegistry(payroll.MoroccoRateTable2024())
	if err != nil {
		return err
	}
	if cfg.RateTableFile != "" {
		tables, err := factory.NewRateTableFactory().LoadFile(cfg.RateTableFile)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if err := registry.Register(t); err != nil {
				return fmt.Errorf("rate table file: %w", err)
			}
		}
	}

	handler := api.NewHandler(store, registry, logger)
	handler.Payroll.Concurrency = cfg.Concurrency
	if err := handler.LoadRateTables(ctx); err != nil {
		logger.Warn("failed to load stored rate tables", slog.Any("error", err))
	}
	for _, t := range registry.List() {
		logger.Info("rate table registered", slog.String("version", t.Version), slog.String("effective_from", t.EffectiveFrom.String()))
	}

	router := api.NewRouter(handler, api.RouterOptions{Logger: logger, LogLevel: cfg.LogLevel})

	// Scheduler
	scheduler := api.NewMonthEndScheduler(handler.Payroll, logger)
	scheduler.Schedule = cfg.Schedule
	scheduler.Enabled = cfg.SchedulerEnabled
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.Port), slog.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
