package main

import (
	"context"
	"os"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/db"
	"github.com/farxc/envelopa-transferencias/internal/env"
	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/store"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
	"github.com/joho/godotenv"
)

func loadConfig() config {
	defaults := client.DefaultConfig()

	return config{
		addr:           env.GetString("ADDR", ":8080"),
		env:            env.GetString("APP_ENV", "development"),
		logLevel:       env.GetString("LOG_LEVEL", "info"),
		snapshotMaxAge: env.GetDuration("SNAPSHOT_MAX_AGE", 26*time.Hour),
		client: client.Config{
			BaseURL:       env.GetString("TRANSFEREGOV_BASE_URL", defaults.BaseURL),
			Proxies:       env.GetStringList("TRANSFEREGOV_PROXIES", nil),
			PageSize:      env.GetInt("PAGE_SIZE", defaults.PageSize),
			BatchSize:     env.GetInt("BATCH_SIZE", defaults.BatchSize),
			Timeout:       env.GetDuration("HTTP_TIMEOUT", defaults.Timeout),
			MaxRetries:    env.GetInt("HTTP_MAX_RETRIES", defaults.MaxRetries),
			RetryInterval: defaults.RetryInterval,
			CacheTTL:      env.GetDuration("CACHE_TTL", defaults.CacheTTL),
		},
		build: transferegov.Config{
			UF:            env.GetString("UF", "ES"),
			Years:         env.GetIntList("YEARS", []int{2020, 2021, 2022, 2023, 2024, 2025}),
			BatchSize:     env.GetInt("BATCH_SIZE", defaults.BatchSize),
			ResolveMode:   env.GetString("RESOLVE_MODE", transferegov.ResolveBulk),
			CascadeRPS:    float64(env.GetInt("CASCADE_RPS", 5)),
			OutputPath:    env.GetString("OUTPUT_PATH", "public/dados-es.json"),
			CSVOutputPath: env.GetString("CSV_OUTPUT_PATH", "public/planos-es.csv"),
		},
		db: dbConfig{
			addr:         env.GetString("DB_ADDR", ""),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 25),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 25),
			maxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
	}
}

func main() {
	const component = "Main"

	_ = godotenv.Load()
	cfg := loadConfig()
	appLogger := logger.New(os.Stdout, logger.ParseLevel(cfg.logLevel))

	var storage *store.Storage
	if cfg.db.addr != "" {
		database, err := db.New(context.Background(), db.Config{
			Addr:         cfg.db.addr,
			MaxOpenConns: cfg.db.maxOpenConns,
			MaxIdleConns: cfg.db.maxIdleConns,
			MaxIdleTime:  cfg.db.maxIdleTime,
		})
		if err != nil {
			appLogger.Fatal(component, "Database connection failed: error=%v", err)
			return
		}
		defer database.Close()

		storage = store.NewStorage(database)
		if err := storage.GenerationRuns.EnsureSchema(context.Background()); err != nil {
			appLogger.Fatal(component, "Schema check failed: error=%v", err)
			return
		}
		appLogger.Info(component, "Database connection pool established")
	} else {
		appLogger.Warn(component, "DB_ADDR not set, generation history disabled")
	}

	app := newApplication(cfg, storage, appLogger)
	mux := app.mount()

	if err := app.run(mux); err != nil {
		appLogger.Fatal(component, "Server stopped: error=%v", err)
	}
}
