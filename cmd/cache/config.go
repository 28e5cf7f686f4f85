package main

import (
	"github.com/farxc/envelopa-transferencias/internal/env"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
)

type config struct {
	env      string
	logLevel string
	trigger  string
	client   client.Config
	build    transferegov.Config
	db       dbConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

var defaultYears = []int{2020, 2021, 2022, 2023, 2024, 2025}

func loadConfig() config {
	defaults := client.DefaultConfig()

	return config{
		env:      env.GetString("APP_ENV", "development"),
		logLevel: env.GetString("LOG_LEVEL", "info"),
		trigger:  env.GetString("TRIGGER", "manual"),
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
			Years:         env.GetIntList("YEARS", defaultYears),
			BatchSize:     env.GetInt("BATCH_SIZE", defaults.BatchSize),
			ResolveMode:   env.GetString("RESOLVE_MODE", transferegov.ResolveBulk),
			CascadeRPS:    float64(env.GetInt("CASCADE_RPS", 5)),
			SkipExecutors: env.GetBool("SKIP_EXECUTORS", false),
			OutputPath:    env.GetString("OUTPUT_PATH", "public/dados-es.json"),
			CSVOutputPath: env.GetString("CSV_OUTPUT_PATH", "public/planos-es.csv"),
		},
		// History is optional for the cache command; an empty DB_ADDR skips it.
		db: dbConfig{
			addr:         env.GetString("DB_ADDR", ""),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 5),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 5),
			maxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
	}
}
