// Command cache builds the special-transfer snapshot for one state and
// writes the JSON artifact (and its CSV companion) consumed by the site.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/db"
	"github.com/farxc/envelopa-transferencias/internal/generation"
	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/store"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
	"github.com/joho/godotenv"
)

func main() {
	const component = "Main"

	_ = godotenv.Load()
	cfg := loadConfig()

	appLogger := logger.New(os.Stdout, logger.ParseLevel(cfg.logLevel))
	startingTime := time.Now()
	appLogger.Info(component, "Application starting: env=%s uf=%s years=%v startTime=%s", cfg.env, cfg.build.UF, cfg.build.Years, startingTime.Format(time.RFC3339))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storage *store.Storage
	if cfg.db.addr != "" {
		database, err := db.New(ctx, db.Config{
			Addr:         cfg.db.addr,
			MaxOpenConns: cfg.db.maxOpenConns,
			MaxIdleConns: cfg.db.maxIdleConns,
			MaxIdleTime:  cfg.db.maxIdleTime,
		})
		if err != nil {
			appLogger.Warn(component, "Database unavailable, generation history disabled: error=%v", err)
		} else {
			defer database.Close()
			storage = store.NewStorage(database)
			if err := storage.GenerationRuns.EnsureSchema(ctx); err != nil {
				appLogger.Warn(component, "Schema check failed, generation history disabled: error=%v", err)
				storage = nil
			} else {
				appLogger.Info(component, "Database connection pool established")
			}
		}
	}

	monitor := NewMonitor()
	monitor.Start(400*time.Millisecond, appLogger)

	err := run(ctx, cfg, storage, appLogger, os.Stdout, monitor)
	if err != nil {
		stop()
		appLogger.Fatal(component, "Cache generation failed: error=%v", err)
		return
	}

	appLogger.Info(component, "Application completed successfully: duration=%.2f seconds", time.Since(startingTime).Seconds())
}

// run builds and writes the artifacts, then prints the statistics to out.
func run(ctx context.Context, cfg config, storage *store.Storage, log *logger.Logger, out io.Writer, monitor *MemoryMonitor) error {
	upstream := client.New(cfg.client, log)
	builder := transferegov.NewBuilder(upstream, cfg.build, log)
	runner := generation.NewRunner(builder, storage, cfg.build, log)

	snapshot, report, err := runner.Run(ctx, cfg.trigger)
	peak := monitor.Stop()
	if err != nil {
		return err
	}

	printStats(out, snapshot, report, peak)
	return nil
}
