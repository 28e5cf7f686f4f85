package main

import (
	"net/http"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/generation"
	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/store"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"
)

type application struct {
	config config
	// store is nil when no database is configured.
	store    *store.Storage
	upstream *client.Client
	// live builds the fallback snapshot: plans and disbursements only.
	live    *transferegov.Builder
	details *transferegov.Builder
	runner  *generation.Runner
	logger  *logger.Logger

	artifact  artifactCache
	snapshots *client.Cache[*types.Snapshot]
	group     singleflight.Group
}

type config struct {
	addr           string
	env            string
	logLevel       string
	snapshotMaxAge time.Duration
	client         client.Config
	build          transferegov.Config
	db             dbConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func newApplication(cfg config, storage *store.Storage, log *logger.Logger) *application {
	upstream := client.New(cfg.client, log)

	liveCfg := cfg.build
	liveCfg.SkipExecutors = true
	liveCfg.OutputPath = ""
	liveCfg.CSVOutputPath = ""

	return &application{
		config:    cfg,
		store:     storage,
		upstream:  upstream,
		live:      transferegov.NewBuilder(upstream, liveCfg, log),
		details:   transferegov.NewBuilder(upstream, cfg.build, log),
		runner:    generation.NewRunner(transferegov.NewBuilder(upstream, cfg.build, log), storage, cfg.build, log),
		logger:    log,
		snapshots: client.NewCache[*types.Snapshot](cfg.client.CacheTTL),
	}
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/snapshot", app.handleGetSnapshot)
		r.Get("/entities/{cnpj}", app.handleGetEntity)
		r.Get("/plans/{id}/executors", app.handleGetPlanExecutors)
		r.Get("/executors/{id}/goals", app.handleGetExecutorGoals)
		r.Route("/generations", func(r chi.Router) {
			r.Get("/history", app.handleGetGenerationHistory)
			r.Post("/", app.handleCreateGeneration)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	const component = "Server"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 180,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Info(component, "Server started: addr=%s env=%s", app.config.addr, app.config.env)
	return srv.ListenAndServe()
}
