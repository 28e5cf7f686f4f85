// Package generation runs snapshot builds one at a time and records each
// one in the generation history when a store is configured.
package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/store"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

// ErrRunning is returned when a build is requested while another one is in
// progress.
var ErrRunning = errors.New("a generation is already running")

// Builder is what the runner drives; *transferegov.Builder satisfies it.
type Builder interface {
	Run(ctx context.Context) (*types.Snapshot, *transferegov.Report, error)
}

type Runner struct {
	builder      Builder
	storage      *store.Storage
	uf           string
	years        []int
	artifactPath string
	log          *logger.Logger

	mu      sync.Mutex
	running bool
}

// NewRunner returns a runner. storage may be nil, in which case nothing is
// recorded.
func NewRunner(builder Builder, storage *store.Storage, cfg transferegov.Config, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		builder:      builder,
		storage:      storage,
		uf:           cfg.UF,
		years:        cfg.Years,
		artifactPath: cfg.OutputPath,
		log:          log,
	}
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Begin reserves the runner and records the run as IN_PROGRESS. The returned
// run must be handed to Finish.
func (r *Runner) Begin(ctx context.Context, trigger string) (*store.GenerationRun, error) {
	const component = "GenerationRunner"

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunning
	}
	r.running = true
	r.mu.Unlock()

	run := &store.GenerationRun{
		TriggerType: trigger,
		Status:      store.StatusInProgress,
		Phase:       string(transferegov.PhaseFetchPlans),
		UF:          r.uf,
		Years:       store.Int64s(r.years),
		StartedAt:   time.Now(),
	}

	if r.storage != nil {
		if err := r.storage.GenerationRuns.InsertGenerationRun(ctx, run); err != nil {
			r.log.Warn(component, "Generation history unavailable, continuing: error=%v", err)
		}
	}
	return run, nil
}

// Execute runs the build for a run obtained from Begin and releases the
// runner when done.
func (r *Runner) Execute(ctx context.Context, run *store.GenerationRun) (*types.Snapshot, *transferegov.Report, error) {
	const component = "GenerationRunner"
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	snapshot, report, err := r.builder.Run(ctx)
	r.finish(run, report, err)

	if err != nil {
		r.log.Error(component, "Generation failed: id=%d trigger=%s error=%v", run.ID, run.TriggerType, err)
		return nil, report, err
	}
	r.log.Info(component, "Generation finished: id=%d trigger=%s plans=%d", run.ID, run.TriggerType, report.Plans)
	return snapshot, report, nil
}

// Run is Begin followed by Execute.
func (r *Runner) Run(ctx context.Context, trigger string) (*types.Snapshot, *transferegov.Report, error) {
	run, err := r.Begin(ctx, trigger)
	if err != nil {
		return nil, nil, err
	}
	return r.Execute(ctx, run)
}

func (r *Runner) finish(run *store.GenerationRun, report *transferegov.Report, err error) {
	const component = "GenerationRunner"

	now := time.Now()
	run.FinishedAt = &now
	run.Status = store.StatusSuccess
	if err != nil {
		run.Status = store.StatusFailure
		run.ErrorMessage = err.Error()
	}
	if report != nil {
		run.Phase = string(report.Phase)
		run.FailedYears = store.Int64s(report.FailedYears)
		run.Plans = report.Plans
		run.PlansWithPaymentOrder = report.PlansWithPaymentOrder
		run.Executors = report.Executors
		run.Goals = report.Goals
		run.Committed = report.Committed
		run.Disbursed = report.Disbursed
		run.ArtifactBytes = report.ArtifactBytes
		if report.ArtifactBytes > 0 {
			run.ArtifactPath = r.artifactPath
		}
	}

	if r.storage == nil || run.ID == 0 {
		return
	}

	// The build context may already be cancelled; the record should still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.storage.GenerationRuns.FinishGenerationRun(ctx, run); err != nil {
		r.log.Warn(component, "Failed to record generation result: id=%d error=%v", run.ID, err)
	}
}
