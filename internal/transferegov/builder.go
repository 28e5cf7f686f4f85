// Package transferegov builds the special-transfer snapshot for one state:
// it pages through the upstream API, resolves what was actually paid and
// aggregates everything into the published artifact.
package transferegov

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/aggregate"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/export"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/normalize"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/settlement"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

type Phase string

const (
	PhaseFetchPlans           Phase = "FETCH_PLANS"
	PhaseFetchCommitments     Phase = "FETCH_COMMITMENTS"
	PhaseFetchSettlementDocs  Phase = "FETCH_SETTLEMENT_DOCS"
	PhaseFetchPaymentOrders   Phase = "FETCH_PAYMENT_ORDERS"
	PhaseResolveDisbursements Phase = "RESOLVE_DISBURSEMENTS"
	PhaseFetchExecutors       Phase = "FETCH_EXECUTORS_AND_GOALS"
	PhaseAggregate            Phase = "AGGREGATE"
	PhaseEmit                 Phase = "EMIT"
	PhaseAborted              Phase = "ABORTED"
)

const (
	ResolveBulk    = "bulk"
	ResolveCascade = "cascade"
)

// ErrNoPlans means every plan query failed, so there is nothing to publish.
var ErrNoPlans = errors.New("no plans of action could be fetched")

// Upstream is the part of the TransfereGov client the builder drives.
type Upstream interface {
	settlement.Fetcher
	PlansByYear(ctx context.Context, uf string, year int) ([]types.RawPlan, error)
	Executors(ctx context.Context, planIDs []string) ([]types.RawExecutor, error)
	WorkPlans(ctx context.Context, planIDs []string) ([]types.RawWorkPlan, error)
	Goals(ctx context.Context, executorIDs []string) ([]types.RawGoal, error)
	// Throttled limits every HTTP request of the returned client to rps per
	// second; the cascade resolver walks through it.
	Throttled(rps float64) *client.Client
}

type Config struct {
	UF            string
	Years         []int
	BatchSize     int
	ResolveMode   string
	CascadeRPS    float64
	SkipExecutors bool
	OutputPath    string
	CSVOutputPath string
}

// Report summarizes one run.
type Report struct {
	Phase                 Phase         `json:"phase"`
	StartedAt             time.Time     `json:"startedAt"`
	Duration              time.Duration `json:"duration"`
	Years                 []int         `json:"years"`
	FailedYears           []int         `json:"failedYears"`
	Plans                 int           `json:"plans"`
	Commitments           int           `json:"commitments"`
	SettlementDocuments   int           `json:"settlementDocuments"`
	PaymentOrders         int           `json:"paymentOrders"`
	PlansWithPaymentOrder int           `json:"plansWithPaymentOrder"`
	Executors             int           `json:"executors"`
	Goals                 int           `json:"goals"`
	Committed             float64       `json:"committed"`
	Disbursed             float64       `json:"disbursed"`
	ArtifactBytes         int64         `json:"artifactBytes"`
	CSVRows               int           `json:"csvRows"`
}

type Builder struct {
	upstream Upstream
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

func NewBuilder(upstream Upstream, cfg Config, log *logger.Logger) *Builder {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		cfg.BatchSize = 100
	}
	if cfg.ResolveMode == "" {
		cfg.ResolveMode = ResolveBulk
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{upstream: upstream, cfg: cfg, log: log, now: time.Now}
}

func (b *Builder) enter(report *Report, phase Phase) {
	const component = "CacheBuilder"
	if report.Phase != "" && report.Phase != phase {
		b.log.Info(component, "Phase transition: from=%s to=%s elapsed=%s", report.Phase, phase, b.now().Sub(report.StartedAt).Round(time.Millisecond))
	} else {
		b.log.Info(component, "Phase started: phase=%s", phase)
	}
	report.Phase = phase
}

func (b *Builder) abort(report *Report, err error) (*types.Snapshot, *Report, error) {
	const component = "CacheBuilder"
	b.log.Error(component, "Run aborted: phase=%s error=%v", report.Phase, err)
	report.Phase = PhaseAborted
	report.Duration = b.now().Sub(report.StartedAt)
	return nil, report, err
}

// Run builds the snapshot and writes the artifacts.
func (b *Builder) Run(ctx context.Context) (*types.Snapshot, *Report, error) {
	snapshot, report, err := b.Build(ctx)
	if err != nil {
		return nil, report, err
	}

	b.enter(report, PhaseEmit)
	if b.cfg.OutputPath != "" {
		n, err := export.WriteJSON(b.cfg.OutputPath, snapshot)
		if err != nil {
			return b.abort(report, fmt.Errorf("writing snapshot: %w", err))
		}
		report.ArtifactBytes = n
	}
	if b.cfg.CSVOutputPath != "" {
		rows, err := export.WritePlansCSV(b.cfg.CSVOutputPath, snapshot)
		if err != nil {
			return b.abort(report, fmt.Errorf("writing plans csv: %w", err))
		}
		report.CSVRows = rows
	}

	report.Duration = b.now().Sub(report.StartedAt)
	return snapshot, report, nil
}

// Build runs every phase up to AGGREGATE and returns the snapshot without
// writing anything.
func (b *Builder) Build(ctx context.Context) (*types.Snapshot, *Report, error) {
	const component = "CacheBuilder"

	report := &Report{StartedAt: b.now(), Years: b.cfg.Years}
	b.log.Info(component, "Build starting: uf=%s years=%v resolveMode=%s skipExecutors=%t", b.cfg.UF, b.cfg.Years, b.cfg.ResolveMode, b.cfg.SkipExecutors)

	b.enter(report, PhaseFetchPlans)
	plans := b.fetchPlans(ctx, report)
	if err := ctx.Err(); err != nil {
		return b.abort(report, err)
	}
	if len(plans) == 0 && len(report.FailedYears) > 0 {
		return b.abort(report, fmt.Errorf("%w: failed years %v", ErrNoPlans, report.FailedYears))
	}

	if err := b.resolve(ctx, plans, report); err != nil {
		return b.abort(report, err)
	}

	b.enter(report, PhaseFetchExecutors)
	if b.cfg.SkipExecutors {
		b.log.Info(component, "Executors skipped")
	} else {
		report.Executors, report.Goals = b.AttachExecutors(ctx, plans)
	}
	if err := ctx.Err(); err != nil {
		return b.abort(report, err)
	}

	b.enter(report, PhaseAggregate)
	agg := aggregate.New(b.log)
	for _, p := range plans {
		agg.Add(p)
	}
	snapshot := agg.Snapshot(b.now())

	report.Committed = snapshot.TotalOverall
	report.Disbursed = snapshot.TotalOverallDisbursed
	report.Duration = b.now().Sub(report.StartedAt)

	b.log.Info(component, "Snapshot assembled: entities=%d municipalities=%d legislators=%d plans=%d", snapshot.Stats.Entities, len(snapshot.Municipalities), len(snapshot.Legislators), len(plans))
	return snapshot, report, nil
}

// fetchPlans queries every configured year. A failing year is logged and
// recorded, and whatever rows it returned before failing are still used.
// Duplicated plan ids keep their first occurrence.
func (b *Builder) fetchPlans(ctx context.Context, report *Report) []*types.Plan {
	const component = "PlanFetcher"

	var plans []*types.Plan
	seen := make(map[string]struct{})
	for _, year := range b.cfg.Years {
		if ctx.Err() != nil {
			break
		}

		raw, err := b.upstream.PlansByYear(ctx, b.cfg.UF, year)
		if err != nil {
			b.log.Error(component, "Year failed, keeping partial rows: year=%d rows=%d error=%v", year, len(raw), err)
			report.FailedYears = append(report.FailedYears, year)
		}

		added := 0
		for _, r := range raw {
			p := normalize.Plan(r)
			if p.ID != "" {
				if _, dup := seen[p.ID]; dup {
					continue
				}
				seen[p.ID] = struct{}{}
			}
			plans = append(plans, p)
			added++
		}
		b.log.Info(component, "Plans fetched: year=%d plans=%d", year, added)
	}

	report.Plans = len(plans)
	b.log.Info(component, "Plans total: plans=%d failedYears=%v", len(plans), report.FailedYears)
	return plans
}

func planIDs(plans []*types.Plan) []string {
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	return ids
}
