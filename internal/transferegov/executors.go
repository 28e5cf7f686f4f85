package transferegov

import (
	"context"
	"fmt"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/normalize"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/utils"
	"golang.org/x/sync/errgroup"
)

// AttachExecutors fetches executors, work plans and goals for plans and
// replaces their executor lists in place. Executors and work plans of one
// batch are fetched side by side. Failed lookups leave empty lists. It
// returns how many executors and goals were attached.
func (b *Builder) AttachExecutors(ctx context.Context, plans []*types.Plan) (int, int) {
	const component = "ExecutorFetcher"

	byID := make(map[string]*types.Plan, len(plans))
	for _, p := range plans {
		p.Executors = []*types.Executor{}
		byID[p.ID] = p
	}

	var executors []*types.Executor
	batches := utils.Chunk(utils.Unique(planIDs(plans)), b.cfg.BatchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}

		var rawExecutors []types.RawExecutor
		var rawWorkPlans []types.RawWorkPlan
		var g errgroup.Group
		g.Go(func() error {
			rows, err := b.upstream.Executors(ctx, batch)
			if err != nil {
				return fmt.Errorf("executors: %w", err)
			}
			rawExecutors = rows
			return nil
		})
		g.Go(func() error {
			rows, err := b.upstream.WorkPlans(ctx, batch)
			if err != nil {
				return fmt.Errorf("work plans: %w", err)
			}
			rawWorkPlans = rows
			return nil
		})
		if err := g.Wait(); err != nil {
			b.log.Warn(component, "Batch incomplete: batch=%d/%d plans=%d error=%v", i+1, len(batches), len(batch), err)
		}

		// First work plan per plan wins.
		workPlanStatus := make(map[string]string, len(rawWorkPlans))
		for _, wp := range rawWorkPlans {
			id := wp.PlanID.String()
			if _, ok := workPlanStatus[id]; !ok {
				workPlanStatus[id] = wp.Status.String()
			}
		}
		for _, id := range batch {
			if status, ok := workPlanStatus[id]; ok {
				byID[id].WorkPlanStatus = normalize.WorkPlanStatusLabel(status)
			}
		}

		for _, raw := range rawExecutors {
			p, ok := byID[raw.PlanID.String()]
			if !ok {
				continue
			}
			e := normalize.Executor(raw, p.Ref(), workPlanStatus[p.ID])
			p.Executors = append(p.Executors, e)
			executors = append(executors, e)
		}

		b.log.Debug(component, "Batch done: batch=%d/%d executors=%d workPlans=%d", i+1, len(batches), len(rawExecutors), len(rawWorkPlans))
	}

	goals := b.attachGoals(ctx, executors)
	b.log.Info(component, "Executors attached: executors=%d goals=%d", len(executors), goals)
	return len(executors), goals
}

func (b *Builder) attachGoals(ctx context.Context, executors []*types.Executor) int {
	const component = "GoalFetcher"

	if len(executors) == 0 {
		return 0
	}

	ids := make([]string, 0, len(executors))
	byID := make(map[string][]*types.Executor, len(executors))
	for _, e := range executors {
		ids = append(ids, e.ID)
		byID[e.ID] = append(byID[e.ID], e)
	}

	raw, err := b.upstream.Goals(ctx, ids)
	if err != nil {
		b.log.Warn(component, "Goals incomplete, continuing: rows=%d error=%v", len(raw), err)
	}

	total := 0
	for _, r := range raw {
		g := normalize.Goal(r)
		for _, e := range byID[r.ExecutorID.String()] {
			e.Goals = append(e.Goals, g)
			total++
		}
	}
	return total
}
