package transferegov

import (
	"context"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/settlement"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

// resolve fills DisbursedTotal on every plan. Bulk mode walks the three
// fetch phases once for all plans; cascade mode asks per plan.
func (b *Builder) resolve(ctx context.Context, plans []*types.Plan, report *Report) error {
	const component = "SettlementResolver"

	if b.cfg.ResolveMode == ResolveCascade {
		for _, phase := range []Phase{PhaseFetchCommitments, PhaseFetchSettlementDocs, PhaseFetchPaymentOrders} {
			b.enter(report, phase)
			b.log.Info(component, "Bulk fetch skipped in cascade mode: phase=%s", phase)
		}

		b.enter(report, PhaseResolveDisbursements)
		n, err := settlement.NewCascade(b.upstream.Throttled(b.cfg.CascadeRPS), b.log).Resolve(ctx, plans)
		report.PlansWithPaymentOrder = n
		return err
	}

	b.enter(report, PhaseFetchCommitments)
	commitments, err := b.upstream.Commitments(ctx, planIDs(plans))
	if err != nil {
		b.log.Warn(component, "Commitments incomplete, continuing: rows=%d error=%v", len(commitments), err)
	}
	report.Commitments = len(commitments)
	b.log.Info(component, "Commitments fetched: rows=%d", len(commitments))
	if err := ctx.Err(); err != nil {
		return err
	}

	b.enter(report, PhaseFetchSettlementDocs)
	commitmentIDs := make([]string, 0, len(commitments))
	for _, c := range commitments {
		commitmentIDs = append(commitmentIDs, c.ID.String())
	}
	documents, err := b.upstream.SettlementDocuments(ctx, commitmentIDs)
	if err != nil {
		b.log.Warn(component, "Settlement documents incomplete, continuing: rows=%d error=%v", len(documents), err)
	}
	report.SettlementDocuments = len(documents)
	b.log.Info(component, "Settlement documents fetched: rows=%d", len(documents))
	if err := ctx.Err(); err != nil {
		return err
	}

	b.enter(report, PhaseFetchPaymentOrders)
	documentIDs := make([]string, 0, len(documents))
	for _, d := range documents {
		documentIDs = append(documentIDs, d.ID.String())
	}
	orders, err := b.upstream.PaymentOrders(ctx, documentIDs)
	if err != nil {
		b.log.Warn(component, "Payment orders incomplete, continuing: rows=%d error=%v", len(orders), err)
	}
	report.PaymentOrders = len(orders)
	b.log.Info(component, "Payment orders fetched: rows=%d", len(orders))
	if err := ctx.Err(); err != nil {
		return err
	}

	b.enter(report, PhaseResolveDisbursements)
	report.PlansWithPaymentOrder = settlement.Resolve(plans, settlement.NewIndex(commitments, documents, orders))
	b.log.Info(component, "Disbursements resolved: plans=%d withPaymentOrder=%d", len(plans), report.PlansWithPaymentOrder)
	return nil
}
