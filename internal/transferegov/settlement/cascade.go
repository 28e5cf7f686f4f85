package settlement

import (
	"context"
	"fmt"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

// Fetcher is the slice of the upstream client the cascade needs.
type Fetcher interface {
	Commitments(ctx context.Context, planIDs []string) ([]types.RawCommitment, error)
	SettlementDocuments(ctx context.Context, commitmentIDs []string) ([]types.RawSettlementDocument, error)
	PaymentOrders(ctx context.Context, documentIDs []string) ([]types.RawPaymentOrder, error)
}

// Cascade resolves plans one at a time, walking commitment, documents and
// orders with individual lookups. Throttling belongs to the fetcher.
type Cascade struct {
	fetcher Fetcher
	log     *logger.Logger
}

func NewCascade(fetcher Fetcher, log *logger.Logger) *Cascade {
	if log == nil {
		log = logger.Nop()
	}
	return &Cascade{fetcher: fetcher, log: log}
}

func (c *Cascade) Disbursed(ctx context.Context, planID string) (float64, error) {
	commitments, err := c.fetcher.Commitments(ctx, []string{planID})
	if err != nil {
		return 0, fmt.Errorf("commitments of plan %s: %w", planID, err)
	}
	if len(commitments) == 0 {
		return 0, nil
	}

	commitmentIDs := make([]string, 0, len(commitments))
	for _, cm := range commitments {
		commitmentIDs = append(commitmentIDs, cm.ID.String())
	}

	documents, err := c.fetcher.SettlementDocuments(ctx, commitmentIDs)
	if err != nil {
		return 0, fmt.Errorf("settlement documents of plan %s: %w", planID, err)
	}
	if len(documents) == 0 {
		return 0, nil
	}

	documentIDs := make([]string, 0, len(documents))
	for _, d := range documents {
		documentIDs = append(documentIDs, d.ID.String())
	}

	orders, err := c.fetcher.PaymentOrders(ctx, documentIDs)
	if err != nil {
		return 0, fmt.Errorf("payment orders of plan %s: %w", planID, err)
	}

	return NewIndex(commitments, documents, orders).Disbursed(planID), nil
}

// Resolve walks every plan. A plan whose chain fails resolves to 0 and the
// pass goes on; only a cancelled context stops it.
func (c *Cascade) Resolve(ctx context.Context, plans []*types.Plan) (int, error) {
	const component = "CascadeResolver"

	withOrders := 0
	for i, p := range plans {
		if err := ctx.Err(); err != nil {
			return withOrders, err
		}

		amount, err := c.Disbursed(ctx, p.ID)
		if err != nil {
			c.log.Warn(component, "Plan resolved to zero: plan=%s error=%v", p.ID, err)
			amount = 0
		}
		p.DisbursedTotal = amount
		if amount > 0 {
			withOrders++
		}

		if (i+1)%10 == 0 || i == len(plans)-1 {
			c.log.Debug(component, "Progress: plans=%d/%d withOrders=%d", i+1, len(plans), withOrders)
		}
	}
	return withOrders, nil
}
