// Package settlement decides how much of each plan was actually paid. A
// settlement document counts once its amount is backed by at least one
// payment order carrying a bank order number.
package settlement

import (
	"strings"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

type document struct {
	id     string
	amount float64
}

// Index joins commitments, settlement documents and payment orders.
type Index struct {
	commitments map[string][]string   // plan id -> commitment ids
	documents   map[string][]document // commitment id -> documents
	paid        map[string]struct{}   // document ids with a numbered order
}

func NewIndex(commitments []types.RawCommitment, documents []types.RawSettlementDocument, orders []types.RawPaymentOrder) *Index {
	ix := &Index{
		commitments: make(map[string][]string),
		documents:   make(map[string][]document),
		paid:        make(map[string]struct{}),
	}

	for _, c := range commitments {
		planID, id := c.PlanID.String(), c.ID.String()
		if planID == "" || id == "" {
			continue
		}
		ix.commitments[planID] = append(ix.commitments[planID], id)
	}

	for _, d := range documents {
		commitmentID, id := d.CommitmentID.String(), d.ID.String()
		if commitmentID == "" || id == "" {
			continue
		}
		ix.documents[commitmentID] = append(ix.documents[commitmentID], document{id: id, amount: d.Amount.Float()})
	}

	for _, o := range orders {
		if strings.TrimSpace(o.OrderNumber.String()) == "" {
			continue
		}
		ix.paid[o.DocumentID.String()] = struct{}{}
	}

	return ix
}

func (ix *Index) Paid(documentID string) bool {
	_, ok := ix.paid[documentID]
	return ok
}

// Disbursed sums the paid documents reachable from planID. Each document
// counts at most once, however many orders or duplicate rows point at it.
func (ix *Index) Disbursed(planID string) float64 {
	var total float64
	seen := make(map[string]struct{})
	for _, commitmentID := range ix.commitments[planID] {
		for _, doc := range ix.documents[commitmentID] {
			if _, dup := seen[doc.id]; dup {
				continue
			}
			seen[doc.id] = struct{}{}
			if ix.Paid(doc.id) {
				total += doc.amount
			}
		}
	}
	return total
}

// Resolve sets DisbursedTotal on every plan and returns how many plans have
// a positive disbursement.
func Resolve(plans []*types.Plan, ix *Index) int {
	withOrders := 0
	for _, p := range plans {
		p.DisbursedTotal = ix.Disbursed(p.ID)
		if p.DisbursedTotal > 0 {
			withOrders++
		}
	}
	return withOrders
}
