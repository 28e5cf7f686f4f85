package client

import (
	"context"
	"strconv"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

const (
	ResourcePlans               = "plano_acao_especial"
	ResourceCommitments         = "empenho_especial"
	ResourceSettlementDocuments = "documento_habil_especial"
	ResourcePaymentOrders       = "ordem_pagamento_ordem_bancaria_especial"
	ResourceExecutors           = "executor_especial"
	ResourceWorkPlans           = "plano_trabalho_especial"
	ResourceGoals               = "meta_especial"
)

// PlansByYear lists every plan of action for one state and year.
func (c *Client) PlansByYear(ctx context.Context, uf string, year int) ([]types.RawPlan, error) {
	q := NewQuery().
		Where("uf_beneficiario_plano_acao", Eq(uf)).
		Where("ano_plano_acao", Eq(strconv.Itoa(year)))
	return fetchAll[types.RawPlan](ctx, c, ResourcePlans, q)
}

func (c *Client) PlansByID(ctx context.Context, ids []string) ([]types.RawPlan, error) {
	return fetchBatched[types.RawPlan](ctx, c, ResourcePlans, "id_plano_acao", ids, NewQuery())
}

func (c *Client) Commitments(ctx context.Context, planIDs []string) ([]types.RawCommitment, error) {
	return fetchBatched[types.RawCommitment](ctx, c, ResourceCommitments, "id_plano_acao", planIDs, NewQuery())
}

func (c *Client) SettlementDocuments(ctx context.Context, commitmentIDs []string) ([]types.RawSettlementDocument, error) {
	return fetchBatched[types.RawSettlementDocument](ctx, c, ResourceSettlementDocuments, "id_empenho", commitmentIDs, NewQuery())
}

// PaymentOrders only returns orders that carry a bank order number.
func (c *Client) PaymentOrders(ctx context.Context, documentIDs []string) ([]types.RawPaymentOrder, error) {
	q := NewQuery().Where("numero_ordem_bancaria", NotNull)
	return fetchBatched[types.RawPaymentOrder](ctx, c, ResourcePaymentOrders, "id_dh", documentIDs, q)
}

func (c *Client) Executors(ctx context.Context, planIDs []string) ([]types.RawExecutor, error) {
	return fetchBatched[types.RawExecutor](ctx, c, ResourceExecutors, "id_plano_acao", planIDs, NewQuery())
}

func (c *Client) WorkPlans(ctx context.Context, planIDs []string) ([]types.RawWorkPlan, error) {
	return fetchBatched[types.RawWorkPlan](ctx, c, ResourceWorkPlans, "id_plano_acao", planIDs, NewQuery())
}

func (c *Client) Goals(ctx context.Context, executorIDs []string) ([]types.RawGoal, error) {
	return fetchBatched[types.RawGoal](ctx, c, ResourceGoals, "id_executor", executorIDs, NewQuery())
}
