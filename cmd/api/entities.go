package main

import (
	"net/http"

	"github.com/farxc/envelopa-transferencias/internal/response"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/normalize"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/go-chi/chi/v5"
)

// entityDetailPlans caps how many plans get their executors fetched on demand.
const entityDetailPlans = 20

type GetEntityResponse = response.APIResponse[*types.Entity]
type GetExecutorsResponse = response.APIResponse[[]*types.Executor]
type GetGoalsResponse = response.APIResponse[[]types.Goal]

// detach copies plans so fetched executors never leak into the shared
// snapshot.
func detach(plans []*types.Plan) []*types.Plan {
	out := make([]*types.Plan, len(plans))
	for i, p := range plans {
		cp := *p
		out[i] = &cp
	}
	return out
}

// @Summary		Get entity detail
// @Description	Returns one entity of the snapshot with the executors and goals of its first 20 plans.
// @Tags			Entities
// @Produce		json
// @Param			cnpj	path		string					true	"Beneficiary CNPJ"
// @Success		200		{object}	GetEntityResponse		"Entity with executors attached"
// @Failure		404		{object}	response.ErrorResponse	"Entity not found"
// @Failure		502		{object}	response.ErrorResponse	"Snapshot unavailable"
// @Router			/entities/{cnpj} [get]
func (app *application) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	cnpj := chi.URLParam(r, "cnpj")

	s, _, err := app.snapshot(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to load snapshot: "+err.Error())
		return
	}

	entity, ok := s.FindEntity(cnpj)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "entity not found")
		return
	}

	plans := entity.Plans
	if len(plans) > entityDetailPlans {
		plans = plans[:entityDetailPlans]
	}
	plans = detach(plans)
	app.details.AttachExecutors(r.Context(), plans)

	detail := *entity
	detail.Plans = plans

	response := &GetEntityResponse{
		Success: true,
		Data:    &detail,
		Message: "Successfully retrieved entity detail",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// findPlan looks the plan up in the snapshot first and asks the API only for
// plans the snapshot does not carry.
func (app *application) findPlan(r *http.Request, id string) (*types.Plan, error) {
	if s, _, err := app.snapshot(r.Context()); err == nil {
		for _, e := range s.Entities() {
			for _, p := range e.Plans {
				if p.ID == id {
					return p, nil
				}
			}
		}
	}

	raw, err := app.upstream.PlansByID(r.Context(), []string{id})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return normalize.Plan(raw[0]), nil
}

// @Summary		Get plan executors
// @Description	Fetches the executors of a plan of action, with their goals, from the TransfereGov API.
// @Tags			Plans
// @Produce		json
// @Param			id	path		string					true	"Plan of action id"
// @Success		200	{object}	GetExecutorsResponse	"Executors of the plan"
// @Failure		404	{object}	response.ErrorResponse	"Plan not found"
// @Failure		502	{object}	response.ErrorResponse	"TransfereGov API unavailable"
// @Router			/plans/{id}/executors [get]
func (app *application) handleGetPlanExecutors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := app.findPlan(r, id)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to fetch plan: "+err.Error())
		return
	}
	if plan == nil {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}

	plans := detach([]*types.Plan{plan})
	app.details.AttachExecutors(r.Context(), plans)

	response := &GetExecutorsResponse{
		Success: true,
		Data:    plans[0].Executors,
		Message: "Successfully retrieved plan executors",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get executor goals
// @Description	Fetches the goals of one executor from the TransfereGov API.
// @Tags			Executors
// @Produce		json
// @Param			id	path		string					true	"Executor id"
// @Success		200	{object}	GetGoalsResponse		"Goals of the executor"
// @Failure		502	{object}	response.ErrorResponse	"TransfereGov API unavailable"
// @Router			/executors/{id}/goals [get]
func (app *application) handleGetExecutorGoals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	raw, err := app.upstream.Goals(r.Context(), []string{id})
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to fetch goals: "+err.Error())
		return
	}

	goals := make([]types.Goal, 0, len(raw))
	for _, g := range raw {
		goals = append(goals, normalize.Goal(g))
	}

	response := &GetGoalsResponse{
		Success: true,
		Data:    goals,
		Message: "Successfully retrieved executor goals",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
