package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/farxc/envelopa-transferencias/internal/generation"
	"github.com/farxc/envelopa-transferencias/internal/response"
	"github.com/farxc/envelopa-transferencias/internal/store"
)

type GetGenerationHistoryResponse = response.APIResponse[[]store.GenerationRun]
type CreateGenerationResponse = response.APIResponse[*store.GenerationRun]

// @Summary		Get generation history
// @Description	Get a list of the latest snapshot generations.
// @Tags			Generations
// @Produce		json
// @Param			limit	query		int								false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetGenerationHistoryResponse	"Successfully retrieved latest generations"
// @Failure		500		{object}	response.ErrorResponse			"Failed to get generation history"
// @Failure		503		{object}	response.ErrorResponse			"Generation history is not configured"
// @Router			/generations/history [get]
func (app *application) handleGetGenerationHistory(w http.ResponseWriter, r *http.Request) {
	if app.store == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "generation history is not configured")
		return
	}

	limitParam := r.URL.Query().Get("limit")
	limit := 10
	if limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil {
			limit = l
		}
	}

	ctx := r.Context()
	data, err := app.store.GenerationRuns.GetLatest(ctx, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get generation history: "+err.Error())
		return
	}

	response := &GetGenerationHistoryResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved latest generations",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Start a generation
// @Description	Starts a full snapshot build in the background and writes the artifacts when it ends.
// @Tags			Generations
// @Accept			json
// @Produce		json
// @Param			generation	body		object{trigger_type:string}	false	"Trigger of the run, manual by default"
// @Success		202			{object}	CreateGenerationResponse	"Generation started"
// @Failure		400			{object}	response.ErrorResponse		"Invalid request payload"
// @Failure		409			{object}	response.ErrorResponse		"A generation is already running"
// @Router			/generations [post]
func (app *application) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	const component = "GenerationHandler"

	var input struct {
		TriggerType string `json:"trigger_type"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	switch input.TriggerType {
	case "":
		input.TriggerType = store.TriggerTypeManual
	case store.TriggerTypeManual, store.TriggerTypeScheduled:
	default:
		writeJSONError(w, http.StatusBadRequest, "trigger_type must be manual or scheduled")
		return
	}

	run, err := app.runner.Begin(r.Context(), input.TriggerType)
	if errors.Is(err, generation.ErrRunning) {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to start generation: "+err.Error())
		return
	}

	accepted := *run
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if _, _, err := app.runner.Execute(ctx, run); err != nil {
			return
		}
		app.snapshots.Delete(liveSnapshotKey)
		app.logger.Info(component, "Live snapshot cache cleared after generation: id=%d", run.ID)
	}()

	response := &CreateGenerationResponse{
		Success: true,
		Data:    &accepted,
		Message: "Generation started with IN_PROGRESS status",
	}

	if err := writeJSON(w, http.StatusAccepted, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
