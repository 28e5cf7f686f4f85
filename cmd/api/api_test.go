package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/response"
	"github.com/farxc/envelopa-transferencias/internal/store"
	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/client"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/export"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/transferegovtest"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Row = transferegovtest.Row

func seed(srv *transferegovtest.Server) {
	srv.Add(client.ResourcePlans,
		Row{
			"id_plano_acao": 1, "codigo_plano_acao": "09032024-1", "ano_plano_acao": 2024,
			"uf_beneficiario_plano_acao": "ES", "nome_parlamentar_emenda_plano_acao": "ANA",
			"valor_custeio_plano_acao": 100, "valor_investimento_plano_acao": 50,
			"cnpj_beneficiario_plano_acao": "100", "nome_beneficiario_plano_acao": "ESTADO DO ESPIRITO SANTO",
		},
		Row{
			"id_plano_acao": 2, "ano_plano_acao": 2024, "uf_beneficiario_plano_acao": "ES",
			"valor_custeio_plano_acao": 80,
			"cnpj_beneficiario_plano_acao": "200", "nome_beneficiario_plano_acao": "MUNICIPIO DE VITORIA",
		},
		Row{
			"id_plano_acao": 9, "ano_plano_acao": 2019, "uf_beneficiario_plano_acao": "ES",
			"valor_custeio_plano_acao": 10,
			"cnpj_beneficiario_plano_acao": "200", "nome_beneficiario_plano_acao": "MUNICIPIO DE VITORIA",
		},
	)
	srv.Add(client.ResourceCommitments, Row{"id_empenho": 11, "id_plano_acao": 1})
	srv.Add(client.ResourceSettlementDocuments, Row{"id_dh": 111, "id_empenho": 11, "valor_dh": 150})
	srv.Add(client.ResourcePaymentOrders, Row{"id_dh": 111, "numero_ordem_bancaria": "2024OB000001"})
	srv.Add(client.ResourceExecutors,
		Row{"id_executor": 7, "id_plano_acao": 1, "nome_executor": "SECRETARIA DE SAUDE"},
		Row{"id_executor": 8, "id_plano_acao": 9, "nome_executor": "SECRETARIA DE OBRAS"},
	)
	srv.Add(client.ResourceGoals,
		Row{"id_meta": 70, "id_executor": 7, "nome_meta": "Reforma"},
		Row{"id_meta": 71, "id_executor": 7, "sequencial_meta": 2, "nome_meta": "Equipamentos"},
	)
}

func newTestApp(t *testing.T, srv *transferegovtest.Server, storage *store.Storage) *application {
	t.Helper()
	dir := t.TempDir()
	cfg := config{
		addr:           ":0",
		snapshotMaxAge: time.Hour,
		client:         client.Config{BaseURL: srv.URL, CacheTTL: time.Minute},
		build: transferegov.Config{
			UF:            "ES",
			Years:         []int{2024},
			OutputPath:    filepath.Join(dir, "dados-es.json"),
			CSVOutputPath: filepath.Join(dir, "planos-es.csv"),
		},
	}
	return newApplication(cfg, storage, logger.Nop())
}

func do(t *testing.T, app *application, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	app.mount().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse[T] {
	t.Helper()
	var out response.APIResponse[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)

	rec := do(t, app, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	assert.Equal(t, "available", data["status"])
	assert.Equal(t, "ES", data["uf"])
	assert.Equal(t, false, data["history"])
}

func TestSnapshotFromArtifact(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)

	_, err := export.WriteJSON(app.config.build.OutputPath, &types.Snapshot{TotalOverall: 42})
	require.NoError(t, err)

	rec := do(t, app, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sourceArtifact, rec.Header().Get("X-Snapshot-Source"))

	out := decode[*types.Snapshot](t, rec)
	assert.Equal(t, sourceArtifact, out.Source)
	assert.Equal(t, 42.0, out.Data.TotalOverall)
	assert.Zero(t, srv.Calls(client.ResourcePlans))
}

func TestSnapshotArtifactDecodedOncePerVersion(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)
	ctx := context.Background()

	path := app.config.build.OutputPath
	_, err := export.WriteJSON(path, &types.Snapshot{TotalOverall: 42})
	require.NoError(t, err)

	first, source, err := app.snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, sourceArtifact, source)
	second, _, err := app.snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = export.WriteJSON(path, &types.Snapshot{TotalOverall: 43})
	require.NoError(t, err)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, _, err := app.snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 43.0, third.TotalOverall)
	assert.Zero(t, srv.Calls(client.ResourcePlans))
}

func TestSnapshotLiveFallbackWhenMissing(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	rec := do(t, app, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[*types.Snapshot](t, rec)
	assert.Equal(t, sourceLive, out.Source)
	assert.Equal(t, 230.0, out.Data.TotalOverall)
	assert.Equal(t, 150.0, out.Data.TotalOverallDisbursed)
	assert.Zero(t, srv.Calls(client.ResourceExecutors), "the live build skips executors")

	cached, ok := app.snapshots.Get(liveSnapshotKey)
	require.True(t, ok)
	assert.Equal(t, 230.0, cached.TotalOverall)
}

func TestSnapshotLiveFallbackWhenStale(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	path := app.config.build.OutputPath
	_, err := export.WriteJSON(path, &types.Snapshot{TotalOverall: 42})
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	out := decode[*types.Snapshot](t, do(t, app, http.MethodGet, "/v1/snapshot", nil))
	assert.Equal(t, sourceLive, out.Source)
	assert.Equal(t, 230.0, out.Data.TotalOverall)
}

func TestSnapshotLiveBuildFailure(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	srv.Fail = func(resource string, _ url.Values) bool { return true }
	app := newTestApp(t, srv, nil)

	rec := do(t, app, http.MethodGet, "/v1/snapshot", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestEntityDetailAttachesExecutors(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	rec := do(t, app, http.MethodGet, "/v1/entities/100", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[*types.Entity](t, rec)
	require.Len(t, out.Data.Plans, 1)
	require.Len(t, out.Data.Plans[0].Executors, 1)
	assert.Equal(t, "SECRETARIA DE SAUDE", out.Data.Plans[0].Executors[0].Name)
	assert.Len(t, out.Data.Plans[0].Executors[0].Goals, 2)

	cached, ok := app.snapshots.Get(liveSnapshotKey)
	require.True(t, ok)
	assert.Empty(t, cached.State.Plans[0].Executors, "the shared snapshot stays untouched")
}

func TestEntityDetailCapsPlans(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)

	entity := &types.Entity{ID: "300", CNPJ: "300", Name: "MUNICIPIO DE SERRA", Type: types.JurisdictionMunicipality}
	for i := 0; i < 25; i++ {
		entity.Plans = append(entity.Plans, &types.Plan{ID: fmt.Sprint(1000 + i), BeneficiaryCNPJ: "300"})
	}
	_, err := export.WriteJSON(app.config.build.OutputPath, &types.Snapshot{Municipalities: []*types.Entity{entity}})
	require.NoError(t, err)

	out := decode[*types.Entity](t, do(t, app, http.MethodGet, "/v1/entities/300", nil))
	assert.Len(t, out.Data.Plans, entityDetailPlans)
	assert.Equal(t, 1, srv.Calls(client.ResourceExecutors))
}

func TestEntityNotFound(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)
	_, err := export.WriteJSON(app.config.build.OutputPath, &types.Snapshot{})
	require.NoError(t, err)

	rec := do(t, app, http.MethodGet, "/v1/entities/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlanExecutors(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	out := decode[[]*types.Executor](t, do(t, app, http.MethodGet, "/v1/plans/1/executors", nil))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "7", out.Data[0].ID)
	assert.Equal(t, "1", out.Data[0].Plan.ID)
	assert.Equal(t, "ANA", out.Data[0].Plan.Legislator)
}

func TestPlanExecutorsOutsideSnapshot(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	// Plan 9 is from a year the snapshot does not cover.
	out := decode[[]*types.Executor](t, do(t, app, http.MethodGet, "/v1/plans/9/executors", nil))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "SECRETARIA DE OBRAS", out.Data[0].Name)

	rec := do(t, app, http.MethodGet, "/v1/plans/404/executors", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecutorGoals(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)

	out := decode[[]types.Goal](t, do(t, app, http.MethodGet, "/v1/executors/7/goals", nil))
	require.Len(t, out.Data, 2)
	assert.Equal(t, "Reforma", out.Data[0].Name)
	assert.Equal(t, 2, out.Data[1].Sequence)
}

type fakeRuns struct {
	runs []store.GenerationRun
}

func (f *fakeRuns) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeRuns) InsertGenerationRun(ctx context.Context, run *store.GenerationRun) error {
	return nil
}
func (f *fakeRuns) FinishGenerationRun(ctx context.Context, run *store.GenerationRun) error {
	return nil
}
func (f *fakeRuns) GetLatest(ctx context.Context, limit int) ([]store.GenerationRun, error) {
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func TestGenerationHistory(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()

	app := newTestApp(t, srv, nil)
	rec := do(t, app, http.MethodGet, "/v1/generations/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	runs := &fakeRuns{runs: []store.GenerationRun{
		{ID: 2, Status: store.StatusSuccess},
		{ID: 1, Status: store.StatusFailure},
	}}
	app = newTestApp(t, srv, &store.Storage{GenerationRuns: runs})
	out := decode[[]store.GenerationRun](t, do(t, app, http.MethodGet, "/v1/generations/history?limit=1", nil))
	require.Len(t, out.Data, 1)
	assert.Equal(t, int64(2), out.Data[0].ID)
}

func TestCreateGeneration(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	seed(srv)
	app := newTestApp(t, srv, nil)
	app.snapshots.Set(liveSnapshotKey, &types.Snapshot{})

	rec := do(t, app, http.MethodPost, "/v1/generations", []byte(`{"trigger_type":"scheduled"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)
	out := decode[*store.GenerationRun](t, rec)
	assert.Equal(t, store.TriggerTypeScheduled, out.Data.TriggerType)
	assert.Equal(t, store.StatusInProgress, out.Data.Status)

	assert.Eventually(t, func() bool { return !app.runner.Running() }, 5*time.Second, 10*time.Millisecond)

	snapshot, _, err := export.ReadJSON(app.config.build.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 230.0, snapshot.TotalOverall)
	assert.FileExists(t, app.config.build.CSVOutputPath)

	assert.Eventually(t, func() bool { return app.snapshots.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCreateGenerationRejectsUnknownTrigger(t *testing.T) {
	srv := transferegovtest.NewServer()
	defer srv.Close()
	app := newTestApp(t, srv, nil)

	rec := do(t, app, http.MethodPost, "/v1/generations", []byte(`{"trigger_type":"cron"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodPost, "/v1/generations", []byte(`{"unknown":true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("SNAPSHOT_MAX_AGE", "2h")
	t.Setenv("YEARS", "2024")

	cfg := loadConfig()
	assert.Equal(t, ":9090", cfg.addr)
	assert.Equal(t, 2*time.Hour, cfg.snapshotMaxAge)
	assert.Equal(t, []int{2024}, cfg.build.Years)
	assert.Equal(t, "public/dados-es.json", cfg.build.OutputPath)
}
