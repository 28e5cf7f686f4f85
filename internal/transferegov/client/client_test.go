package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, cfg Config) *Client {
	cfg.BaseURL = baseURL
	cfg.RetryInterval = time.Millisecond
	return New(cfg, logger.Nop())
}

func writeRows(t *testing.T, w http.ResponseWriter, rows any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(rows))
}

func TestPlansByYearPaginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/plano_acao_especial", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.ES", q.Get("uf_beneficiario_plano_acao"))
		assert.Equal(t, "eq.2023", q.Get("ano_plano_acao"))
		assert.Equal(t, "2", q.Get("limit"))

		offset, _ := strconv.Atoi(q.Get("offset"))
		var rows []map[string]any
		for i := offset; i < 5 && i < offset+2; i++ {
			rows = append(rows, map[string]any{"id_plano_acao": i + 1})
		}
		writeRows(t, w, rows)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{PageSize: 2})
	plans, err := c.PlansByYear(context.Background(), "ES", 2023)
	require.NoError(t, err)

	require.Len(t, plans, 5)
	assert.Equal(t, "1", plans[0].ID.String())
	assert.Equal(t, "5", plans[4].ID.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestBatchedLookupEncodesInFilter(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "id_dh=in.(")
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("id_dh"))
		mu.Unlock()
		assert.Equal(t, NotNull, r.URL.Query().Get("numero_ordem_bancaria"))
		writeRows(t, w, []map[string]any{{"id_dh": 1, "numero_ordem_bancaria": "OB1"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{BatchSize: 2})
	orders, err := c.PaymentOrders(context.Background(), []string{"1", "2", "2", "3", "4", "5", ""})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"in.(1,2)", "in.(3,4)", "in.(5)"}, seen)
	assert.Len(t, orders, 3)
}

func TestFailedBatchIsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("id_plano_acao"), "bad") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeRows(t, w, []map[string]any{{"id_empenho": "e1", "id_plano_acao": "1"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{BatchSize: 1})
	rows, err := c.Commitments(context.Background(), []string{"1", "bad"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Len(t, rows, 1)
}

func TestFailedBatchKeepsPagesReadBeforeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeRows(t, w, []map[string]any{
			{"id_executor": 1, "id_plano_acao": 1},
			{"id_executor": 2, "id_plano_acao": 1},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{PageSize: 2})
	rows, err := c.Executors(context.Background(), []string{"1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1].ID.String())
}

func TestThrottledClientWaitsOnEveryPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("offset") == "2" {
			writeRows(t, w, []map[string]any{})
			return
		}
		writeRows(t, w, []map[string]any{{"id_executor": 1}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{PageSize: 1})
	throttled := c.Throttled(10)
	require.NotSame(t, c, throttled)
	assert.Same(t, c, c.Throttled(0))

	start := time.Now()
	rows, err := throttled.Executors(context.Background(), []string{"1"})
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), calls.Load())
	// One token up front, then two more at 10 per second.
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)

	start = time.Now()
	_, err = c.Executors(context.Background(), []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "pages come from the shared cache")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottledClientGivesUpAtDeadline(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeRows(t, w, []map[string]any{{"id_meta": 1}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	rows, err := newTestClient(srv.URL, Config{PageSize: 1}).Throttled(0.01).Goals(ctx, []string{"10"})
	require.Error(t, err)

	assert.Len(t, rows, 1)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeRows(t, w, []map[string]any{{"id_meta": 1}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{MaxRetries: 3})
	goals, err := c.Goals(context.Background(), []string{"10"})
	require.NoError(t, err)

	assert.Len(t, goals, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{MaxRetries: 5})
	_, err := c.PlansByYear(context.Background(), "ES", 2024)

	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFallsBackToProxy(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer direct.Close()

	var proxied atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied.Store(r.URL.Query().Get("url"))
		writeRows(t, w, []map[string]any{{"id_executor": 7, "id_plano_acao": 1}})
	}))
	defer proxy.Close()

	c := newTestClient(direct.URL, Config{Proxies: []string{proxy.URL + "/raw?url="}})
	executors, err := c.Executors(context.Background(), []string{"1"})
	require.NoError(t, err)

	require.Len(t, executors, 1)
	assert.Equal(t, "7", executors[0].ID.String())
	target, _ := proxied.Load().(string)
	assert.True(t, strings.HasPrefix(target, direct.URL+"/executor_especial?"), target)
}

func TestResponsesAreCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeRows(t, w, []map[string]any{{"id_plano_acao": 1, "situacao_plano_trabalho": "APROVADO"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{CacheTTL: time.Minute})
	for i := 0; i < 3; i++ {
		rows, err := c.WorkPlans(context.Background(), []string{"1"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Cache().Len())
}

func TestMalformedBodyIsNotCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"message":"not a list"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Config{CacheTTL: time.Minute})
	_, err := c.PlansByID(context.Background(), []string{"1"})
	require.Error(t, err)
	assert.Equal(t, 0, c.Cache().Len())

	_, err = c.PlansByID(context.Background(), []string{"1"})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueryEncode(t *testing.T) {
	q := NewQuery().Where("id_plano_acao", In([]string{"1", "2"})).Where("numero_ordem_bancaria", NotNull)
	assert.Equal(t, "id_plano_acao=in.(1,2)&limit=10&numero_ordem_bancaria=not.is.null&offset=20", q.page(10, 20).Encode())
	assert.NotContains(t, q.Encode(), "limit")
}
