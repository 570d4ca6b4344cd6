package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankitjgd/xirrcalc/internal/modules/benchmark"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/stats"
	"github.com/ankitjgd/xirrcalc/internal/modules/xirr"
)

type stubResolver struct {
	series prices.Series
	err    error
	calls  int
}

func (r *stubResolver) Range(ctx context.Context, symbol string, from, to time.Time) (prices.Series, error) {
	r.calls++
	return r.series, r.err
}

func newTestHandler(t *testing.T, resolver PriceResolver) http.Handler {
	t.Helper()
	solver := xirr.New(zerolog.Nop())
	engine := benchmark.New(solver, zerolog.Nop())
	service := stats.New(solver, engine, zerolog.Nop())
	h := NewHandler(service, resolver, "^NSEI", zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return router
}

func postAnalyze(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze_SingleAccount(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postAnalyze(t, handler, `{
		"as_of": "2024-01-01",
		"accounts": [{
			"label": "Zerodha",
			"current_value": 1100,
			"cash_flows": [{"date": "2023-01-01", "amount": -1000}]
		}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	require.Len(t, resp.Accounts, 1)
	assert.Nil(t, resp.Combined)

	record := resp.Accounts[0]
	assert.Equal(t, "Zerodha", record.Label)
	assert.Equal(t, 1000.0, record.TotalInvested)
	require.NotNil(t, record.XIRRPct)
	assert.InDelta(t, 10.0, *record.XIRRPct, 0.1)
}

func TestHandleAnalyze_CombinedForMultipleAccounts(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postAnalyze(t, handler, `{
		"as_of": "2024-01-01",
		"accounts": [
			{"label": "A", "current_value": 550, "cash_flows": [{"date": "2023-01-01", "amount": -500}]},
			{"label": "B", "current_value": 660, "cash_flows": [{"date": "2023-01-01", "amount": -600}]}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 2)
	require.NotNil(t, resp.Combined)
	assert.Equal(t, "Combined", resp.Combined.Label)
	assert.Equal(t, 1100.0, resp.Combined.TotalInvested)
	assert.Equal(t, 1210.0, resp.Combined.CurrentValue)
}

func TestHandleAnalyze_InlineBenchmarkPrices(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postAnalyze(t, handler, `{
		"as_of": "2024-01-01",
		"benchmark_prices": [
			{"date": "2023-01-01", "close": 100},
			{"date": "2024-01-01", "close": 120}
		],
		"accounts": [{
			"label": "Zerodha",
			"current_value": 1100,
			"cash_flows": [{"date": "2023-01-01", "amount": -1000}]
		}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	require.NotNil(t, resp.Accounts[0].Benchmark)
	assert.InDelta(t, 1200.0, resp.Accounts[0].Benchmark.CurrentValue, 1e-9)
}

func TestHandleAnalyze_ResolverUsedWhenNoInlinePrices(t *testing.T) {
	resolver := &stubResolver{series: prices.Series{
		{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 110},
	}}
	handler := newTestHandler(t, resolver)

	rec := postAnalyze(t, handler, `{
		"as_of": "2024-01-01",
		"benchmark_symbol": "^NSEI",
		"accounts": [{
			"label": "Zerodha",
			"current_value": 1100,
			"cash_flows": [{"date": "2023-01-01", "amount": -1000}]
		}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resolver.calls)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.NotNil(t, resp.Accounts[0].Benchmark)
}

func TestHandleAnalyze_ResolverFailureDegradesGracefully(t *testing.T) {
	resolver := &stubResolver{err: errors.New("source down")}
	handler := newTestHandler(t, resolver)

	rec := postAnalyze(t, handler, `{
		"as_of": "2024-01-01",
		"accounts": [{
			"label": "Zerodha",
			"current_value": 1100,
			"cash_flows": [{"date": "2023-01-01", "amount": -1000}]
		}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Nil(t, resp.Accounts[0].Benchmark)
	require.NotNil(t, resp.Accounts[0].XIRRPct)
}

func TestHandleAnalyze_ValidationErrors(t *testing.T) {
	handler := newTestHandler(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"no accounts", `{"accounts": []}`},
		{"bad as_of", `{"as_of": "01-01-2024", "accounts": [{"label": "A", "current_value": 1, "cash_flows": []}]}`},
		{"bad flow date", `{"accounts": [{"label": "A", "current_value": 1, "cash_flows": [{"date": "nope", "amount": -1}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAnalyze(t, handler, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
