// Package handlers exposes portfolio analysis over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/stats"
)

const dateLayout = "2006-01-02"

// PriceResolver fetches a benchmark price series for a symbol over a window.
type PriceResolver interface {
	Range(ctx context.Context, symbol string, from, to time.Time) (prices.Series, error)
}

// flowRequest is one dated cash flow. Negative amounts are money put in,
// positive amounts are money taken out.
type flowRequest struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// accountRequest is one account's flows and its current market value.
type accountRequest struct {
	Label        string        `json:"label"`
	CurrentValue float64       `json:"current_value"`
	CashFlows    []flowRequest `json:"cash_flows"`
}

type priceRequest struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// analyzeRequest is the body of POST /api/portfolio/analyze. Benchmark prices
// may be supplied inline; otherwise they are fetched for benchmark_symbol.
type analyzeRequest struct {
	AsOf            string           `json:"as_of,omitempty"`
	BenchmarkSymbol string           `json:"benchmark_symbol,omitempty"`
	BenchmarkPrices []priceRequest   `json:"benchmark_prices,omitempty"`
	Accounts        []accountRequest `json:"accounts"`
}

type analyzeResponse struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Accounts    []stats.Record `json:"accounts"`
	Combined    *stats.Record  `json:"combined,omitempty"`
}

// Handler serves portfolio analysis requests.
type Handler struct {
	service         *stats.Service
	resolver        PriceResolver
	benchmarkSymbol string
	log             zerolog.Logger
}

// NewHandler creates the portfolio analysis handler. benchmarkSymbol is the
// default symbol used when a request names none.
func NewHandler(service *stats.Service, resolver PriceResolver, benchmarkSymbol string, log zerolog.Logger) *Handler {
	return &Handler{
		service:         service,
		resolver:        resolver,
		benchmarkSymbol: benchmarkSymbol,
		log:             log.With().Str("component", "stats_handlers").Logger(),
	}
}

// RegisterRoutes registers the portfolio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
	})
}

// HandleAnalyze computes per-account and combined portfolio statistics.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(req.Accounts) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one account is required")
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse(dateLayout, req.AsOf)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid as_of date: %v", err))
			return
		}
		asOf = parsed
	}

	accounts := make([]cashflow.Series, 0, len(req.Accounts))
	for i, acct := range req.Accounts {
		series, err := parseFlows(acct.CashFlows)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("account %d: %v", i, err))
			return
		}
		accounts = append(accounts, series)
	}

	priceSeries, err := h.resolvePrices(r.Context(), req, accounts, asOf)
	if err != nil {
		// Benchmark data is best effort. The analysis still runs without it.
		h.log.Warn().Err(err).Msg("Benchmark prices unavailable")
		priceSeries = nil
	}

	resp := analyzeResponse{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
	}

	var combinedValue float64
	for i, acct := range req.Accounts {
		record := h.service.Aggregate(accounts[i], acct.CurrentValue, acct.Label, priceSeries, asOf)
		resp.Accounts = append(resp.Accounts, record)
		combinedValue += acct.CurrentValue
	}

	if len(accounts) > 1 {
		merged := cashflow.Merge(accounts...)
		combined := h.service.Aggregate(merged, combinedValue, "Combined", priceSeries, asOf)
		resp.Combined = &combined
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// resolvePrices prefers inline prices, then the resolver keyed on the request
// symbol or the configured default.
func (h *Handler) resolvePrices(ctx context.Context, req analyzeRequest, accounts []cashflow.Series, asOf time.Time) (prices.Series, error) {
	if len(req.BenchmarkPrices) > 0 {
		series := make(prices.Series, 0, len(req.BenchmarkPrices))
		for _, p := range req.BenchmarkPrices {
			date, err := time.Parse(dateLayout, p.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid benchmark price date %q: %w", p.Date, err)
			}
			if p.Close <= 0 {
				continue
			}
			series = append(series, prices.Price{Date: date, Close: p.Close})
		}
		series.Sort()
		return series, nil
	}

	symbol := req.BenchmarkSymbol
	if symbol == "" {
		symbol = h.benchmarkSymbol
	}
	if symbol == "" || h.resolver == nil {
		return nil, nil
	}

	merged := cashflow.Merge(accounts...)
	first, ok := merged.FirstDate()
	if !ok {
		return nil, nil
	}

	return h.resolver.Range(ctx, symbol, first, asOf)
}

func parseFlows(flows []flowRequest) (cashflow.Series, error) {
	series := make(cashflow.Series, 0, len(flows))
	for _, f := range flows {
		date, err := time.Parse(dateLayout, f.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid cash flow date %q: %w", f.Date, err)
		}
		series = append(series, cashflow.CashFlow{Date: date, Amount: f.Amount})
	}
	return series, nil
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
