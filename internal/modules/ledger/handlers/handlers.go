// Package handlers exposes broker ledger analysis over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/ledger"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/stats"
)

const dateLayout = "2006-01-02"

// PriceResolver fetches a benchmark price series for a symbol over a window.
type PriceResolver interface {
	Range(ctx context.Context, symbol string, from, to time.Time) (prices.Series, error)
}

type analyzeResponse struct {
	ID          string       `json:"id"`
	GeneratedAt time.Time    `json:"generated_at"`
	FlowCount   int          `json:"flow_count"`
	Account     stats.Record `json:"account"`
}

// Handler turns an uploaded broker ledger CSV into portfolio statistics.
type Handler struct {
	parser          *ledger.Parser
	service         *stats.Service
	resolver        PriceResolver
	benchmarkSymbol string
	log             zerolog.Logger
}

// NewHandler creates the ledger handler. benchmarkSymbol is the default
// symbol used when a request names none.
func NewHandler(parser *ledger.Parser, service *stats.Service, resolver PriceResolver, benchmarkSymbol string, log zerolog.Logger) *Handler {
	return &Handler{
		parser:          parser,
		service:         service,
		resolver:        resolver,
		benchmarkSymbol: benchmarkSymbol,
		log:             log.With().Str("component", "ledger_handlers").Logger(),
	}
}

// RegisterRoutes registers the ledger routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
	})
}

// HandleAnalyze parses a ledger CSV request body into dated cash flows and
// computes the account statistics.
// POST /api/ledger/analyze?current_value=...&label=...&as_of=...&benchmark_symbol=...
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	currentValue, err := strconv.ParseFloat(q.Get("current_value"), 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "current_value query parameter is required and must be a number")
		return
	}

	label := q.Get("label")
	if label == "" {
		label = "Ledger"
	}

	asOf := time.Now().UTC()
	if v := q.Get("as_of"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid as_of date: %v", err))
			return
		}
		asOf = parsed
	}

	series, err := h.parser.ParseZerodhaCSV(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse ledger: %v", err))
		return
	}

	var priceSeries prices.Series
	symbol := q.Get("benchmark_symbol")
	if symbol == "" {
		symbol = h.benchmarkSymbol
	}
	if symbol != "" && h.resolver != nil {
		if first, ok := series.FirstDate(); ok {
			priceSeries, err = h.resolver.Range(r.Context(), symbol, first, asOf)
			if err != nil {
				// Benchmark data is best effort. The analysis still runs without it.
				h.log.Warn().Err(err).Str("symbol", symbol).Msg("Benchmark prices unavailable")
				priceSeries = nil
			}
		}
	}

	record := h.service.Aggregate(series, currentValue, label, priceSeries, asOf)

	h.respondJSON(w, http.StatusOK, analyzeResponse{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		FlowCount:   len(series),
		Account:     record,
	})
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
