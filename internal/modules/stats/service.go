// Package stats aggregates the real cash-flow series, the solver's rate and
// the optional benchmark replay into one reporting record.
package stats

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/benchmark"
	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/xirr"
)

const hoursPerDay = 24

// Service computes portfolio statistics. Stateless and safe for concurrent
// use across accounts.
type Service struct {
	solver *xirr.Solver
	replay *benchmark.Engine
	log    zerolog.Logger
}

// New creates the aggregator.
func New(solver *xirr.Solver, replay *benchmark.Engine, log zerolog.Logger) *Service {
	return &Service{
		solver: solver,
		replay: replay,
		log:    log.With().Str("component", "stats").Logger(),
	}
}

// Aggregate summarizes one account: totals, holding period, simple return,
// the solved XIRR, and (when a price series is supplied) the benchmark
// replay. A solver failure or missing benchmark data degrades to absent
// fields; the primary statistics are always produced.
func (s *Service) Aggregate(series cashflow.Series, currentValue float64, label string, priceSeries prices.Series, asOf time.Time) Record {
	rec := Record{
		Label:          label,
		FirstDate:      asOf,
		CurrentValue:   currentValue,
		TotalInvested:  series.TotalInvested(),
		TotalWithdrawn: series.TotalWithdrawn(),
	}
	rec.CountOutflows, rec.CountInflows = series.Counts()

	if first, ok := series.FirstDate(); ok {
		rec.FirstDate = first
		rec.DaysInvested = int(asOf.Sub(first).Hours() / hoursPerDay)
		rec.YearsInvested = float64(rec.DaysInvested) / 365.25
	}

	rec.NetGain = currentValue + rec.TotalWithdrawn - rec.TotalInvested
	if rec.TotalInvested > 0 {
		rec.SimpleReturnPct = rec.NetGain / rec.TotalInvested * 100
	}

	result, err := s.solver.Solve(series.WithTerminal(currentValue, asOf))
	switch {
	case err == nil:
		pct := result.Rate * 100
		rec.XIRRPct = &pct
	case errors.Is(err, xirr.ErrExtremeLoss), errors.Is(err, xirr.ErrNotConverged):
		rec.XIRRFailureReason = err.Error()
		s.log.Warn().Str("label", label).Err(err).Msg("XIRR unavailable, simple return still reported")
	default:
		rec.XIRRFailureReason = err.Error()
		s.log.Warn().Str("label", label).Err(err).Msg("XIRR rejected malformed series")
	}

	if len(series) > 0 {
		bench, err := s.replay.Replay(series, priceSeries, asOf)
		if err != nil {
			s.log.Warn().Str("label", label).Err(err).Msg("Benchmark comparison unavailable")
		} else {
			rec.Benchmark = bench
		}
	}

	return rec
}
