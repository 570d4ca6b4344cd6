// Package benchmark replays a real cash-flow schedule against a historical
// price series, answering "what if the same amounts had gone into the index
// on the same dates".
package benchmark

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/xirr"
)

// Result is the synthetic benchmark portfolio after replaying every real
// transaction. XIRRPct is nil when the synthetic series itself did not yield
// a rate.
type Result struct {
	CurrentValue float64  `json:"current_value"`
	XIRRPct      *float64 `json:"xirr_pct"`
	UnitsHeld    float64  `json:"units_held"`
	LastPrice    float64  `json:"last_price"`
}

// Engine replays cash flows into synthetic benchmark units. It holds no
// cross-call state and is safe for concurrent use.
type Engine struct {
	solver *xirr.Solver
	log    zerolog.Logger
}

// New creates a replay engine that delegates rate solving to the given solver.
func New(solver *xirr.Solver, log zerolog.Logger) *Engine {
	return &Engine{
		solver: solver,
		log:    log.With().Str("component", "benchmark_replay").Logger(),
	}
}

// Replay walks the real series in date order, buying synthetic units with
// every investment and redeeming a pro-rata slice on every withdrawal, then
// values the remaining units at the last available price and solves the
// synthetic series for its own rate.
//
// Benchmark comparison is optional enrichment: an empty price series returns
// (nil, nil), never an error.
func (e *Engine) Replay(series cashflow.Series, priceSeries prices.Series, asOf time.Time) (*Result, error) {
	if len(priceSeries) == 0 {
		return nil, nil
	}

	units := 0.0
	invested := 0.0

	for _, txn := range series.Sorted() {
		price, ok := priceSeries.Lookup(txn.Date)
		if !ok || price <= 0 {
			continue
		}

		if txn.Amount < 0 {
			// Investment: buy units at the resolved price.
			amount := -txn.Amount
			units += amount / price
			invested += amount
			continue
		}

		// Withdrawal: sell the fraction of the portfolio the amount
		// represents, never a fixed unit count. This keeps units from going
		// negative when the benchmark underperformed the real portfolio.
		if units > 0 {
			value := units * price
			if value > 0 {
				units -= units * (txn.Amount / value)
				if units < 0 {
					units = 0
				}
			}
		}
	}

	last, _ := priceSeries.Last()
	currentValue := units * last.Close

	result := &Result{
		CurrentValue: currentValue,
		UnitsHeld:    units,
		LastPrice:    last.Close,
	}

	synthetic := series.WithTerminal(currentValue, asOf)
	if solved, err := e.solver.Solve(synthetic); err != nil {
		e.log.Debug().Err(err).Msg("Benchmark rate unavailable for synthetic series")
	} else {
		pct := solved.Rate * 100
		result.XIRRPct = &pct
	}

	e.log.Debug().
		Float64("invested", invested).
		Float64("units", units).
		Float64("current_value", currentValue).
		Msg("Replayed cash flows against benchmark")

	return result, nil
}
