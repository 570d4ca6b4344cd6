// Package xirr solves for the annualized internal rate of return of an
// irregular, dated cash-flow series.
//
// Real-world ledgers are messy: duplicate dates, clustered transactions and
// single-sided flows can make the NPV curve non-smooth with zero, one or many
// roots. The solver therefore runs an ordered fallback cascade, preferring a
// precise method before brute force:
//
//  1. Newton-Raphson with the analytic NPV derivative, from five fixed guesses
//  2. Brent's method over a grid of bracket combinations with a sign change
//  3. Grid search over [-0.99, 5] with one refinement pass
//
// When every stage fails, the failure is classified as either an extreme loss
// (NPV deeply negative at every feasible rate) or generic non-convergence.
package xirr

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
)

// Cascade parameters. The guesses and brackets are fixed: they cover the
// plausible range of annualized portfolio returns from near-total loss to
// 10x, and their order prefers the common case (moderate positive rates).
var (
	newtonGuesses = []float64{0.1, 0.0, -0.5, 0.5, 1.0}
	brentLowers   = []float64{-0.999, -0.99, -0.95}
	brentUppers   = []float64{10, 5, 2}
)

const (
	newtonMaxIter = 100
	brentMaxIter  = 200
	solveTol      = 1e-6

	// Acceptance window for a candidate root.
	acceptNPV      = 1.0
	acceptRateLow  = -0.99
	acceptRateHigh = 10

	// Grid search domain and resolution.
	gridLow        = -0.99
	gridHigh       = 5
	gridPoints     = 2000
	gridRefine     = 1000
	gridRefineSpan = 0.5
	gridAcceptNPV  = 100

	// DefaultExtremeLossNPV is the |NPV| magnitude above which an unsolvable
	// series is classified as an extreme loss. It is a heuristic tied to the
	// currency scale of the amounts, so it is configurable via Options.
	DefaultExtremeLossNPV = 1000
)

// Options tunes the solver's failure classification.
type Options struct {
	// ExtremeLossNPV overrides DefaultExtremeLossNPV when positive.
	ExtremeLossNPV float64
}

// Solver finds the annualized rate of return of a cash-flow series. It holds
// no cross-call state; a single Solver is safe for concurrent use.
type Solver struct {
	extremeLossNPV float64
	log            zerolog.Logger
}

// New creates a solver with default options.
func New(log zerolog.Logger) *Solver {
	return NewWithOptions(Options{}, log)
}

// NewWithOptions creates a solver with explicit options.
func NewWithOptions(opts Options, log zerolog.Logger) *Solver {
	tol := opts.ExtremeLossNPV
	if tol <= 0 {
		tol = DefaultExtremeLossNPV
	}
	return &Solver{
		extremeLossNPV: tol,
		log:            log.With().Str("component", "xirr_solver").Logger(),
	}
}

// Solve runs the solver cascade on the series. The series is sorted by date
// internally, so input order does not matter. It returns ErrTooFewFlows for
// fewer than two entries, ErrZeroSpan when all entries share one date, and
// ErrExtremeLoss or ErrNotConverged when the cascade is exhausted.
func (s *Solver) Solve(series cashflow.Series) (Result, error) {
	sc, err := newSchedule(series)
	if err != nil {
		return Result{}, err
	}

	if res, ok := s.solveNewton(sc); ok {
		return res, nil
	}
	if res, ok := s.solveBrent(sc); ok {
		return res, nil
	}

	bestRate, bestNPV := gridSearch(sc)
	if bestNPV < gridAcceptNPV {
		s.log.Debug().
			Float64("rate", bestRate).
			Float64("npv", bestNPV).
			Msg("Grid search produced an approximate root")
		return Result{Rate: bestRate, Method: MethodGrid, NPV: bestNPV}, nil
	}

	return Result{}, s.classifyFailure(sc, bestNPV)
}

// acceptable reports whether a candidate root satisfies the cascade's
// acceptance window.
func acceptable(rate, npv float64) bool {
	return math.Abs(npv) < acceptNPV && rate > acceptRateLow && rate < acceptRateHigh
}

// solveNewton runs Newton-Raphson from each fixed initial guess in order. A
// diverging or unacceptable attempt is discarded and the next guess tried.
func (s *Solver) solveNewton(sc *schedule) (Result, bool) {
	for _, guess := range newtonGuesses {
		rate, converged := newton(sc, guess)
		if !converged {
			continue
		}
		npv := sc.presentValue(rate)
		if acceptable(rate, npv) {
			return Result{Rate: rate, Method: MethodNewton, NPV: npv}, true
		}
		s.log.Debug().
			Float64("guess", guess).
			Float64("rate", rate).
			Float64("npv", npv).
			Msg("Newton attempt converged outside the acceptance window")
	}
	return Result{}, false
}

// newton iterates x -= f(x)/f'(x) until the step is below tolerance. A zero
// derivative or a non-finite iterate counts as divergence.
func newton(sc *schedule, guess float64) (float64, bool) {
	x := guess
	for i := 0; i < newtonMaxIter; i++ {
		d := sc.derivative(x)
		if d == 0 {
			return 0, false
		}
		step := sc.presentValue(x) / d
		x -= step
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		if math.Abs(step) < solveTol {
			return x, true
		}
	}
	return 0, false
}

// solveBrent tries each bracket combination, widest first. A bracket is only
// attempted when presentValue changes sign across it, the precondition for a
// bracketing method.
func (s *Solver) solveBrent(sc *schedule) (Result, bool) {
	f := sc.presentValue
	for _, lower := range brentLowers {
		for _, upper := range brentUppers {
			if f(lower)*f(upper) >= 0 {
				continue
			}
			rate, converged := brent(f, lower, upper, solveTol, brentMaxIter)
			if !converged {
				continue
			}
			npv := f(rate)
			if acceptable(rate, npv) {
				return Result{Rate: rate, Method: MethodBrent, NPV: npv}, true
			}
		}
	}
	return Result{}, false
}

// gridSearch evaluates |presentValue| on an even grid over [-0.99, 5], then
// refines around the best candidate with a finer grid clamped to the same
// domain. Returns the best rate and its |NPV|.
func gridSearch(sc *schedule) (float64, float64) {
	coarse := floats.Span(make([]float64, gridPoints), gridLow, gridHigh)
	bestRate, bestNPV := scanGrid(sc, coarse, math.NaN(), math.Inf(1))

	// Refinement only makes sense around a reasonable approximation.
	if bestNPV >= gridAcceptNPV {
		return bestRate, bestNPV
	}

	lo := math.Max(gridLow, bestRate-gridRefineSpan)
	hi := math.Min(gridHigh, bestRate+gridRefineSpan)
	fine := floats.Span(make([]float64, gridRefine), lo, hi)
	return scanGrid(sc, fine, bestRate, bestNPV)
}

func scanGrid(sc *schedule, rates []float64, bestRate, bestNPV float64) (float64, float64) {
	for _, rate := range rates {
		npv := math.Abs(sc.presentValue(rate))
		if npv < bestNPV {
			bestNPV = npv
			bestRate = rate
		}
	}
	return bestRate, bestNPV
}

// classifyFailure distinguishes an extreme loss from generic non-convergence
// by checking whether |NPV| exceeds the extreme-loss tolerance at both domain
// boundaries and at the best grid candidate.
func (s *Solver) classifyFailure(sc *schedule, bestGridNPV float64) error {
	atLow := math.Abs(sc.presentValue(acceptRateLow))
	atHigh := math.Abs(sc.presentValue(gridHigh))
	minPossible := math.Min(math.Min(atLow, atHigh), bestGridNPV)

	s.log.Debug().
		Float64("npv_at_low", atLow).
		Float64("npv_at_high", atHigh).
		Float64("best_grid_npv", bestGridNPV).
		Float64("tolerance", s.extremeLossNPV).
		Msg("Solver cascade exhausted")

	if minPossible > s.extremeLossNPV {
		return ErrExtremeLoss
	}
	return ErrNotConverged
}
