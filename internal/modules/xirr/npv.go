package xirr

import (
	"math"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
)

// Discount rates are clamped to this open interval before exponentiation to
// prevent overflow and division by zero near rate = -1.
const (
	rateClampLow  = -0.9999
	rateClampHigh = 100
)

const hoursPerYear = 24 * 365.25

// schedule is a cash-flow series reduced to the arrays the solver iterates
// over: signed amounts and elapsed years since the earliest entry, using a
// 365.25-day year. Fixing the reference point at the first date keeps the
// exponents small and makes the solved rate an annualized one.
type schedule struct {
	amounts []float64
	years   []float64
}

func newSchedule(series cashflow.Series) (*schedule, error) {
	if len(series) < 2 {
		return nil, ErrTooFewFlows
	}

	sorted := series.Sorted()
	first := sorted[0].Date
	if sorted[len(sorted)-1].Date.Equal(first) {
		return nil, ErrZeroSpan
	}

	sc := &schedule{
		amounts: make([]float64, len(sorted)),
		years:   make([]float64, len(sorted)),
	}
	for i, cf := range sorted {
		sc.amounts[i] = cf.Amount
		sc.years[i] = cf.Date.Sub(first).Hours() / hoursPerYear
	}
	return sc, nil
}

func clampRate(rate float64) float64 {
	return math.Max(rateClampLow, math.Min(rateClampHigh, rate))
}

// presentValue is the NPV of the schedule at the given annual discount rate.
// Outside the representable range it returns +Inf for positive rates and
// -Inf otherwise, so callers never see a NaN or a panic.
func (sc *schedule) presentValue(rate float64) float64 {
	r := clampRate(rate)
	sum := 0.0
	for i, amount := range sc.amounts {
		sum += amount / math.Pow(1+r, sc.years[i])
	}
	if math.IsNaN(sum) {
		if rate > 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return sum
}

// derivative is the analytic derivative of presentValue with respect to rate.
// A non-finite value collapses to zero, which makes the Newton step a no-op
// and lets the cascade move on to the next guess.
func (sc *schedule) derivative(rate float64) float64 {
	r := clampRate(rate)
	sum := 0.0
	for i, amount := range sc.amounts {
		sum += -amount * sc.years[i] / math.Pow(1+r, sc.years[i]+1)
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0
	}
	return sum
}
