package xirr

import "errors"

// Method identifies which stage of the solver cascade produced a rate, so
// callers and tests can tell a precise Newton root from a grid approximation.
type Method string

const (
	MethodNewton Method = "newton"
	MethodBrent  Method = "brent"
	MethodGrid   Method = "grid"
)

// Result is a converged annualized rate (0.1234 means 12.34%) together with
// the cascade stage that found it and the residual present value at the root.
type Result struct {
	Rate   float64
	Method Method
	NPV    float64
}

// Classified solver failures. ErrTooFewFlows and ErrZeroSpan are contract
// violations caught before any numeric work; the other two are expected
// outcomes for real-world cash-flow data and the caller is expected to fall
// back to simple-return reporting.
var (
	// ErrTooFewFlows is returned before any numeric work when the series has
	// fewer than two entries.
	ErrTooFewFlows = errors.New("xirr: need at least two cash flows")

	// ErrZeroSpan is returned when every entry falls on the same date, which
	// leaves the annualized rate undefined.
	ErrZeroSpan = errors.New("xirr: cash flows span a zero time range")

	// ErrNotConverged means the cascade was exhausted without an acceptable
	// root and the extreme-loss test did not apply. Unusual cash-flow
	// patterns (for example all amounts of one sign) end up here.
	ErrNotConverged = errors.New("xirr: could not converge to a solution; this may indicate unusual cash flow patterns")

	// ErrExtremeLoss means net present value stays deeply negative at every
	// feasible rate: realized plus remaining value never approaches the
	// amount invested under any discounting.
	ErrExtremeLoss = errors.New("xirr: net present value is always highly negative; the investment has lost too much value for any rate to reconcile the cash flows")
)
