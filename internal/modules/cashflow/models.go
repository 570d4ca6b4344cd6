// Package cashflow defines the dated cash-flow series consumed by the XIRR
// solver, the benchmark replay engine and the statistics aggregator.
//
// Sign convention: outflows (money committed to the portfolio) are negative,
// inflows (money returned) and the terminal valuation are positive.
package cashflow

import (
	"fmt"
	"sort"
	"time"
)

// CashFlow is a single dated, signed transaction amount.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Series is a sequence of cash flows. It is not required to be sorted;
// consumers that care about order call Sorted first.
type Series []CashFlow

// FromColumns builds a Series from parallel date and amount slices, the shape
// ledger producers naturally emit. The slices must have the same length.
func FromColumns(dates []time.Time, amounts []float64) (Series, error) {
	if len(dates) != len(amounts) {
		return nil, fmt.Errorf("cash flows and dates must have the same length: %d vs %d", len(amounts), len(dates))
	}
	s := make(Series, len(dates))
	for i := range dates {
		s[i] = CashFlow{Date: dates[i], Amount: amounts[i]}
	}
	return s, nil
}

// Sorted returns a copy of the series ordered by date. The sort is stable so
// same-day entries keep their relative order.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// FirstDate returns the earliest transaction date. ok is false for an empty
// series.
func (s Series) FirstDate() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	first := s[0].Date
	for _, cf := range s[1:] {
		if cf.Date.Before(first) {
			first = cf.Date
		}
	}
	return first, true
}

// TotalInvested is the negated sum of all negative amounts.
func (s Series) TotalInvested() float64 {
	total := 0.0
	for _, cf := range s {
		if cf.Amount < 0 {
			total -= cf.Amount
		}
	}
	return total
}

// TotalWithdrawn is the sum of all positive amounts.
func (s Series) TotalWithdrawn() float64 {
	total := 0.0
	for _, cf := range s {
		if cf.Amount > 0 {
			total += cf.Amount
		}
	}
	return total
}

// Counts returns the number of outflows (negative) and inflows (positive).
func (s Series) Counts() (outflows, inflows int) {
	for _, cf := range s {
		switch {
		case cf.Amount < 0:
			outflows++
		case cf.Amount > 0:
			inflows++
		}
	}
	return outflows, inflows
}

// WithTerminal returns a copy of the series with a terminal valuation entry
// appended, dated asOf. The original series is left untouched.
func (s Series) WithTerminal(value float64, asOf time.Time) Series {
	out := make(Series, len(s), len(s)+1)
	copy(out, s)
	return append(out, CashFlow{Date: asOf, Amount: value})
}

// Merge concatenates several series into one, for combined multi-account
// analysis. Sorting is left to the consumer.
func Merge(series ...Series) Series {
	total := 0
	for _, s := range series {
		total += len(s)
	}
	out := make(Series, 0, total)
	for _, s := range series {
		out = append(out, s...)
	}
	return out
}
