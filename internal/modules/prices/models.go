// Package prices provides the benchmark price series model, a sqlite-backed
// history store and a remote chart client with a freshness cache.
package prices

import (
	"sort"
	"time"
)

// Price is one daily closing level of a benchmark instrument.
type Price struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is a date-ascending sequence of daily prices. Producers guarantee
// strictly increasing dates and strictly positive closes; entries violating
// that are dropped at parse time and never reach consumers.
type Series []Price

// Sort orders the series by date in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Lookup resolves the price applicable to a transaction date: the exact date
// when present, otherwise the nearest later date (the first trading day the
// cash could actually be deployed), otherwise the latest available price.
// ok is false only for an empty series.
func (s Series) Lookup(date time.Time) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(date) })
	if i < len(s) {
		return s[i].Close, true
	}
	return s[len(s)-1].Close, true
}

// Last returns the most recent entry. ok is false for an empty series.
func (s Series) Last() (Price, bool) {
	if len(s) == 0 {
		return Price{}, false
	}
	return s[len(s)-1], true
}
