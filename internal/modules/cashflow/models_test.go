package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFromColumns(t *testing.T) {
	dates := []time.Time{day(2024, 1, 1), day(2024, 6, 1)}
	amounts := []float64{-1000, 500}

	s, err := FromColumns(dates, amounts)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, -1000.0, s[0].Amount)
	assert.Equal(t, day(2024, 6, 1), s[1].Date)
}

func TestFromColumns_MismatchedLengths(t *testing.T) {
	_, err := FromColumns([]time.Time{day(2024, 1, 1)}, []float64{-1, 2})
	assert.Error(t, err)
}

func TestSorted_StableOnTies(t *testing.T) {
	s := Series{
		{Date: day(2024, 3, 1), Amount: -300},
		{Date: day(2024, 1, 1), Amount: -100},
		{Date: day(2024, 1, 1), Amount: -200},
	}

	sorted := s.Sorted()

	assert.Equal(t, -100.0, sorted[0].Amount)
	assert.Equal(t, -200.0, sorted[1].Amount)
	assert.Equal(t, -300.0, sorted[2].Amount)

	// Input order preserved.
	assert.Equal(t, -300.0, s[0].Amount)
}

func TestTotals(t *testing.T) {
	s := Series{
		{Date: day(2024, 1, 1), Amount: -1000},
		{Date: day(2024, 2, 1), Amount: -500},
		{Date: day(2024, 3, 1), Amount: 200},
	}

	assert.InDelta(t, 1500.0, s.TotalInvested(), 1e-9)
	assert.InDelta(t, 200.0, s.TotalWithdrawn(), 1e-9)

	out, in := s.Counts()
	assert.Equal(t, 2, out)
	assert.Equal(t, 1, in)
}

func TestFirstDate(t *testing.T) {
	s := Series{
		{Date: day(2024, 5, 1), Amount: -1},
		{Date: day(2023, 5, 1), Amount: -1},
	}
	first, ok := s.FirstDate()
	require.True(t, ok)
	assert.Equal(t, day(2023, 5, 1), first)

	_, ok = Series{}.FirstDate()
	assert.False(t, ok)
}

func TestWithTerminal_DoesNotMutate(t *testing.T) {
	s := Series{{Date: day(2024, 1, 1), Amount: -1000}}
	now := day(2025, 1, 1)

	withTerm := s.WithTerminal(1100, now)

	require.Len(t, withTerm, 2)
	assert.Equal(t, 1100.0, withTerm[1].Amount)
	assert.Equal(t, now, withTerm[1].Date)
	assert.Len(t, s, 1)
}

func TestMerge(t *testing.T) {
	a := Series{{Date: day(2024, 1, 1), Amount: -1}}
	b := Series{{Date: day(2024, 2, 1), Amount: 2}}

	merged := Merge(a, b)
	assert.Len(t, merged, 2)
}
