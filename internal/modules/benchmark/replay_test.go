package benchmark

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/xirr"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEngine() *Engine {
	return New(xirr.New(zerolog.Nop()), zerolog.Nop())
}

func TestReplay_EmptyPriceSeries(t *testing.T) {
	series := cashflow.Series{{Date: day(2024, 1, 1), Amount: -1000}}

	res, err := testEngine().Replay(series, nil, day(2025, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestReplay_ProportionalRedemption(t *testing.T) {
	// 1000 invested at price 10 buys 100 units. Withdrawing 500 when the
	// portfolio is worth 1000 must sell exactly half the units.
	priceSeries := prices.Series{
		{Date: day(2024, 1, 1), Close: 10},
		{Date: day(2024, 6, 1), Close: 10},
	}
	series := cashflow.Series{
		{Date: day(2024, 1, 1), Amount: -1000},
		{Date: day(2024, 6, 1), Amount: 500},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2024, 6, 1))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.InDelta(t, 50.0, res.UnitsHeld, 1e-9)
	assert.InDelta(t, 500.0, res.CurrentValue, 1e-9)
}

func TestReplay_WithdrawalNeverGoesNegative(t *testing.T) {
	// Withdrawing more than the synthetic portfolio is worth sells the whole
	// position, not a negative one.
	priceSeries := prices.Series{
		{Date: day(2024, 1, 1), Close: 10},
		{Date: day(2024, 6, 1), Close: 5},
	}
	series := cashflow.Series{
		{Date: day(2024, 1, 1), Amount: -1000},
		{Date: day(2024, 6, 1), Amount: 2000},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2024, 6, 1))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.GreaterOrEqual(t, res.UnitsHeld, 0.0)
}

func TestReplay_LookupUsesNextTradingDay(t *testing.T) {
	// Transaction dated on a non-trading day resolves to the next later date
	// in the series (price 20), not the earlier one (price 10).
	priceSeries := prices.Series{
		{Date: day(2024, 1, 5), Close: 10},
		{Date: day(2024, 1, 8), Close: 20},
	}
	series := cashflow.Series{
		{Date: day(2024, 1, 6), Amount: -1000},
		{Date: day(2024, 1, 8), Amount: 100},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2024, 1, 8))
	require.NoError(t, err)
	require.NotNil(t, res)

	// 1000 at price 20 buys 50 units; withdrawing 100 of the 1000 value
	// sells 10% of them.
	assert.InDelta(t, 45.0, res.UnitsHeld, 1e-9)
	assert.Equal(t, 20.0, res.LastPrice)
}

func TestReplay_TransactionAfterLastPriceUsesLatest(t *testing.T) {
	priceSeries := prices.Series{
		{Date: day(2024, 1, 1), Close: 10},
		{Date: day(2024, 2, 1), Close: 40},
	}
	series := cashflow.Series{
		{Date: day(2024, 3, 1), Amount: -400},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2024, 3, 1))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.InDelta(t, 10.0, res.UnitsHeld, 1e-9)
}

func TestReplay_SyntheticRateTracksIndex(t *testing.T) {
	// Index doubles over two years with a single investment: the synthetic
	// XIRR should be ~41.4% (sqrt(2)-1 annualized).
	priceSeries := prices.Series{
		{Date: day(2022, 1, 1), Close: 100},
		{Date: day(2024, 1, 1), Close: 200},
	}
	series := cashflow.Series{
		{Date: day(2022, 1, 1), Amount: -1000},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2024, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.XIRRPct)

	assert.InDelta(t, 2000.0, res.CurrentValue, 1e-6)
	assert.InDelta(t, 41.42, *res.XIRRPct, 0.2)
}

func TestReplay_UnsolvableSyntheticSeriesGivesNilRate(t *testing.T) {
	// Total benchmark wipeout: the synthetic series has no rate, but the
	// replay itself still succeeds.
	priceSeries := prices.Series{
		{Date: day(2022, 1, 1), Close: 1_000_000},
		{Date: day(2023, 1, 1), Close: 0.000001},
	}
	series := cashflow.Series{
		{Date: day(2022, 1, 1), Amount: -1_000_000},
	}

	res, err := testEngine().Replay(series, priceSeries, day(2023, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.XIRRPct)
}
