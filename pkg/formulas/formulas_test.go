package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
}

func TestReturns(t *testing.T) {
	assert.Empty(t, Returns([]float64{100}))

	returns := Returns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-9)
	assert.InDelta(t, -0.1, returns[1], 1e-9)

	// Zero entries are skipped, not divided by
	returns = Returns([]float64{100, 0, 50})
	assert.Len(t, returns, 1)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))

	vol := AnnualizedVolatility([]float64{0.01, -0.02, 0.015, 0.005})
	assert.Greater(t, vol, 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 110, 120}))

	// Peak 120, trough 90
	dd := MaxDrawdown([]float64{100, 120, 90, 110})
	assert.InDelta(t, -0.25, dd, 1e-9)
}

func TestSharpeRatio(t *testing.T) {
	assert.Nil(t, SharpeRatio([]float64{0.01}, 0, 252))
	assert.Nil(t, SharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 252))

	sharpe := SharpeRatio([]float64{0.01, -0.005, 0.02, 0.003}, 0, 252)
	require.NotNil(t, sharpe)
	assert.Greater(t, *sharpe, 0.0)
}

func TestRSI(t *testing.T) {
	assert.Nil(t, RSI([]float64{100, 101, 102}, 14))

	// A steadily rising series has a high RSI
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := RSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 70.0)
	assert.LessOrEqual(t, *rsi, 100.0)
}
