package technical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeDisparityFlatSeries(t *testing.T) {
	res := ComputeDisparity(flat(120, 50000))

	require.NotNil(t, res.Disparity20d)
	assert.Equal(t, 100.0, *res.Disparity20d)
	require.NotNil(t, res.Disparity60d)
	assert.Equal(t, 100.0, *res.Disparity60d)
	require.NotNil(t, res.Disparity120d)
	assert.Equal(t, 100.0, *res.Disparity120d)
	assert.Equal(t, "neutral", res.Signal)
}

func TestComputeDisparityOverbought(t *testing.T) {
	// 19 flat days then a 10% jump: 20d SMA is 50500, price 55000.
	prices := append(flat(19, 50000), 55000)
	res := ComputeDisparity(prices)

	require.NotNil(t, res.Disparity20d)
	assert.InDelta(t, 108.91, *res.Disparity20d, 0.01)
	assert.Equal(t, "strong_overbought", res.Signal)
	assert.Nil(t, res.Disparity60d)
}

func TestComputeDisparityOversold(t *testing.T) {
	prices := append(flat(19, 50000), 45000)
	res := ComputeDisparity(prices)

	require.NotNil(t, res.Disparity20d)
	assert.Less(t, *res.Disparity20d, 92.0)
	assert.Equal(t, "strong_oversold", res.Signal)
}

func TestComputeDisparityEmpty(t *testing.T) {
	res := ComputeDisparity(nil)
	assert.Nil(t, res.Disparity20d)
	assert.Equal(t, "neutral", res.Signal)
}

func TestComputeBollingerSqueeze(t *testing.T) {
	// Tiny oscillation keeps the bands narrow.
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 10000
		if i%2 == 0 {
			prices[i] = 10010
		}
	}
	res := ComputeBollinger(prices)

	require.NotNil(t, res.Bandwidth)
	assert.Less(t, *res.Bandwidth, 10.0)
	assert.Equal(t, "squeeze", res.Signal)
}

func TestComputeBollingerUpperBreak(t *testing.T) {
	// Mild noise then a large spike on the last day.
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 10000 + float64(i%3)*10
	}
	prices[19] = 12000
	res := ComputeBollinger(prices)

	require.NotNil(t, res.PercentB)
	assert.Greater(t, *res.PercentB, 1.0)
	assert.Equal(t, "upper_break", res.Signal)
	require.NotNil(t, res.Upper)
	require.NotNil(t, res.Lower)
	assert.Greater(t, *res.Upper, *res.Lower)
}

func TestComputeBollingerCollapsedBands(t *testing.T) {
	res := ComputeBollinger(flat(20, 10000))

	require.NotNil(t, res.PercentB)
	assert.Equal(t, 0.5, *res.PercentB)
	assert.Equal(t, "squeeze", res.Signal)
}

func TestComputeBollingerShortHistory(t *testing.T) {
	res := ComputeBollinger(flat(10, 10000))
	assert.Nil(t, res.Upper)
	assert.Equal(t, "neutral", res.Signal)
}

func TestComputeMACDShortHistory(t *testing.T) {
	res := ComputeMACD(flat(30, 10000))
	assert.Nil(t, res.MACD)
	assert.Equal(t, "none", res.Crossover)
}

func TestComputeMACDUptrend(t *testing.T) {
	// Steady uptrend: fast EMA above slow EMA, positive MACD.
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 10000 + float64(i)*50
	}
	res := ComputeMACD(prices)

	require.NotNil(t, res.MACD)
	assert.Greater(t, *res.MACD, 0.0)
	require.NotNil(t, res.SignalLine)
	require.NotNil(t, res.Histogram)
}

func TestComputeMACDGoldenCross(t *testing.T) {
	// Long decline followed by a sharp recovery flips the histogram sign.
	prices := make([]float64, 120)
	for i := 0; i < 100; i++ {
		prices[i] = 20000 - float64(i)*100
	}
	for i := 100; i < 120; i++ {
		prices[i] = prices[99] + float64(i-99)*400
	}
	res := ComputeMACD(prices)

	require.NotNil(t, res.Histogram)
	assert.Greater(t, *res.Histogram, 0.0)

	// Walk the series day by day and require a golden cross somewhere in
	// the recovery leg.
	sawGolden := false
	for n := 40; n <= 120; n++ {
		if ComputeMACD(prices[:n]).Crossover == "golden_cross" {
			sawGolden = true
			break
		}
	}
	assert.True(t, sawGolden)
}
