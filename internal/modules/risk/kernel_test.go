package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternating(n int, base, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base
		if i%2 == 1 {
			out[i] = base + step
		}
	}
	return out
}

func TestComputeVolatilityFlatSeries(t *testing.T) {
	prices := make([]float64, 70)
	for i := range prices {
		prices[i] = 10000
	}
	res := ComputeVolatility(prices)

	require.NotNil(t, res.Volatility20d)
	assert.Equal(t, 0.0, *res.Volatility20d)
	require.NotNil(t, res.Volatility60d)
	assert.Equal(t, "low", res.RiskLevel)
	assert.Nil(t, res.Volatility1y)
}

func TestComputeVolatilityHighSwing(t *testing.T) {
	// 10% daily swings annualize way past the very_high threshold.
	res := ComputeVolatility(alternating(70, 10000, 1000))

	require.NotNil(t, res.Volatility60d)
	assert.Greater(t, *res.Volatility60d, 60.0)
	assert.Equal(t, "very_high", res.RiskLevel)
}

func TestComputeVolatilityShortHistory(t *testing.T) {
	res := ComputeVolatility([]float64{10000})
	assert.Equal(t, "unknown", res.RiskLevel)
	assert.Nil(t, res.Volatility20d)
}

func TestComputeBetaMirrorsMarket(t *testing.T) {
	// Stock returns exactly track the index: beta 1.
	index := make([]float64, 80)
	stock := make([]float64, 80)
	for i := range index {
		index[i] = 1000 * math.Pow(1.01, float64(i%5))
		stock[i] = 50 * math.Pow(1.01, float64(i%5))
	}
	res := ComputeBeta(stock, index)

	require.NotNil(t, res.Beta60d)
	assert.InDelta(t, 1.0, *res.Beta60d, 1e-6)
	assert.Equal(t, "neutral", res.Interpretation)
	assert.Nil(t, res.Beta252d)
}

func TestComputeBetaLeveraged(t *testing.T) {
	// Stock moves twice the index return each day.
	index := make([]float64, 80)
	stock := make([]float64, 80)
	index[0], stock[0] = 1000, 1000
	for i := 1; i < 80; i++ {
		r := 0.01
		if i%2 == 0 {
			r = -0.008
		}
		index[i] = index[i-1] * (1 + r)
		stock[i] = stock[i-1] * (1 + 2*r)
	}
	res := ComputeBeta(stock, index)

	require.NotNil(t, res.Beta60d)
	assert.InDelta(t, 2.0, *res.Beta60d, 0.05)
	assert.Equal(t, "highly_aggressive", res.Interpretation)
}

func TestComputeBetaTrimsMismatched(t *testing.T) {
	stock := alternating(100, 1000, 20)
	index := alternating(70, 2000, 40)
	res := ComputeBeta(stock, index)
	require.NotNil(t, res.Beta60d)
}

func TestComputeBetaFlatMarket(t *testing.T) {
	index := make([]float64, 80)
	for i := range index {
		index[i] = 1000
	}
	res := ComputeBeta(alternating(80, 1000, 100), index)
	assert.Nil(t, res.Beta60d)
	assert.Equal(t, "unknown", res.Interpretation)
}

func TestComputeMaxDrawdown(t *testing.T) {
	// Rise to 12000, fall to 9000, recover to 10000.
	prices := make([]float64, 0, 60)
	for i := 0; i < 20; i++ {
		prices = append(prices, 10000+float64(i)*100)
	}
	for i := 0; i < 20; i++ {
		prices = append(prices, 11900-float64(i)*150)
	}
	for i := 0; i < 20; i++ {
		prices = append(prices, 9050+float64(i)*50)
	}
	res := ComputeMaxDrawdown(prices)

	require.NotNil(t, res.MDD60d)
	assert.InDelta(t, (9050-11900)/11900.0, *res.MDD60d, 1e-4)
	require.NotNil(t, res.CurrentDrawdown)
	assert.Less(t, *res.CurrentDrawdown, -0.15)
	assert.Equal(t, "하락 지속", res.RecoveryLabel)
	assert.Nil(t, res.MDD1y)
}

func TestComputeMaxDrawdownAtHigh(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 10000 + float64(i)*10
	}
	res := ComputeMaxDrawdown(prices)

	require.NotNil(t, res.MDD60d)
	assert.Equal(t, 0.0, *res.MDD60d)
	require.NotNil(t, res.CurrentDrawdown)
	assert.Equal(t, 0.0, *res.CurrentDrawdown)
	assert.Equal(t, "회복", res.RecoveryLabel)
}

func TestComputeMaxDrawdownShortHistory(t *testing.T) {
	res := ComputeMaxDrawdown([]float64{10000})
	assert.Nil(t, res.CurrentDrawdown)
	assert.Equal(t, "알 수 없음", res.RecoveryLabel)
}
