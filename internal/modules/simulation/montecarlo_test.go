package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/modules/sentiment"
)

// driftingPrices builds a mildly noisy upward series long enough for all
// four models. Deterministic, no RNG.
func driftingPrices(n int) []float64 {
	out := make([]float64, n)
	price := 50000.0
	for i := range out {
		step := 1.0 + 0.001 + 0.01*math.Sin(float64(i)*0.7)
		price *= step
		out[i] = price
	}
	return out
}

func fastOptions(ticker string) Options {
	return Options{
		NumSimulations: 500,
		Ticker:         ticker,
	}
}

func TestRunMonteCarloShortHistory(t *testing.T) {
	assert.Nil(t, RunMonteCarlo(driftingPrices(30), fastOptions("005930")))
	assert.Nil(t, RunMonteCarlo(nil, fastOptions("005930")))
}

func TestRunMonteCarloRejectsZeroVariance(t *testing.T) {
	prices := make([]float64, 100)
	for i := range prices {
		prices[i] = 50000
	}
	assert.Nil(t, RunMonteCarlo(prices, fastOptions("005930")))
}

func TestRunMonteCarloFiltersDirtyPrices(t *testing.T) {
	prices := driftingPrices(100)
	prices[10] = math.NaN()
	prices[20] = -5
	prices[30] = math.Inf(1)

	res := RunMonteCarlo(prices, fastOptions("005930"))
	require.NotNil(t, res)
	assert.Equal(t, 97, res.InputDaysUsed)
}

func TestRunMonteCarloEnsembleShape(t *testing.T) {
	res := RunMonteCarlo(driftingPrices(120), fastOptions("005930"))
	require.NotNil(t, res)

	require.NotNil(t, res.SimulationScore)
	assert.GreaterOrEqual(t, *res.SimulationScore, 0.0)
	assert.LessOrEqual(t, *res.SimulationScore, 100.0)
	require.NotNil(t, res.SimulationGrade)

	require.Len(t, res.Horizons, 4)
	for _, key := range []string{"21", "63", "126", "252"} {
		h, ok := res.Horizons[key]
		require.True(t, ok)
		assert.LessOrEqual(t, h.P5, h.P25)
		assert.LessOrEqual(t, h.P25, h.P50)
		assert.LessOrEqual(t, h.P50, h.P75)
		assert.LessOrEqual(t, h.P75, h.P95)
		assert.GreaterOrEqual(t, h.UpsideProb, 0.0)
		assert.LessOrEqual(t, h.UpsideProb, 1.0)
	}

	require.Len(t, res.TargetProbs, 3)
	probs, ok := res.TargetProbs["1.1"]
	require.True(t, ok)
	assert.NotEmpty(t, probs)

	require.NotNil(t, res.ModelBreakdown)
	assert.Equal(t, "weighted_pooling", res.ModelBreakdown.EnsembleMethod)
	assert.Len(t, res.ModelBreakdown.ModelScores, 4)
	weightSum := 0.0
	for _, w := range res.ModelBreakdown.ModelWeights {
		weightSum += w
	}
	assert.InDelta(t, 1.0, weightSum, 0.001)
}

func TestRunMonteCarloDeterministicPerTicker(t *testing.T) {
	prices := driftingPrices(120)
	a := RunMonteCarlo(prices, fastOptions("005930"))
	b := RunMonteCarlo(prices, fastOptions("005930"))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Horizons, b.Horizons)
	assert.Equal(t, a.SimulationScore, b.SimulationScore)

	c := RunMonteCarlo(prices, fastOptions("000660"))
	require.NotNil(t, c)
	assert.NotEqual(t, a.Horizons, c.Horizons)
}

func TestRunMonteCarloModelIsolation(t *testing.T) {
	// A model's output must not depend on which siblings run alongside it.
	prices := driftingPrices(120)

	solo := Options{NumSimulations: 500, Ticker: "005930", Models: []string{"gbm"}}
	all := fastOptions("005930")

	soloRes := RunMonteCarlo(prices, solo)
	allRes := RunMonteCarlo(prices, all)
	require.NotNil(t, soloRes)
	require.NotNil(t, allRes)

	// Single model fast path has no breakdown.
	assert.Nil(t, soloRes.ModelBreakdown)
	require.NotNil(t, allRes.ModelBreakdown)

	// Re-run gbm inside a different model subset: its per-model score must
	// match the full ensemble's and the solo fast path's pooled score.
	pair := Options{NumSimulations: 500, Ticker: "005930", Models: []string{"gbm", "merton"}}
	pairRes := RunMonteCarlo(prices, pair)
	require.NotNil(t, pairRes)
	require.NotNil(t, pairRes.ModelBreakdown)

	allGBM := modelScoreFor(t, allRes.ModelBreakdown, "gbm")
	pairGBM := modelScoreFor(t, pairRes.ModelBreakdown, "gbm")
	assert.Equal(t, allGBM, pairGBM)

	require.NotNil(t, soloRes.SimulationScore)
	assert.Equal(t, *soloRes.SimulationScore, *allGBM)
}

func modelScoreFor(t *testing.T, breakdown *ModelBreakdown, model string) *float64 {
	t.Helper()
	for _, s := range breakdown.ModelScores {
		if s.Model == model {
			require.NotNil(t, s.Score)
			return s.Score
		}
	}
	t.Fatalf("model %s missing from breakdown", model)
	return nil
}

func TestRunMonteCarloSentimentShiftsDrift(t *testing.T) {
	prices := driftingPrices(120)

	neutral := RunMonteCarlo(prices, fastOptions("005930"))

	bearish := sentiment.Adjustments{
		DriftAdjDaily: -0.10 / 252.0,
		VolMultiplier: 1.3,
		VarMultiplier: 1.69,
		ThetaMult:     1.69,
		V0Mult:        1.69,
		RhoAdj:        -0.08,
		LamMult:       2.0,
		MuJAdj:        -0.02,
		SigJMult:      1.4,
	}
	opts := fastOptions("005930")
	opts.Adjustments = &bearish
	adjusted := RunMonteCarlo(prices, opts)

	require.NotNil(t, neutral)
	require.NotNil(t, adjusted)
	assert.Less(t, adjusted.Horizons["126"].ExpectedReturnPct, neutral.Horizons["126"].ExpectedReturnPct)
}

func TestComputeScoreGrades(t *testing.T) {
	horizons := map[int]HorizonStats{
		63:  {ExpectedReturnPct: 8, Var5PctPct: -10, UpsideProb: 0.70},
		126: {ExpectedReturnPct: 15, Var5PctPct: -12, UpsideProb: 0.72},
	}
	score, grade := ComputeScore(horizons)
	require.NotNil(t, score)
	require.NotNil(t, grade)
	assert.Greater(t, *score, 50.0)

	// Missing 126d horizon blocks scoring.
	score, grade = ComputeScore(map[int]HorizonStats{63: horizons[63]})
	assert.Nil(t, score)
	assert.Nil(t, grade)
}

func TestComputeScoreBounds(t *testing.T) {
	bleak := map[int]HorizonStats{
		63:  {ExpectedReturnPct: -60, Var5PctPct: -70, UpsideProb: 0.01},
		126: {ExpectedReturnPct: -80, Var5PctPct: -85, UpsideProb: 0.01},
	}
	score, grade := ComputeScore(bleak)
	require.NotNil(t, score)
	assert.GreaterOrEqual(t, *score, 0.0)
	assert.Less(t, *score, 30.0)
	assert.Equal(t, "negative", *grade)
}

func TestModelSeedStability(t *testing.T) {
	assert.Equal(t, modelSeed("005930", "gbm"), modelSeed("005930", "gbm"))
	assert.NotEqual(t, modelSeed("005930", "gbm"), modelSeed("005930", "garch"))
	assert.NotEqual(t, modelSeed("005930", "gbm"), modelSeed("000660", "gbm"))
	assert.Less(t, modelSeed("005930", "gbm"), uint64(1)<<63)
	assert.Less(t, tickerSeed("005930"), uint64(1)<<32)
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 30.0, percentile(sorted, 0.5))
	assert.Equal(t, 10.0, percentile(sorted, 0))
	assert.Equal(t, 50.0, percentile(sorted, 1))
	assert.InDelta(t, 12.0, percentile(sorted, 0.05), 1e-9)
}

func TestMeanRevertingVariancePath(t *testing.T) {
	// Calm recent window inside a volatile history: the path should rise
	// toward the long-run variance.
	returns := make([]float64, 100)
	for i := 0; i < 80; i++ {
		returns[i] = 0.05
		if i%2 == 0 {
			returns[i] = -0.05
		}
	}
	for i := 80; i < 100; i++ {
		returns[i] = 0.001
		if i%2 == 0 {
			returns[i] = -0.001
		}
	}
	path := meanRevertingVariance(returns, 252, 0.94)
	require.NotNil(t, path)
	require.Len(t, path, 252)
	assert.Greater(t, path[251], path[0])
}
