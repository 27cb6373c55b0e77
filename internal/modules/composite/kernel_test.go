package composite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func TestNormalizeFScore(t *testing.T) {
	assert.InDelta(t, 100.0, NormalizeFScore(9), 1e-9)
	assert.InDelta(t, 46.57, NormalizeFScore(5), 0.01)
	assert.InDelta(t, 72.13, NormalizeFScore(7), 0.01)
	assert.Equal(t, 0.0, NormalizeFScore(0))
	assert.Equal(t, 0.0, NormalizeFScore(-3))
}

func TestNormalizeSafetyMargin(t *testing.T) {
	assert.Equal(t, 50.0, NormalizeSafetyMargin(nil))
	assert.InDelta(t, 50.0, NormalizeSafetyMargin(fptr(0)), 1e-9)
	assert.InDelta(t, 23.15, NormalizeSafetyMargin(fptr(-30)), 0.01)
	assert.InDelta(t, 76.85, NormalizeSafetyMargin(fptr(30)), 0.01)

	// Extreme margins saturate instead of overflowing the sigmoid.
	assert.InDelta(t, 100.0, NormalizeSafetyMargin(fptr(5000)), 0.01)
	assert.InDelta(t, 0.0, NormalizeSafetyMargin(fptr(-5000)), 0.01)
}

func TestComputeScoreAllAxes(t *testing.T) {
	quant := &QuantInput{FScore: iptr(9), SafetyMargin: fptr(30), DataCompleteness: 1.0}
	whale := &WhaleInput{WhaleScore: fptr(80)}
	trend := &TrendInput{RSPercentile: iptr(70), SectorQuadrant: sptr("leading")}
	sim := &SimulationInput{SimulationScore: fptr(85)}
	sent := &SentimentInput{SentimentScore: fptr(60)}

	res := ComputeScore(quant, whale, trend, sim, 0, nil, sent)

	require.NotNil(t, res.CompositeScore)
	assert.Equal(t, 5, res.AxesAvailable)
	assert.Equal(t, 1.0, res.Confidence)

	require.NotNil(t, res.ValueScore)
	assert.InDelta(t, 89.58, *res.ValueScore, 0.01)
	require.NotNil(t, res.MomentumScore)
	assert.Equal(t, 85.0, *res.MomentumScore)

	// 0.25*89.58 + 0.25*80 + 0.20*85 + 0.20*85 + 0.10*60
	assert.InDelta(t, 82.4, *res.CompositeScore, 0.01)
	assert.Equal(t, DefaultWeights, res.WeightsUsed)
}

func TestComputeScoreWeightRedistribution(t *testing.T) {
	quant := &QuantInput{FScore: iptr(9), SafetyMargin: fptr(0), DataCompleteness: 1.0}
	whale := &WhaleInput{WhaleScore: fptr(60)}

	res := ComputeScore(quant, whale, nil, nil, 0, nil, nil)

	assert.Equal(t, 2, res.AxesAvailable)
	assert.Equal(t, 0.4, res.Confidence)
	assert.Equal(t, 0.5, res.WeightsUsed.Value)
	assert.Equal(t, 0.5, res.WeightsUsed.Flow)
	assert.Equal(t, 0.0, res.WeightsUsed.Momentum)

	// value = 0.55*100 + 0.45*50 = 77.5, composite = (77.5+60)/2
	require.NotNil(t, res.CompositeScore)
	assert.InDelta(t, 68.75, *res.CompositeScore, 0.01)
}

func TestComputeScoreNoData(t *testing.T) {
	res := ComputeScore(nil, nil, nil, nil, 0, nil, nil)
	assert.Nil(t, res.CompositeScore)
	assert.Equal(t, 0, res.AxesAvailable)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestComputeScoreSectorFlowBonusCapped(t *testing.T) {
	whale := &WhaleInput{WhaleScore: fptr(92)}
	res := ComputeScore(nil, whale, nil, nil, 15, nil, nil)
	require.NotNil(t, res.FlowScore)
	assert.Equal(t, 100.0, *res.FlowScore)
}

func TestComputeScoreMomentumClamped(t *testing.T) {
	trend := &TrendInput{RSPercentile: iptr(5), SectorQuadrant: sptr("lagging")}
	res := ComputeScore(nil, nil, trend, nil, 0, nil, nil)
	require.NotNil(t, res.MomentumScore)
	assert.Equal(t, 0.0, *res.MomentumScore)

	trend = &TrendInput{RSPercentile: iptr(95), SectorQuadrant: sptr("leading")}
	res = ComputeScore(nil, nil, trend, nil, 0, nil, nil)
	require.NotNil(t, res.MomentumScore)
	assert.Equal(t, 100.0, *res.MomentumScore)
}

func TestComputeScorePartialValueCompleteness(t *testing.T) {
	quant := &QuantInput{FScore: iptr(9), SafetyMargin: fptr(0), DataCompleteness: 0.5}
	res := ComputeScore(quant, nil, nil, nil, 0, nil, nil)
	require.NotNil(t, res.ValueScore)
	assert.InDelta(t, 38.75, *res.ValueScore, 0.01)
}

func TestClassifySignalBands(t *testing.T) {
	cases := []struct {
		score  *float64
		signal string
	}{
		{nil, "unknown"},
		{fptr(90), "strong_buy"},
		{fptr(75), "strong_buy"},
		{fptr(74.99), "buy"},
		{fptr(60), "buy"},
		{fptr(59.99), "neutral"},
		{fptr(40), "neutral"},
		{fptr(39.99), "sell"},
		{fptr(25), "sell"},
		{fptr(24.99), "strong_sell"},
		{fptr(0), "strong_sell"},
	}
	for _, c := range cases {
		assert.Equal(t, c.signal, ClassifySignal(c.score))
	}
}

func TestClassifyCompositeScoreTiers(t *testing.T) {
	assert.Equal(t, "unknown", ClassifyCompositeScore(nil).Tier)

	cases := []struct {
		score float64
		tier  string
		color string
	}{
		{85, "excellent", "emerald"},
		{70, "good", "green"},
		{55, "fair", "blue"},
		{40, "average", "yellow"},
		{25, "caution", "orange"},
		{10, "risk", "red"},
	}
	for _, c := range cases {
		info := ClassifyCompositeScore(fptr(c.score))
		assert.Equal(t, c.tier, info.Tier)
		assert.Equal(t, c.color, info.Color)
		assert.NotEmpty(t, info.Label)
	}
}

func TestDetectConfluenceQuadStrongBuy(t *testing.T) {
	// Four strong axes with sentiment unavailable: top confluence tier.
	res := DetectConfluence(fptr(90), fptr(80), fptr(82), fptr(85))

	assert.Equal(t, 5, res.ConfluenceTier)
	assert.Equal(t, "quad_strong_buy", res.ConfluencePattern)
	assert.Equal(t, "적극 매수", res.ActionLabel)
	assert.Nil(t, res.DivergenceType)
	assert.Equal(t, "strong_buy", res.ValueSignal)
	assert.Equal(t, "strong_buy", res.ForecastSignal)
}

func TestDetectConfluenceAligned(t *testing.T) {
	// All known signals buy-side but not all strong.
	res := DetectConfluence(fptr(65), fptr(80), fptr(62), nil)
	assert.Equal(t, 4, res.ConfluenceTier)
	assert.Equal(t, "triple_buy", res.ConfluencePattern)
	assert.Equal(t, "매수 추천", res.ActionLabel)
}

func TestDetectConfluenceTwoStrong(t *testing.T) {
	res := DetectConfluence(fptr(80), fptr(78), fptr(50), fptr(45))
	assert.Equal(t, 3, res.ConfluenceTier)
	assert.Equal(t, "multi_strong_buy", res.ConfluencePattern)
}

func TestDetectConfluenceSingleStrong(t *testing.T) {
	res := DetectConfluence(fptr(80), fptr(50), fptr(45), fptr(55))
	assert.Equal(t, 2, res.ConfluenceTier)
	assert.Equal(t, "single_strong_buy", res.ConfluencePattern)
	assert.Equal(t, "관심 편입", res.ActionLabel)
}

func TestDetectConfluenceMixed(t *testing.T) {
	res := DetectConfluence(fptr(80), fptr(20), fptr(50), fptr(50))
	assert.Equal(t, 1, res.ConfluenceTier)
	assert.Equal(t, "mixed", res.ConfluencePattern)
	assert.Equal(t, "관망", res.ActionLabel)
}

func TestDetectConfluenceSellSide(t *testing.T) {
	res := DetectConfluence(fptr(10), fptr(15), fptr(20), fptr(5))
	assert.Equal(t, 5, res.ConfluenceTier)
	assert.Equal(t, "quad_strong_sell", res.ConfluencePattern)
	assert.Equal(t, "적극 매도", res.ActionLabel)
}

func TestDetectConfluenceNoData(t *testing.T) {
	res := DetectConfluence(nil, nil, nil, nil)
	assert.Equal(t, 1, res.ConfluenceTier)
	assert.Equal(t, "no_data", res.ConfluencePattern)
}

func TestDetectConfluenceDivergencePriority(t *testing.T) {
	// Cheap stock still falling: value-momentum divergence.
	res := DetectConfluence(fptr(80), fptr(50), fptr(20), fptr(50))
	require.NotNil(t, res.DivergenceType)
	assert.Equal(t, "value_momentum_divergence", *res.DivergenceType)
	assert.Equal(t, "medium", *res.DivergenceSeverity)

	// Expensive stock running hot: overheating warning ranks high.
	res = DetectConfluence(fptr(20), fptr(50), fptr(80), fptr(50))
	require.NotNil(t, res.DivergenceType)
	assert.Equal(t, "momentum_value_divergence", *res.DivergenceType)
	assert.Equal(t, "high", *res.DivergenceSeverity)

	// Buying pressure without fundamentals.
	res = DetectConfluence(fptr(20), fptr(80), fptr(50), fptr(50))
	require.NotNil(t, res.DivergenceType)
	assert.Equal(t, "flow_value_divergence", *res.DivergenceType)

	// Forecast positive against weak value only.
	res = DetectConfluence(fptr(20), fptr(50), fptr(50), fptr(80))
	require.NotNil(t, res.DivergenceType)
	assert.Equal(t, "forecast_value_divergence", *res.DivergenceType)
	assert.Equal(t, "low", *res.DivergenceSeverity)

	// Short-term strength with a poor long-term outlook.
	res = DetectConfluence(fptr(50), fptr(50), fptr(80), fptr(20))
	require.NotNil(t, res.DivergenceType)
	assert.Equal(t, "forecast_momentum_divergence", *res.DivergenceType)
}

func TestComputeProfileScoreValueEligible(t *testing.T) {
	quant := &QuantInput{FScore: iptr(7), SafetyMargin: fptr(15), DataCompleteness: 1.0}
	whale := &WhaleInput{WhaleScore: fptr(60)}

	res := ComputeProfileScore(quant, whale, nil, nil, 0, "value")

	assert.True(t, res.Eligible)
	assert.Equal(t, "value", res.Profile)
	assert.Equal(t, "가치 투자", res.ProfileLabel)
	assert.True(t, res.FiltersMet["fscore"])
	assert.True(t, res.FiltersMet["safety_margin"])
	require.NotNil(t, res.Score)
}

func TestComputeProfileScoreValueIneligible(t *testing.T) {
	quant := &QuantInput{FScore: iptr(5), SafetyMargin: fptr(15), DataCompleteness: 1.0}
	res := ComputeProfileScore(quant, nil, nil, nil, 0, "value")
	assert.False(t, res.Eligible)
	assert.False(t, res.FiltersMet["fscore"])
	assert.True(t, res.FiltersMet["safety_margin"])
}

func TestComputeProfileScoreMissingFilterMetric(t *testing.T) {
	// No RS percentile means the momentum filter cannot pass.
	res := ComputeProfileScore(nil, &WhaleInput{WhaleScore: fptr(80)}, nil, nil, 0, "momentum")
	assert.False(t, res.Eligible)
	assert.False(t, res.FiltersMet["rs_percentile"])
}

func TestComputeProfileScoreUnknownFallsBack(t *testing.T) {
	res := ComputeProfileScore(nil, &WhaleInput{WhaleScore: fptr(80)}, nil, nil, 0, "contrarian")
	assert.Equal(t, "balanced", res.Profile)
	assert.True(t, res.Eligible)
}

func TestNewSnapshotFlattens(t *testing.T) {
	score := ComputeScore(
		&QuantInput{FScore: iptr(9), SafetyMargin: fptr(30), DataCompleteness: 1.0},
		&WhaleInput{WhaleScore: fptr(80)},
		&TrendInput{RSPercentile: iptr(70), SectorQuadrant: sptr("leading")},
		&SimulationInput{SimulationScore: fptr(85)},
		0, nil, nil)
	conf := DetectConfluence(score.ValueScore, score.FlowScore, score.MomentumScore, score.ForecastScore)
	tier := ClassifyCompositeScore(score.CompositeScore)

	day := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	snap := NewSnapshot(day, "005930", score, conf, tier)

	assert.Equal(t, day, snap.TradeDate)
	assert.Equal(t, "005930", snap.Ticker)
	assert.Equal(t, score.CompositeScore, snap.CompositeScore)
	require.NotNil(t, snap.AxesAvailable)
	assert.Equal(t, 4, *snap.AxesAvailable)
	require.NotNil(t, snap.ConfluenceTier)
	assert.Equal(t, 5, *snap.ConfluenceTier)
	require.NotNil(t, snap.ScoreTier)
	assert.Equal(t, tier.Tier, *snap.ScoreTier)
	assert.Nil(t, snap.DivergenceType)
}
