package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func uniformArticles(n int, raw float64) []ScoredArticle {
	out := make([]ScoredArticle, n)
	for i := range out {
		out[i] = ScoredArticle{
			SentimentRaw:     raw,
			PublishedAt:      now,
			ImportanceWeight: 1.0,
			SourceType:       "general",
			ArticleType:      "general",
		}
	}
	return out
}

func TestComputeScoreAgreedPositive(t *testing.T) {
	// Five identical positive articles: full confidence, positive direction.
	score := ComputeScore(uniformArticles(5, 0.6), 3.0, 2)

	assert.Equal(t, "active", score.Status)
	assert.InDelta(t, 0.6, score.Direction, 1e-9)
	assert.Equal(t, 1.0, score.Confidence)
	assert.Greater(t, score.EffectiveScore, 0.15)
	assert.Contains(t, []string{"buy", "strong_buy"}, score.Signal)
	assert.Equal(t, 5, score.ArticleCount)
	assert.Greater(t, score.SentimentScore, 50.0)
}

func TestComputeScoreNoData(t *testing.T) {
	score := ComputeScore(nil, 3.0, 2)
	assert.Equal(t, "no_data", score.Status)
	assert.Equal(t, 50.0, score.SentimentScore)
	assert.Equal(t, "neutral", score.Signal)
}

func TestComputeScoreInsufficient(t *testing.T) {
	score := ComputeScore(uniformArticles(1, 0.9), 3.0, 2)
	assert.Equal(t, "insufficient", score.Status)
	assert.Greater(t, score.Direction, 0.0)
}

func TestComputeScoreDisagreementLowersConfidence(t *testing.T) {
	articles := uniformArticles(6, 0.9)
	for i := 0; i < 3; i++ {
		articles[i].SentimentRaw = -0.9
	}
	score := ComputeScore(articles, 3.0, 2)

	assert.Less(t, score.Confidence, 0.2)
	assert.Equal(t, "neutral", score.Signal)
}

func TestComputeScoreTimeDecayFavoursRecent(t *testing.T) {
	// An old negative article against a fresh positive one of equal weight.
	articles := []ScoredArticle{
		{SentimentRaw: -0.8, PublishedAt: now.AddDate(0, 0, -10), ImportanceWeight: 1, SourceType: "general", ArticleType: "general"},
		{SentimentRaw: 0.8, PublishedAt: now, ImportanceWeight: 1, SourceType: "general", ArticleType: "general"},
	}
	score := ComputeScore(articles, 3.0, 2)
	assert.Greater(t, score.Direction, 0.0)
}

func TestComputeScoreSourceWeighting(t *testing.T) {
	// Financial disclosure outweighs a portal blurb of opposite sign.
	articles := []ScoredArticle{
		{SentimentRaw: 0.5, PublishedAt: now, ImportanceWeight: 1, SourceType: "financial", ArticleType: "disclosure"},
		{SentimentRaw: -0.5, PublishedAt: now, ImportanceWeight: 1, SourceType: "portal", ArticleType: "general"},
	}
	score := ComputeScore(articles, 3.0, 2)
	assert.Greater(t, score.Direction, 0.0)
}

func TestClassifySignalBands(t *testing.T) {
	tests := []struct {
		s    float64
		want string
	}{
		{0.5, "strong_buy"},
		{0.4, "strong_buy"},
		{0.2, "buy"},
		{0.0, "neutral"},
		{-0.15, "neutral"},
		{-0.2, "sell"},
		{-0.5, "strong_sell"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySignal(tt.s))
	}
}

func TestComputeAdjustmentsNeutralOnInsufficient(t *testing.T) {
	adj := ComputeAdjustments(neutralScore(1, "insufficient"), DefaultParams())
	assert.Equal(t, NeutralAdjustments(), adj)
}

func TestComputeAdjustmentsPositiveSentiment(t *testing.T) {
	score := ComputeScore(uniformArticles(10, 0.8), 3.0, 2)
	adj := ComputeAdjustments(score, DefaultParams())

	assert.Greater(t, adj.DriftAdjDaily, 0.0)
	assert.LessOrEqual(t, adj.DriftAdjDaily, 0.10/252.0)
	assert.Less(t, adj.VolMultiplier, 1.0)
	assert.GreaterOrEqual(t, adj.VolMultiplier, 0.70)
	assert.Equal(t, 0.0, adj.RhoAdj)
	assert.Equal(t, 1.0, adj.LamMult)
	assert.Equal(t, 0.0, adj.MuJAdj)
}

func TestComputeAdjustmentsNegativeSentiment(t *testing.T) {
	score := ComputeScore(uniformArticles(10, -0.9), 3.0, 2)
	adj := ComputeAdjustments(score, DefaultParams())

	assert.Less(t, adj.DriftAdjDaily, 0.0)
	assert.Greater(t, adj.VolMultiplier, 1.0)
	assert.LessOrEqual(t, adj.VolMultiplier, 1.50)
	assert.InDelta(t, adj.VolMultiplier*adj.VolMultiplier, adj.VarMultiplier, 1e-12)
	assert.Less(t, adj.RhoAdj, 0.0)
	assert.Greater(t, adj.LamMult, 1.0)
	assert.Less(t, adj.MuJAdj, 0.0)
	assert.Greater(t, adj.SigJMult, 1.0)
}

func TestEnsembleWeightsSumToOne(t *testing.T) {
	for _, s := range []float64{-1, -0.5, 0, 0.5, 1} {
		weights := computeEnsembleWeights(s)
		require.Len(t, weights, 4)
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestEnsembleWeightsTilt(t *testing.T) {
	bearish := computeEnsembleWeights(-0.8)
	bullish := computeEnsembleWeights(0.8)

	assert.Greater(t, bearish["merton"], BaseEnsembleWeights["merton"])
	assert.Greater(t, bullish["gbm"], BaseEnsembleWeights["gbm"])
	assert.Less(t, bullish["merton"], bearish["merton"])

	neutral := computeEnsembleWeights(0)
	for model, base := range BaseEnsembleWeights {
		assert.False(t, math.IsNaN(neutral[model]))
		assert.InDelta(t, base, neutral[model], 0.05)
	}
}
