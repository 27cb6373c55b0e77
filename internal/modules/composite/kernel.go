// Package composite synthesises the per-axis analysis results into the
// Whaleback Composite Score: a weighted multi-factor score with confluence
// and divergence detection across value, flow, momentum, forecast and
// sentiment.
package composite

import (
	"math"

	"github.com/rs/zerolog/log"
)

// DefaultWeights are the balanced axis weights.
var DefaultWeights = Weights{
	Value:     0.25,
	Flow:      0.25,
	Momentum:  0.20,
	Forecast:  0.20,
	Sentiment: 0.10,
}

// Weights hold the per-axis contribution to the composite.
type Weights struct {
	Value     float64 `json:"w_value"`
	Flow      float64 `json:"w_flow"`
	Momentum  float64 `json:"w_momentum"`
	Forecast  float64 `json:"w_forecast"`
	Sentiment float64 `json:"w_sentiment"`
}

// QuantInput feeds the value axis.
type QuantInput struct {
	FScore           *int
	SafetyMargin     *float64
	DataCompleteness float64
}

// WhaleInput feeds the flow axis.
type WhaleInput struct {
	WhaleScore *float64
}

// TrendInput feeds the momentum axis.
type TrendInput struct {
	RSPercentile   *int
	SectorQuadrant *string
}

// SimulationInput feeds the forecast axis.
type SimulationInput struct {
	SimulationScore *float64
}

// SentimentInput feeds the sentiment axis.
type SentimentInput struct {
	SentimentScore *float64
}

// ScoreResult is the composite outcome before confluence detection.
type ScoreResult struct {
	CompositeScore *float64 `json:"composite_score"`
	ValueScore     *float64 `json:"value_score"`
	FlowScore      *float64 `json:"flow_score"`
	MomentumScore  *float64 `json:"momentum_score"`
	ForecastScore  *float64 `json:"forecast_score"`
	SentimentScore *float64 `json:"sentiment_score"`
	WeightsUsed    Weights  `json:"weights_used"`
	Confidence     float64  `json:"confidence"`
	AxesAvailable  int      `json:"axes_available"`
}

// NormalizeFScore maps an F-Score (0-9) to 0-100 with a 1.3 exponent that
// rewards high scores while compressing the middle range.
func NormalizeFScore(fscore int) float64 {
	ratio := math.Max(float64(fscore), 0) / 9.0
	return round2(math.Pow(ratio, 1.3) * 100)
}

// NormalizeSafetyMargin maps the unbounded RIM margin percentage to 0-100
// via a sigmoid centered at zero. A missing margin scores neutral 50.
func NormalizeSafetyMargin(marginPct *float64) float64 {
	if marginPct == nil {
		return 50.0
	}
	clamped := math.Max(-500, math.Min(*marginPct, 500))
	return round2(100 / (1 + math.Exp(-clamped/25)))
}

// quadrantBonus adjusts the momentum axis by the RRG-style sector quadrant.
func quadrantBonus(quadrant *string) float64 {
	if quadrant == nil {
		return 0
	}
	switch *quadrant {
	case "leading":
		return 15
	case "improving":
		return 10
	case "weakening":
		return -5
	case "lagging":
		return -15
	default:
		return 0
	}
}

// ComputeScore combines the five axes into the composite. When fewer than
// five axes are available, their weights are redistributed proportionally
// among the available ones. A nil return field means that axis had no data.
func ComputeScore(quant *QuantInput, whale *WhaleInput, trend *TrendInput, sim *SimulationInput, sectorFlowBonus float64, weights *Weights, sent *SentimentInput) ScoreResult {
	w := DefaultWeights
	if weights != nil {
		w = *weights
	}

	var valueScore *float64
	if quant != nil && quant.FScore != nil {
		completeness := math.Min(quant.DataCompleteness, 1.0)
		raw := 0.55*NormalizeFScore(*quant.FScore) + 0.45*NormalizeSafetyMargin(quant.SafetyMargin)
		v := round2(raw * completeness)
		valueScore = &v
	}

	var flowScore *float64
	if whale != nil && whale.WhaleScore != nil {
		v := round2(*whale.WhaleScore)
		if sectorFlowBonus != 0 {
			v = round2(math.Max(0, math.Min(v+sectorFlowBonus, 100)))
		}
		flowScore = &v
	}

	var momentumScore *float64
	if trend != nil && trend.RSPercentile != nil {
		v := round2(math.Max(0, math.Min(float64(*trend.RSPercentile)+quadrantBonus(trend.SectorQuadrant), 100)))
		momentumScore = &v
	}

	var forecastScore *float64
	if sim != nil && sim.SimulationScore != nil {
		v := round2(*sim.SimulationScore)
		forecastScore = &v
	}

	var sentimentScore *float64
	if sent != nil && sent.SentimentScore != nil {
		v := round2(*sent.SentimentScore)
		sentimentScore = &v
	}

	type axis struct {
		weight float64
		score  *float64
	}
	axes := []axis{
		{w.Value, valueScore},
		{w.Flow, flowScore},
		{w.Momentum, momentumScore},
		{w.Forecast, forecastScore},
		{w.Sentiment, sentimentScore},
	}

	available := 0
	availableWeight := 0.0
	for _, a := range axes {
		if a.score != nil {
			available++
			availableWeight += a.weight
		}
	}

	if available == 0 {
		return ScoreResult{}
	}

	used := make([]float64, len(axes))
	for i, a := range axes {
		if a.score != nil && availableWeight > 0 {
			used[i] = round4(a.weight / availableWeight)
		}
	}

	composite := 0.0
	for i, a := range axes {
		if a.score != nil {
			composite += used[i] * *a.score
		}
	}
	compositeScore := round2(composite)

	return ScoreResult{
		CompositeScore: &compositeScore,
		ValueScore:     valueScore,
		FlowScore:      flowScore,
		MomentumScore:  momentumScore,
		ForecastScore:  forecastScore,
		SentimentScore: sentimentScore,
		WeightsUsed: Weights{
			Value: used[0], Flow: used[1], Momentum: used[2], Forecast: used[3], Sentiment: used[4],
		},
		Confidence:    round2(float64(available) / 5),
		AxesAvailable: available,
	}
}

// ClassifySignal maps a 0-100 sub-score to a discrete signal level.
func ClassifySignal(score *float64) string {
	if score == nil {
		return "unknown"
	}
	switch {
	case *score >= 75:
		return "strong_buy"
	case *score >= 60:
		return "buy"
	case *score >= 40:
		return "neutral"
	case *score >= 25:
		return "sell"
	default:
		return "strong_sell"
	}
}

// Tier classification bands for the composite score.
type TierInfo struct {
	Tier        string `json:"tier"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// ClassifyCompositeScore maps a composite score to a qualitative tier.
func ClassifyCompositeScore(score *float64) TierInfo {
	if score == nil {
		return TierInfo{"unknown", "분석 불가", "gray", "데이터 부족으로 종합 점수를 산출할 수 없습니다"}
	}
	switch {
	case *score >= 80:
		return TierInfo{"excellent", "최우량", "emerald", "가치·수급·모멘텀·전망이 모두 우수합니다"}
	case *score >= 65:
		return TierInfo{"good", "우량", "green", "대부분의 지표가 긍정적입니다"}
	case *score >= 50:
		return TierInfo{"fair", "양호", "blue", "전반적으로 무난한 수준입니다"}
	case *score >= 35:
		return TierInfo{"average", "보통", "yellow", "일부 지표에서 주의가 필요합니다"}
	case *score >= 20:
		return TierInfo{"caution", "주의", "orange", "다수 지표가 부정적입니다"}
	default:
		return TierInfo{"risk", "위험", "red", "대부분의 지표가 위험 신호를 보이고 있습니다"}
	}
}

// Profile is an investor weight preset with minimum eligibility filters.
type Profile struct {
	Weights    Weights
	Label      string
	MinFilters map[string]float64
}

// InvestorProfiles are the built-in weight presets.
var InvestorProfiles = map[string]Profile{
	"value": {
		Weights:    Weights{Value: 0.35, Flow: 0.20, Momentum: 0.15, Forecast: 0.20, Sentiment: 0.10},
		Label:      "가치 투자",
		MinFilters: map[string]float64{"fscore": 6, "safety_margin": 10},
	},
	"growth": {
		Weights:    Weights{Value: 0.20, Flow: 0.25, Momentum: 0.25, Forecast: 0.20, Sentiment: 0.10},
		Label:      "성장 투자",
		MinFilters: map[string]float64{"fscore": 5, "whale_score": 50},
	},
	"momentum": {
		Weights:    Weights{Value: 0.15, Flow: 0.25, Momentum: 0.25, Forecast: 0.25, Sentiment: 0.10},
		Label:      "모멘텀 투자",
		MinFilters: map[string]float64{"rs_percentile": 70},
	},
	"balanced": {
		Weights: DefaultWeights,
		Label:   "균형 투자",
	},
}

// ProfileResult is the outcome of a profile-weighted scoring pass.
type ProfileResult struct {
	Score        *float64        `json:"score"`
	Eligible     bool            `json:"eligible"`
	Profile      string          `json:"profile"`
	ProfileLabel string          `json:"profile_label"`
	FiltersMet   map[string]bool `json:"filters_met"`
}

// ComputeProfileScore reweights the composite by an investor profile and
// checks its minimum eligibility filters against the raw metrics.
func ComputeProfileScore(quant *QuantInput, whale *WhaleInput, trend *TrendInput, sim *SimulationInput, sectorFlowBonus float64, profile string) ProfileResult {
	prof, ok := InvestorProfiles[profile]
	if !ok {
		log.Warn().Str("profile", profile).Msg("unknown investor profile, falling back to balanced")
		profile = "balanced"
		prof = InvestorProfiles[profile]
	}

	result := ComputeScore(quant, whale, trend, sim, sectorFlowBonus, &prof.Weights, nil)

	filtersMet := make(map[string]bool, len(prof.MinFilters))
	eligible := true
	for filt, threshold := range prof.MinFilters {
		actual := extractFilterValue(filt, quant, whale, trend, sim)
		passed := actual != nil && *actual >= threshold
		filtersMet[filt] = passed
		if !passed {
			eligible = false
		}
	}

	return ProfileResult{
		Score:        result.CompositeScore,
		Eligible:     eligible,
		Profile:      profile,
		ProfileLabel: prof.Label,
		FiltersMet:   filtersMet,
	}
}

func extractFilterValue(filt string, quant *QuantInput, whale *WhaleInput, trend *TrendInput, sim *SimulationInput) *float64 {
	switch filt {
	case "fscore":
		if quant != nil && quant.FScore != nil {
			v := float64(*quant.FScore)
			return &v
		}
	case "safety_margin":
		if quant != nil {
			return quant.SafetyMargin
		}
	case "whale_score":
		if whale != nil {
			return whale.WhaleScore
		}
	case "rs_percentile":
		if trend != nil && trend.RSPercentile != nil {
			v := float64(*trend.RSPercentile)
			return &v
		}
	case "simulation_score":
		if sim != nil {
			return sim.SimulationScore
		}
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
