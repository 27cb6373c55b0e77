package composite

import "fmt"

var (
	buySignals  = map[string]bool{"strong_buy": true, "buy": true}
	sellSignals = map[string]bool{"strong_sell": true, "sell": true}
)

// ConfluenceResult describes signal agreement and conflicts across the
// value, flow, momentum and forecast axes.
type ConfluenceResult struct {
	ConfluenceTier     int     `json:"confluence_tier"`
	ConfluencePattern  string  `json:"confluence_pattern"`
	ValueSignal        string  `json:"value_signal"`
	FlowSignal         string  `json:"flow_signal"`
	MomentumSignal     string  `json:"momentum_signal"`
	ForecastSignal     string  `json:"forecast_signal"`
	DivergenceType     *string `json:"divergence_type"`
	DivergenceSeverity *string `json:"divergence_severity"`
	DivergenceLabel    *string `json:"divergence_label"`
	ActionLabel        string  `json:"action_label"`
	ActionDescription  string  `json:"action_description"`
}

// DetectConfluence grades agreement across the four directional axes.
//
// Tiers: 5 all known signals strongly aligned, 4 all aligned, 3 two strong
// signals with the rest neutral, 2 exactly one strong signal, 1 mixed.
// Divergence checks run in fixed priority order and report the first hit.
func DetectConfluence(valueScore, flowScore, momentumScore, forecastScore *float64) ConfluenceResult {
	vSig := ClassifySignal(valueScore)
	fSig := ClassifySignal(flowScore)
	mSig := ClassifySignal(momentumScore)
	fcSig := ClassifySignal(forecastScore)

	var known []string
	for _, s := range []string{vSig, fSig, mSig, fcSig} {
		if s != "unknown" {
			known = append(known, s)
		}
	}
	numKnown := len(known)

	buyCount, sellCount, strongBuy, strongSell := 0, 0, 0, 0
	for _, s := range known {
		if buySignals[s] {
			buyCount++
		}
		if sellSignals[s] {
			sellCount++
		}
		if s == "strong_buy" {
			strongBuy++
		}
		if s == "strong_sell" {
			strongSell++
		}
	}

	tier := 1
	direction := "neutral"
	switch {
	case numKnown >= 3 && strongBuy == numKnown:
		tier, direction = 5, "buy"
	case numKnown >= 3 && strongSell == numKnown:
		tier, direction = 5, "sell"
	case numKnown >= 3 && buyCount == numKnown:
		tier, direction = 4, "buy"
	case numKnown >= 3 && sellCount == numKnown:
		tier, direction = 4, "sell"
	case strongBuy >= 2 && numKnown-buyCount <= 1:
		tier, direction = 3, "buy"
	case strongSell >= 2 && numKnown-sellCount <= 1:
		tier, direction = 3, "sell"
	case strongBuy == 1 && sellCount == 0 && strongSell == 0:
		tier, direction = 2, "buy"
	case strongSell == 1 && buyCount == 0 && strongBuy == 0:
		tier, direction = 2, "sell"
	}

	res := ConfluenceResult{
		ConfluenceTier:    tier,
		ConfluencePattern: describePattern(tier, direction, numKnown),
		ValueSignal:       vSig,
		FlowSignal:        fSig,
		MomentumSignal:    mSig,
		ForecastSignal:    fcSig,
	}
	res.ActionLabel, res.ActionDescription = actionForTier(tier, direction)

	switch {
	case buySignals[vSig] && sellSignals[mSig]:
		res.setDivergence("value_momentum_divergence", "medium", "가치-모멘텀 괴리 (바닥 가능성)")
	case buySignals[mSig] && sellSignals[vSig]:
		res.setDivergence("momentum_value_divergence", "high", "모멘텀-가치 괴리 (과열 주의)")
	case buySignals[fSig] && sellSignals[vSig]:
		res.setDivergence("flow_value_divergence", "medium", "수급-가치 괴리 (테마주 가능성)")
	case buySignals[fcSig] && sellSignals[vSig]:
		res.setDivergence("forecast_value_divergence", "low", "전망-가치 괴리 (시뮬레이션 긍정적이나 가치 부족)")
	case sellSignals[fcSig] && buySignals[mSig]:
		res.setDivergence("forecast_momentum_divergence", "medium", "전망-모멘텀 괴리 (단기 강세이나 장기 불확실)")
	}

	return res
}

func (r *ConfluenceResult) setDivergence(divType, severity, label string) {
	r.DivergenceType = &divType
	r.DivergenceSeverity = &severity
	r.DivergenceLabel = &label
}

func describePattern(tier int, direction string, numKnown int) string {
	if numKnown == 0 {
		return "no_data"
	}
	prefix := "triple"
	if numKnown >= 4 {
		prefix = "quad"
	}
	switch tier {
	case 5:
		return fmt.Sprintf("%s_strong_%s", prefix, direction)
	case 4:
		return fmt.Sprintf("%s_%s", prefix, direction)
	case 3:
		return fmt.Sprintf("multi_strong_%s", direction)
	case 2:
		return fmt.Sprintf("single_strong_%s", direction)
	default:
		return "mixed"
	}
}

func actionForTier(tier int, direction string) (string, string) {
	switch tier {
	case 5:
		if direction == "buy" {
			return "적극 매수", "가치·수급·모멘텀·전망 모두 강한 매수 신호입니다"
		}
		return "적극 매도", "가치·수급·모멘텀·전망 모두 강한 매도 신호입니다"
	case 4:
		if direction == "buy" {
			return "매수 추천", "다수 축이 매수 방향을 가리킵니다"
		}
		return "매도 추천", "다수 축이 매도 방향을 가리킵니다"
	case 3:
		if direction == "buy" {
			return "매수 검토", "두 가지 이상의 강한 매수 신호가 있습니다"
		}
		return "매도 검토", "두 가지 이상의 강한 매도 신호가 있습니다"
	case 2:
		return "관심 편입", "강한 신호가 하나 감지되었습니다"
	default:
		return "관망", "명확한 방향성이 없어 추가 관찰이 필요합니다"
	}
}
