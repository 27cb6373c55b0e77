// Package flow implements the behavioural flow axis: retail contrarian
// extremes, smart/dumb money divergence, and institutional momentum shifts.
package flow

import (
	"math"
	"sort"

	"github.com/whaleback/whaleback/internal/market"
)

// RetailResult holds the retail contrarian metrics.
type RetailResult struct {
	RetailZ           float64 `json:"retail_z"`
	RetailIntensity   float64 `json:"retail_intensity"`
	RetailConsistency float64 `json:"retail_consistency"`
	Signal            string  `json:"signal"`
	LookbackDays      int     `json:"lookback_days"`
}

// ComputeRetailContrarian detects extreme retail positioning.
//
// Intensity is the lookback-window individual net normalised by traded
// value. The Z-score compares the latest rolling-window intensity against
// the distribution of all rolling windows; it needs at least 60 days of
// history and is 0 otherwise. Z > 2 flags extreme buying (contrarian sell),
// Z < -2 extreme selling (contrarian buy).
func ComputeRetailContrarian(flows []market.InvestorFlow, avgDailyTradingValue float64, lookbackDays int) RetailResult {
	if len(flows) == 0 {
		return RetailResult{Signal: "neutral"}
	}

	sorted := sortByDate(flows)
	data := tail(sorted, lookbackDays)

	var netTotal int64
	buyDays := 0
	for i := range data {
		v, _ := data[i].Net("individual_net")
		netTotal += v
		if v > 0 {
			buyDays++
		}
	}

	var intensity float64
	if avgDailyTradingValue > 0 {
		intensity = float64(netTotal) / (avgDailyTradingValue * float64(lookbackDays))
	}

	consistency := float64(buyDays) / float64(len(data))

	z := retailZScore(sorted, avgDailyTradingValue, lookbackDays)

	signal := "neutral"
	if z > 2.0 {
		signal = "extreme_buying"
	} else if z < -2.0 {
		signal = "extreme_selling"
	}

	return RetailResult{
		RetailZ:           round2(z),
		RetailIntensity:   round4(intensity),
		RetailConsistency: round4(consistency),
		Signal:            signal,
		LookbackDays:      len(data),
	}
}

// retailZScore computes the Z-score of the newest rolling-window intensity.
// Population variance over all windows, matching the snapshot history.
func retailZScore(sorted []market.InvestorFlow, avgDailyTradingValue float64, windowSize int) float64 {
	if len(sorted) < 60 || avgDailyTradingValue <= 0 || windowSize <= 0 {
		return 0
	}

	var intensities []float64
	for i := 0; i+windowSize <= len(sorted); i++ {
		var net int64
		for j := i; j < i+windowSize; j++ {
			v, _ := sorted[j].Net("individual_net")
			net += v
		}
		intensities = append(intensities, float64(net)/(avgDailyTradingValue*float64(windowSize)))
	}

	if len(intensities) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range intensities {
		mean += v
	}
	mean /= float64(len(intensities))

	variance := 0.0
	for _, v := range intensities {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(intensities))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return (intensities[len(intensities)-1] - mean) / std
}

// DivergenceResult holds the smart/dumb money divergence metrics.
type DivergenceResult struct {
	DivergenceScore float64 `json:"divergence_score"`
	SmartRatio      float64 `json:"smart_ratio"`
	DumbRatio       float64 `json:"dumb_ratio"`
	Signal          string  `json:"signal"`
	LookbackDays    int     `json:"lookback_days"`
}

// ComputeSmartDumbDivergence compares institutional against retail flow.
// Smart money is institution + foreign + pension; dumb money is individual.
// Both are normalised by traded value over the lookback window.
func ComputeSmartDumbDivergence(flows []market.InvestorFlow, avgDailyTradingValue float64, lookbackDays int) DivergenceResult {
	if len(flows) == 0 {
		return DivergenceResult{Signal: "mixed"}
	}

	data := tail(sortByDate(flows), lookbackDays)

	var smart, dumb int64
	for i := range data {
		for _, class := range []string{"institution_net", "foreign_net", "pension_net"} {
			v, _ := data[i].Net(class)
			smart += v
		}
		v, _ := data[i].Net("individual_net")
		dumb += v
	}

	var smartRatio, dumbRatio float64
	if avgDailyTradingValue > 0 {
		denominator := avgDailyTradingValue * float64(lookbackDays)
		smartRatio = float64(smart) / denominator
		dumbRatio = float64(dumb) / denominator
	}

	divergence := smartRatio - dumbRatio

	signal := "mixed"
	if divergence > 0.5 {
		signal = "smart_accumulation"
	} else if divergence < -0.5 {
		signal = "smart_distribution"
	}

	return DivergenceResult{
		DivergenceScore: round4(divergence),
		SmartRatio:      round4(smartRatio),
		DumbRatio:       round4(dumbRatio),
		Signal:          signal,
		LookbackDays:    len(data),
	}
}

// ShiftComponent holds one investor class's momentum shift metrics.
type ShiftComponent struct {
	FlowShort    int64   `json:"flow_short"`
	FlowLong     int64   `json:"flow_long"`
	ReversalType string  `json:"reversal_type"`
	Strength     float64 `json:"strength"`
	Score        float64 `json:"score"`
}

// ShiftResult is the flow momentum shift outcome.
type ShiftResult struct {
	ShiftScore float64                   `json:"shift_score"`
	Components map[string]ShiftComponent `json:"components"`
	Signal     string                    `json:"overall_signal"`
}

var shiftInvestorTypes = []string{"institution_net", "foreign_net", "pension_net"}

// ComputeFlowMomentumShift detects sign reversals between the short window
// (default 5 days) and the long window (default 60 days) for each
// institutional class. Strength is the short flow against the long flow
// normalised to the short timeframe, capped at 2. The composite is
// 0.6*max + 0.4*mean of the class sub-scores.
func ComputeFlowMomentumShift(flows []market.InvestorFlow, lookbackShort, lookbackLong int) ShiftResult {
	if len(flows) == 0 || len(flows) < lookbackShort {
		return emptyShiftResult()
	}

	data := sortByDate(flows)
	shortWindow := tail(data, lookbackShort)
	longWindow := tail(data, lookbackLong)

	components := make(map[string]ShiftComponent, len(shiftInvestorTypes))
	subScores := make([]float64, 0, len(shiftInvestorTypes))

	for _, investorType := range shiftInvestorTypes {
		var flowShort, flowLong int64
		for i := range shortWindow {
			v, _ := shortWindow[i].Net(investorType)
			flowShort += v
		}
		for i := range longWindow {
			v, _ := longWindow[i].Net(investorType)
			flowLong += v
		}

		reversal := "none"
		if flowShort > 0 && flowLong < 0 {
			reversal = "bullish_reversal"
		} else if flowShort < 0 && flowLong > 0 {
			reversal = "bearish_reversal"
		}

		var strength float64
		if reversal != "none" && flowLong != 0 {
			normalizedLong := math.Abs(float64(flowLong)) / (float64(len(longWindow)) / float64(len(shortWindow)))
			if normalizedLong > 0 {
				strength = math.Min(math.Abs(float64(flowShort))/normalizedLong, 2.0)
			}
		}

		var subScore float64
		if reversal != "none" {
			subScore = strength * 50.0
		}

		components[investorType] = ShiftComponent{
			FlowShort:    flowShort,
			FlowLong:     flowLong,
			ReversalType: reversal,
			Strength:     round4(strength),
			Score:        round2(subScore),
		}
		subScores = append(subScores, subScore)
	}

	maxScore, sum := subScores[0], 0.0
	for _, s := range subScores {
		if s > maxScore {
			maxScore = s
		}
		sum += s
	}
	shiftScore := maxScore*0.6 + sum/float64(len(subScores))*0.4

	return ShiftResult{
		ShiftScore: round2(shiftScore),
		Components: components,
		Signal:     classifyShiftSignal(shiftScore, components),
	}
}

func classifyShiftSignal(shiftScore float64, components map[string]ShiftComponent) string {
	bullish, bearish := 0, 0
	for _, c := range components {
		switch c.ReversalType {
		case "bullish_reversal":
			bullish++
		case "bearish_reversal":
			bearish++
		}
	}

	switch {
	case shiftScore >= 40:
		if bullish > bearish {
			return "strong_bullish_shift"
		}
		if bearish > bullish {
			return "strong_bearish_shift"
		}
		return "strong_shift"
	case shiftScore >= 20:
		if bullish > bearish {
			return "mild_bullish_shift"
		}
		if bearish > bullish {
			return "mild_bearish_shift"
		}
		return "mild_shift"
	default:
		return "no_shift"
	}
}

func emptyShiftResult() ShiftResult {
	components := make(map[string]ShiftComponent, len(shiftInvestorTypes))
	for _, t := range shiftInvestorTypes {
		components[t] = ShiftComponent{ReversalType: "none"}
	}
	return ShiftResult{Components: components, Signal: "no_shift"}
}

func sortByDate(flows []market.InvestorFlow) []market.InvestorFlow {
	out := make([]market.InvestorFlow, len(flows))
	copy(out, flows)
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out
}

func tail(flows []market.InvestorFlow, n int) []market.InvestorFlow {
	if n > 0 && len(flows) > n {
		return flows[len(flows)-n:]
	}
	return flows
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
