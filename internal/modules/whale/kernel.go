// Package whale implements the accumulation-flow axis: a 0-100 score over
// large-investor net purchase patterns and the signal classification.
package whale

import (
	"math"
	"sort"

	"github.com/whaleback/whaleback/internal/market"
)

// InvestorTypes are the investor classes tracked for whale analysis.
var InvestorTypes = []string{
	"institution_net",
	"foreign_net",
	"pension_net",
	"private_equity_net",
	"other_corp_net",
}

// Component holds one investor class's accumulation metrics.
type Component struct {
	NetTotal    int64   `json:"net_total"`
	BuyDays     int     `json:"buy_days"`
	SellDays    int     `json:"sell_days"`
	NeutralDays int     `json:"neutral_days"`
	Consistency float64 `json:"consistency"`
	Intensity   float64 `json:"intensity"`
	Score       float64 `json:"score"`
}

// Result is the whale score with per-class components.
type Result struct {
	WhaleScore   float64              `json:"whale_score"`
	Components   map[string]Component `json:"components"`
	Signal       string               `json:"signal"`
	LookbackDays int                  `json:"lookback_days"`
}

// ComputeScore computes the composite whale score over the last lookback days.
//
// Per class: consistency = buy_days / active_days, intensity = average daily
// net relative to average traded value capped at 1 (consistency*0.5 when the
// traded value is unknown), sub-score = 60*consistency + min(40, 40*intensity).
// The composite is 0.5*max + 0.5*mean over classes with any active day.
func ComputeScore(flows []market.InvestorFlow, avgDailyTradingValue float64, lookbackDays int) Result {
	if len(flows) == 0 {
		return emptyResult()
	}

	data := make([]market.InvestorFlow, len(flows))
	copy(data, flows)
	sort.Slice(data, func(i, j int) bool { return data[i].TradeDate.Before(data[j].TradeDate) })
	if lookbackDays > 0 && len(data) > lookbackDays {
		data = data[len(data)-lookbackDays:]
	}

	components := make(map[string]Component, len(InvestorTypes))
	subScores := make([]float64, 0, len(InvestorTypes))

	for _, investorType := range InvestorTypes {
		var netTotal int64
		buyDays, sellDays, activeDays := 0, 0, 0
		for i := range data {
			v, ok := data[i].Net(investorType)
			if !ok {
				continue
			}
			activeDays++
			netTotal += v
			if v > 0 {
				buyDays++
			} else if v < 0 {
				sellDays++
			}
		}

		if activeDays == 0 {
			components[investorType] = Component{}
			subScores = append(subScores, 0)
			continue
		}

		consistency := float64(buyDays) / float64(activeDays)

		var intensity float64
		if avgDailyTradingValue > 0 {
			avgNet := math.Abs(float64(netTotal)) / float64(activeDays)
			intensity = math.Min(avgNet/avgDailyTradingValue, 1.0)
		} else {
			intensity = consistency * 0.5
		}

		subScore := consistency*60 + math.Min(intensity*40, 40)

		components[investorType] = Component{
			NetTotal:    netTotal,
			BuyDays:     buyDays,
			SellDays:    sellDays,
			NeutralDays: activeDays - buyDays - sellDays,
			Consistency: round4(consistency),
			Intensity:   round4(intensity),
			Score:       round2(subScore),
		}
		subScores = append(subScores, subScore)
	}

	// Composite over classes with at least one buy or sell day.
	var active []float64
	for i, t := range InvestorTypes {
		c := components[t]
		if c.BuyDays+c.SellDays > 0 {
			active = append(active, subScores[i])
		}
	}

	var whaleScore float64
	if len(active) > 0 {
		maxScore, sum := active[0], 0.0
		for _, s := range active {
			if s > maxScore {
				maxScore = s
			}
			sum += s
		}
		whaleScore = maxScore*0.5 + sum/float64(len(active))*0.5
	}

	return Result{
		WhaleScore:   round2(whaleScore),
		Components:   components,
		Signal:       classifySignal(whaleScore, components),
		LookbackDays: len(data),
	}
}

func classifySignal(whaleScore float64, components map[string]Component) string {
	var totalNet int64
	for _, c := range components {
		totalNet += c.NetTotal
	}

	switch {
	case whaleScore >= 70:
		return "strong_accumulation"
	case whaleScore >= 50:
		return "mild_accumulation"
	case whaleScore >= 30:
		return "neutral"
	default:
		if totalNet < 0 {
			return "distribution"
		}
		return "neutral"
	}
}

func emptyResult() Result {
	components := make(map[string]Component, len(InvestorTypes))
	for _, t := range InvestorTypes {
		components[t] = Component{}
	}
	return Result{Components: components, Signal: "neutral"}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
