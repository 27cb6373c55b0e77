// Package risk implements volatility, beta and drawdown analytics.
package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252

// VolatilityResult holds annualized volatility per window and a risk level.
type VolatilityResult struct {
	Volatility20d *float64 `json:"volatility_20d"`
	Volatility60d *float64 `json:"volatility_60d"`
	Volatility1y  *float64 `json:"volatility_1y"`
	RiskLevel     string   `json:"risk_level"`
	RiskLabel     string   `json:"risk_label"`
}

// ComputeVolatility computes annualized return volatility over the 20, 60
// and 252 day windows. Sample standard deviation, annualized by sqrt(252)
// and expressed as a percentage. The risk level follows the 60-day value
// at the 20/40/60 thresholds.
func ComputeVolatility(prices []float64) VolatilityResult {
	res := VolatilityResult{RiskLevel: "unknown", RiskLabel: "알 수 없음"}
	if len(prices) < 2 {
		return res
	}

	returns := dailyReturns(prices)
	if len(returns) == 0 {
		return res
	}

	vol := func(period int) *float64 {
		if len(returns) < period {
			return nil
		}
		window := returns[len(returns)-period:]
		v := round4(stat.StdDev(window, nil) * math.Sqrt(tradingDaysPerYear) * 100)
		return &v
	}
	res.Volatility20d = vol(20)
	res.Volatility60d = vol(60)
	res.Volatility1y = vol(tradingDaysPerYear)

	if res.Volatility60d != nil {
		switch v := *res.Volatility60d; {
		case v < 20:
			res.RiskLevel, res.RiskLabel = "low", "저변동"
		case v < 40:
			res.RiskLevel, res.RiskLabel = "medium", "보통"
		case v < 60:
			res.RiskLevel, res.RiskLabel = "high", "고변동"
		default:
			res.RiskLevel, res.RiskLabel = "very_high", "초고변동"
		}
	}
	return res
}

// BetaResult holds market sensitivity per window and an interpretation.
type BetaResult struct {
	Beta60d             *float64 `json:"beta_60d"`
	Beta252d            *float64 `json:"beta_252d"`
	Interpretation      string   `json:"interpretation"`
	InterpretationLabel string   `json:"interpretation_label"`
}

// ComputeBeta computes Cov(stock, market) / Var(market) over the 60 and 252
// day windows. Mismatched series are trimmed to the common tail. The
// interpretation follows the 60-day beta at the 0.8/1.2/1.5 thresholds.
func ComputeBeta(stockPrices, indexPrices []float64) BetaResult {
	res := BetaResult{Interpretation: "unknown", InterpretationLabel: "알 수 없음"}
	if len(stockPrices) == 0 || len(indexPrices) == 0 {
		return res
	}

	if len(stockPrices) != len(indexPrices) {
		n := min(len(stockPrices), len(indexPrices))
		stockPrices = stockPrices[len(stockPrices)-n:]
		indexPrices = indexPrices[len(indexPrices)-n:]
	}
	if len(stockPrices) < 2 {
		return res
	}

	var stockReturns, indexReturns []float64
	for i := 1; i < len(stockPrices); i++ {
		if stockPrices[i-1] > 0 && indexPrices[i-1] > 0 {
			stockReturns = append(stockReturns, (stockPrices[i]-stockPrices[i-1])/stockPrices[i-1])
			indexReturns = append(indexReturns, (indexPrices[i]-indexPrices[i-1])/indexPrices[i-1])
		}
	}
	if len(stockReturns) == 0 {
		return res
	}

	beta := func(period int) *float64 {
		if len(stockReturns) < period {
			return nil
		}
		sw := stockReturns[len(stockReturns)-period:]
		mw := indexReturns[len(indexReturns)-period:]
		marketVar := stat.Variance(mw, nil)
		if marketVar <= 0 {
			return nil
		}
		b := round4(stat.Covariance(sw, mw, nil) / marketVar)
		return &b
	}
	res.Beta60d = beta(60)
	res.Beta252d = beta(tradingDaysPerYear)

	if res.Beta60d != nil {
		switch b := *res.Beta60d; {
		case b < 0.8:
			res.Interpretation, res.InterpretationLabel = "defensive", "방어적"
		case b < 1.2:
			res.Interpretation, res.InterpretationLabel = "neutral", "중립"
		case b < 1.5:
			res.Interpretation, res.InterpretationLabel = "aggressive", "공격적"
		default:
			res.Interpretation, res.InterpretationLabel = "highly_aggressive", "초공격적"
		}
	}
	return res
}

// DrawdownResult holds peak-to-trough declines and the current drawdown.
type DrawdownResult struct {
	MDD60d          *float64 `json:"mdd_60d"`
	MDD1y           *float64 `json:"mdd_1y"`
	CurrentDrawdown *float64 `json:"current_drawdown"`
	RecoveryLabel   string   `json:"recovery_label"`
}

// ComputeMaxDrawdown computes the worst decline from a running peak over
// the 60 and 252 day windows, plus the current drawdown from the all-time
// high of the series. Values are fractions, -0.25 means a 25% decline.
func ComputeMaxDrawdown(prices []float64) DrawdownResult {
	res := DrawdownResult{RecoveryLabel: "알 수 없음"}
	if len(prices) < 2 {
		return res
	}

	mdd := func(period int) *float64 {
		if len(prices) < period {
			return nil
		}
		subset := prices[len(prices)-period:]
		peak := subset[0]
		worst := 0.0
		for _, p := range subset {
			if p > peak {
				peak = p
			}
			if peak > 0 {
				dd := (p - peak) / peak
				if dd < worst {
					worst = dd
				}
			}
		}
		v := round4(worst)
		return &v
	}
	res.MDD60d = mdd(60)
	res.MDD1y = mdd(tradingDaysPerYear)

	high := prices[0]
	for _, p := range prices {
		if p > high {
			high = p
		}
	}
	if high > 0 {
		dd := round4((prices[len(prices)-1] - high) / high)
		res.CurrentDrawdown = &dd
		switch {
		case dd > -0.05:
			res.RecoveryLabel = "회복"
		case dd > -0.15:
			res.RecoveryLabel = "조정 중"
		default:
			res.RecoveryLabel = "하락 지속"
		}
	}
	return res
}

func dailyReturns(prices []float64) []float64 {
	var returns []float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 {
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
		}
	}
	return returns
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
