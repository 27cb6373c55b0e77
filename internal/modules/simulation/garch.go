package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// simulateGARCH runs the time-varying volatility model on a forecast
// variance path: mean-reverting EWMA(0.94) toward the long-run variance,
// with a constant-sigma fallback when the recent variance degenerates.
//
// NOTE: all simulated paths share the same forecast variance trajectory.
// A path-dependent variant would produce heavier tails; this is a
// deliberate scoring-time simplification and should not be changed
// silently.
func simulateGARCH(logReturns []float64, basePrice int64, numSimulations int, horizons []int, rng *rand.Rand, maxSigma, driftAdjDaily, varMultiplier float64) *ModelResult {
	if len(logReturns) < 30 {
		return nil
	}

	dailyMu := stat.Mean(logReturns, nil)
	dailySigmaHist := stat.StdDev(logReturns, nil)

	muArithDaily := clip(dailyMu+0.5*dailySigmaHist*dailySigmaHist, -maxDailyMu, maxDailyMu)
	muArithDaily += driftAdjDaily

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	forecastVariance := meanRevertingVariance(logReturns, maxHorizon, 0.94)
	if forecastVariance == nil {
		dailySigma := stat.StdDev(logReturns, nil)
		if dailySigma == 0 {
			return nil
		}
		forecastVariance = make([]float64, maxHorizon)
		for i := range forecastVariance {
			forecastVariance[i] = dailySigma * dailySigma
		}
	}

	maxDailySigma := maxSigma / math.Sqrt(tradingDaysPerYear)
	maxVar := maxDailySigma * maxDailySigma
	sigmaPath := make([]float64, maxHorizon)
	for i, v := range forecastVariance {
		sigmaPath[i] = math.Sqrt(clip(v*varMultiplier, 1e-10, maxVar))
	}

	base := float64(basePrice)
	terminalPrices := make(map[int][]float64, len(horizons))
	horizonsResult := make(map[int]HorizonStats, len(horizons))

	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := range terminal {
			logRet := 0.0
			for t := 0; t < h; t++ {
				s := sigmaPath[t]
				logRet += (muArithDaily - 0.5*s*s) + s*rng.NormFloat64()
			}
			terminal[i] = base * math.Exp(logRet)
		}
		clipTerminal(terminal, basePrice)
		terminalPrices[h] = terminal
		horizonsResult[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return &ModelResult{
		Model:          "garch",
		TerminalPrices: terminalPrices,
		Horizons:       horizonsResult,
	}
}

// meanRevertingVariance builds a forecast that starts at the recent 20-day
// variance and decays toward the long-run variance: h[t] = lam*h[t-1] +
// (1-lam)*longRun. A flat RiskMetrics forecast would understate
// multi-step reversion.
func meanRevertingVariance(logReturns []float64, maxHorizon int, lam float64) []float64 {
	recent := logReturns
	if len(logReturns) >= 20 {
		recent = logReturns[len(logReturns)-20:]
	}
	dailyVar := stat.Variance(recent, nil)
	if dailyVar <= 0 {
		return nil
	}

	longRunVar := stat.Variance(logReturns, nil)

	path := make([]float64, maxHorizon)
	path[0] = dailyVar
	for t := 1; t < maxHorizon; t++ {
		path[t] = lam*path[t-1] + (1-lam)*longRunVar
	}
	return path
}
