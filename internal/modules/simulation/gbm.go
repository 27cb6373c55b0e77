package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// simulateGBM runs the constant-volatility geometric Brownian motion model.
//
// The arithmetic drift is recovered from the sample log returns (undoing
// the implicit Ito correction), capped, shifted by the sentiment drift
// adjustment, then re-paired with the possibly capped and scaled volatility.
func simulateGBM(logReturns []float64, basePrice int64, numSimulations int, horizons []int, rng *rand.Rand, maxSigma, driftAdjDaily, volMultiplier float64) *ModelResult {
	dailyMu := stat.Mean(logReturns, nil)
	dailySigma := stat.StdDev(logReturns, nil)

	sigma := dailySigma * math.Sqrt(tradingDaysPerYear)
	if sigma > maxSigma {
		sigma = maxSigma
	}
	if sigma == 0 {
		return nil
	}
	dailyVol := sigma / math.Sqrt(tradingDaysPerYear)

	muArithDaily := clip(dailyMu+0.5*dailySigma*dailySigma, -maxDailyMu, maxDailyMu)
	muArithDaily = clip(muArithDaily+driftAdjDaily, -maxDailyMu*2, maxDailyMu*2)

	dailyVol = math.Min(dailyVol*volMultiplier, maxSigma/math.Sqrt(tradingDaysPerYear))
	dailyDrift := muArithDaily - 0.5*dailyVol*dailyVol

	base := float64(basePrice)
	terminalPrices := make(map[int][]float64, len(horizons))
	horizonsResult := make(map[int]HorizonStats, len(horizons))

	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := range terminal {
			logRet := 0.0
			for t := 0; t < h; t++ {
				logRet += dailyDrift + dailyVol*rng.NormFloat64()
			}
			terminal[i] = base * math.Exp(logRet)
		}
		clipTerminal(terminal, basePrice)
		terminalPrices[h] = terminal
		horizonsResult[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return &ModelResult{
		Model:          "gbm",
		TerminalPrices: terminalPrices,
		Horizons:       horizonsResult,
	}
}
