package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MertonParams are the jump-diffusion model parameters.
type MertonParams struct {
	Lam    float64 // annual jump intensity
	MuJ    float64 // mean jump size in log space
	SigmaJ float64 // jump size volatility
}

// simulateMerton runs the Merton jump-diffusion model: GBM plus a compound
// Poisson jump process with Normal jump magnitudes. The drift is
// compensated by lam*k with k = exp(mu_j + sigma_j^2/2) - 1 so jumps do
// not bias the expected return.
func simulateMerton(logReturns []float64, basePrice int64, numSimulations int, horizons []int, rng *rand.Rand, p MertonParams, maxSigma float64) *ModelResult {
	if len(logReturns) < 30 {
		return nil
	}

	dailyMu := stat.Mean(logReturns, nil)
	dailySigmaOrig := stat.StdDev(logReturns, nil)

	sigma := dailySigmaOrig * math.Sqrt(tradingDaysPerYear)
	if sigma > maxSigma {
		sigma = maxSigma
	}
	dailySigma := sigma / math.Sqrt(tradingDaysPerYear)
	if dailySigma == 0 {
		return nil
	}

	muArithDaily := dailyMu + 0.5*dailySigmaOrig*dailySigmaOrig

	lamDaily := p.Lam / tradingDaysPerYear
	k := math.Exp(p.MuJ+0.5*p.SigmaJ*p.SigmaJ) - 1
	driftComp := muArithDaily - lamDaily*k

	poisson := distuv.Poisson{Lambda: lamDaily, Src: rng}

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	base := float64(basePrice)
	cumulative := make([][]float64, numSimulations)
	for i := range cumulative {
		row := make([]float64, maxHorizon)
		sum := 0.0
		for t := 0; t < maxHorizon; t++ {
			jump := 0.0
			for j := 0; j < int(poisson.Rand()); j++ {
				jump += p.MuJ + p.SigmaJ*rng.NormFloat64()
			}
			sum += (driftComp - 0.5*dailySigma*dailySigma) + dailySigma*rng.NormFloat64() + jump
			row[t] = sum
		}
		cumulative[i] = row
	}

	terminalPrices := make(map[int][]float64, len(horizons))
	horizonsResult := make(map[int]HorizonStats, len(horizons))
	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := range terminal {
			terminal[i] = base * math.Exp(cumulative[i][h-1])
		}
		clipTerminal(terminal, basePrice)
		terminalPrices[h] = terminal
		horizonsResult[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return &ModelResult{
		Model:          "merton",
		TerminalPrices: terminalPrices,
		Horizons:       horizonsResult,
	}
}
