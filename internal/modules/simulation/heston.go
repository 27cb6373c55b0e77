package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// HestonParams are the stochastic volatility model parameters.
type HestonParams struct {
	Kappa float64 // mean reversion speed
	Theta float64 // long-run variance
	Xi    float64 // vol-of-vol
	Rho   float64 // price/variance correlation
}

// simulateHeston runs the Heston stochastic volatility model with
// Euler-Maruyama discretisation and full truncation on the variance:
//
//	dS = mu*S*dt + sqrt(V)*S*dW1
//	dV = kappa*(theta - V)*dt + xi*sqrt(V)*dW2, corr(W1, W2) = rho
func simulateHeston(logReturns []float64, basePrice int64, numSimulations int, horizons []int, rng *rand.Rand, p HestonParams, driftAdjAnnual, thetaMult, v0Mult, rhoAdj float64) *ModelResult {
	if len(logReturns) < 30 {
		return nil
	}

	rho := clip(p.Rho, -1, 1)
	rho = clip(rho+rhoAdj, -0.99, 0.99)

	if 2*p.Kappa*p.Theta <= p.Xi*p.Xi {
		log.Warn().
			Float64("two_kappa_theta", 2*p.Kappa*p.Theta).
			Float64("xi_squared", p.Xi*p.Xi).
			Msg("heston feller condition violated, full truncation will absorb zero variance")
	}
	theta := p.Theta * thetaMult

	dailyMu := stat.Mean(logReturns, nil)
	dailySigma := stat.StdDev(logReturns, nil)
	dt := 1.0 / tradingDaysPerYear

	muArithAnnual := (dailyMu+0.5*dailySigma*dailySigma)*tradingDaysPerYear + driftAdjAnnual

	recent := logReturns
	if len(logReturns) >= 20 {
		recent = logReturns[len(logReturns)-20:]
	}
	v0 := math.Max(stat.Variance(recent, nil)*tradingDaysPerYear, 1e-8) * v0Mult

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	sqrtDt := math.Sqrt(dt)
	rhoComp := math.Sqrt(1 - rho*rho)

	// logS[i][t] for the horizons we need; simulate path by path.
	base := float64(basePrice)
	logPaths := make([][]float64, numSimulations)
	for i := range logPaths {
		path := make([]float64, maxHorizon+1)
		v := v0
		for t := 0; t < maxHorizon; t++ {
			z1 := rng.NormFloat64()
			z2 := rho*z1 + rhoComp*rng.NormFloat64()

			vPos := math.Max(v, 0)
			sqrtV := math.Sqrt(vPos)

			path[t+1] = path[t] + (muArithAnnual-0.5*vPos)*dt + sqrtV*sqrtDt*z1
			v = v + p.Kappa*(theta-vPos)*dt + p.Xi*sqrtV*sqrtDt*z2
		}
		logPaths[i] = path
	}

	terminalPrices := make(map[int][]float64, len(horizons))
	horizonsResult := make(map[int]HorizonStats, len(horizons))
	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := range terminal {
			terminal[i] = base * math.Exp(logPaths[i][h])
		}
		clipTerminal(terminal, basePrice)
		terminalPrices[h] = terminal
		horizonsResult[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return &ModelResult{
		Model:          "heston",
		TerminalPrices: terminalPrices,
		Horizons:       horizonsResult,
	}
}
