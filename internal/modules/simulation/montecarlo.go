package simulation

import (
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/whaleback/whaleback/internal/modules/sentiment"
)

// DefaultNumSimulations is the per-model path count.
const DefaultNumSimulations = 10000

// MinHistoryDays is the minimum clean closes required before simulating.
const MinHistoryDays = 60

// MaxAnnualizedSigma caps the volatility estimate fed into every model.
const MaxAnnualizedSigma = 1.50

// DefaultWeights are the static ensemble weights.
var DefaultWeights = map[string]float64{
	"gbm":    0.25,
	"garch":  0.30,
	"heston": 0.20,
	"merton": 0.25,
}

// Options configure one Monte Carlo run.
type Options struct {
	NumSimulations    int
	Horizons          []int
	TargetMultipliers []float64
	Ticker            string
	Models            []string
	Weights           map[string]float64
	Heston            HestonParams
	Merton            MertonParams
	MaxSigma          float64
	MinHistoryDays    int

	// Sentiment-derived parameter overrides; nil runs the models neutral.
	Adjustments *sentiment.Adjustments
}

func (o *Options) applyDefaults() {
	if o.NumSimulations <= 0 {
		o.NumSimulations = DefaultNumSimulations
	}
	if len(o.Horizons) == 0 {
		o.Horizons = DefaultHorizons
	}
	if len(o.TargetMultipliers) == 0 {
		o.TargetMultipliers = DefaultTargetMultipliers
	}
	if len(o.Models) == 0 {
		o.Models = modelOrder
	}
	if o.Weights == nil {
		o.Weights = DefaultWeights
	}
	if o.Heston == (HestonParams{}) {
		o.Heston = HestonParams{Kappa: 2.0, Theta: 0.04, Xi: 0.3, Rho: -0.7}
	}
	if o.Merton == (MertonParams{}) {
		o.Merton = MertonParams{Lam: 0.1, MuJ: -0.02, SigmaJ: 0.05}
	}
	if o.MaxSigma <= 0 {
		o.MaxSigma = MaxAnnualizedSigma
	}
	if o.MinHistoryDays <= 0 {
		o.MinHistoryDays = MinHistoryDays
	}
}

// RunMonteCarlo runs the selected models on a price series and combines
// them via weighted pooling. Returns nil when history is too short, prices
// degenerate, or every model fails.
func RunMonteCarlo(prices []float64, opts Options) *Result {
	opts.applyDefaults()

	if len(prices) < opts.MinHistoryDays {
		return nil
	}

	clean := make([]float64, 0, len(prices))
	for _, p := range prices {
		if !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0 {
			clean = append(clean, p)
		}
	}
	if len(clean) < opts.MinHistoryDays {
		return nil
	}

	logReturns := make([]float64, len(clean)-1)
	allZero := true
	for i := 1; i < len(clean); i++ {
		logReturns[i-1] = math.Log(clean[i] / clean[i-1])
		if logReturns[i-1] != 0 {
			allZero = false
		}
	}
	if len(logReturns) == 0 || allZero {
		return nil
	}

	dailyMu := stat.Mean(logReturns, nil)
	dailySigma := stat.StdDev(logReturns, nil)
	mu := dailyMu * tradingDaysPerYear
	sigma := dailySigma * math.Sqrt(tradingDaysPerYear)
	if sigma > opts.MaxSigma {
		sigma = opts.MaxSigma
	}
	if sigma == 0 {
		return nil
	}

	basePrice := int64(clean[len(clean)-1])

	adj := opts.Adjustments
	if adj == nil {
		neutral := sentiment.NeutralAdjustments()
		adj = &neutral
	}

	weights := opts.Weights
	if adj.EnsembleWeightOverrides != nil {
		weights = adj.EnsembleWeightOverrides
	}

	// Fallback RNG for model seeds when no ticker is supplied.
	fallback := newRNG(tickerSeed(opts.Ticker))

	modelResults := make(map[string]*ModelResult, len(opts.Models))
	for _, model := range opts.Models {
		var seed uint64
		if opts.Ticker != "" {
			seed = modelSeed(opts.Ticker, model)
		} else {
			seed = fallback.Uint64() & (1<<63 - 1)
		}
		rng := newRNG(seed)

		result := runModel(model, logReturns, basePrice, rng, opts, adj)
		if result != nil {
			modelResults[model] = result
		}
	}
	if len(modelResults) == 0 {
		return nil
	}

	if len(modelResults) == 1 {
		var only *ModelResult
		for _, r := range modelResults {
			only = r
		}
		score, grade := ComputeScore(only.Horizons)
		return &Result{
			SimulationScore: score,
			SimulationGrade: grade,
			BasePrice:       basePrice,
			Mu:              round6(mu),
			Sigma:           round6(sigma),
			NumSimulations:  opts.NumSimulations,
			InputDaysUsed:   len(clean),
			Horizons:        stringifyHorizons(only.Horizons),
			TargetProbs:     computeTargetProbs(only.TerminalPrices, basePrice, opts.TargetMultipliers),
			ModelBreakdown:  nil,
		}
	}

	ensemble := combineEnsemble(modelResults, weights, opts.Horizons, basePrice, opts.TargetMultipliers, opts.NumSimulations)
	if ensemble == nil || len(ensemble.Horizons) == 0 {
		return nil
	}

	score, grade := ComputeScore(ensemble.Horizons)
	return &Result{
		SimulationScore: score,
		SimulationGrade: grade,
		BasePrice:       basePrice,
		Mu:              round6(mu),
		Sigma:           round6(sigma),
		NumSimulations:  opts.NumSimulations,
		InputDaysUsed:   len(clean),
		Horizons:        stringifyHorizons(ensemble.Horizons),
		TargetProbs:     ensemble.TargetProbs,
		ModelBreakdown:  ensemble.ModelBreakdown,
	}
}

func runModel(model string, logReturns []float64, basePrice int64, rng *rand.Rand, opts Options, adj *sentiment.Adjustments) *ModelResult {
	switch model {
	case "gbm":
		return simulateGBM(logReturns, basePrice, opts.NumSimulations, opts.Horizons, rng,
			opts.MaxSigma, adj.DriftAdjDaily, adj.VolMultiplier)
	case "garch":
		return simulateGARCH(logReturns, basePrice, opts.NumSimulations, opts.Horizons, rng,
			opts.MaxSigma, adj.DriftAdjDaily, adj.VarMultiplier)
	case "heston":
		return simulateHeston(logReturns, basePrice, opts.NumSimulations, opts.Horizons, rng,
			opts.Heston, adj.DriftAdjDaily*tradingDaysPerYear, adj.ThetaMult, adj.V0Mult, adj.RhoAdj)
	case "merton":
		merton := MertonParams{
			Lam:    opts.Merton.Lam * adj.LamMult,
			MuJ:    opts.Merton.MuJ + adj.MuJAdj,
			SigmaJ: opts.Merton.SigmaJ * adj.SigJMult,
		}
		return simulateMerton(logReturns, basePrice, opts.NumSimulations, opts.Horizons, rng,
			merton, opts.MaxSigma)
	default:
		return nil
	}
}

func stringifyHorizons(horizons map[int]HorizonStats) map[string]HorizonStats {
	out := make(map[string]HorizonStats, len(horizons))
	for h, s := range horizons {
		out[strconv.Itoa(h)] = s
	}
	return out
}
