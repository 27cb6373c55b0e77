package simulation

import (
	"fmt"
	"math"
	"strconv"
)

// modelOrder fixes the iteration order for weight allocation and pooling.
var modelOrder = []string{"gbm", "garch", "heston", "merton"}

type ensembleResult struct {
	Horizons       map[int]HorizonStats
	TargetProbs    map[string]map[string]float64
	Terminal       map[int][]float64
	ModelBreakdown *ModelBreakdown
}

// combineEnsemble pools terminal prices from each model proportionally to
// its weight and recomputes distributional statistics on the pooled
// sample. Pooling uses a fixed seed so re-runs are deterministic.
func combineEnsemble(modelResults map[string]*ModelResult, weights map[string]float64, horizons []int, basePrice int64, targetMultipliers []float64, totalSamples int) *ensembleResult {
	if len(modelResults) == 0 {
		return nil
	}

	available := make(map[string]float64, len(modelResults))
	totalWeight := 0.0
	for name := range modelResults {
		available[name] = weights[name]
		totalWeight += weights[name]
	}
	if totalWeight <= 0 {
		for name := range available {
			available[name] = 1.0 / float64(len(available))
		}
	} else {
		for name := range available {
			available[name] /= totalWeight
		}
	}

	names := make([]string, 0, len(available))
	for _, name := range modelOrder {
		if _, ok := available[name]; ok {
			names = append(names, name)
		}
	}

	sampleCounts := make(map[string]int, len(names))
	allocated := 0
	for i, name := range names {
		if i == len(names)-1 {
			sampleCounts[name] = max(0, totalSamples-allocated)
		} else {
			n := int(math.Round(available[name] * float64(totalSamples)))
			sampleCounts[name] = n
			allocated += n
		}
	}

	rng := newRNG(42) // deterministic pooling

	ensembleHorizons := make(map[int]HorizonStats, len(horizons))
	ensembleTerminal := make(map[int][]float64, len(horizons))
	for _, h := range horizons {
		var pooled []float64
		for _, name := range names {
			tp := modelResults[name].TerminalPrices[h]
			n := sampleCounts[name]
			if len(tp) == 0 || n <= 0 {
				continue
			}
			for i := 0; i < n; i++ {
				pooled = append(pooled, tp[rng.IntN(len(tp))])
			}
		}
		if len(pooled) == 0 {
			continue
		}
		ensembleTerminal[h] = pooled
		ensembleHorizons[h] = computeHorizonStats(pooled, basePrice, h)
	}

	targetProbs := computeTargetProbs(ensembleTerminal, basePrice, targetMultipliers)

	breakdown := &ModelBreakdown{
		ModelWeights:   make(map[string]float64, len(names)),
		EnsembleMethod: "weighted_pooling",
	}
	for _, name := range names {
		score, _ := ComputeScore(modelResults[name].Horizons)
		breakdown.ModelScores = append(breakdown.ModelScores, ModelScore{
			Model:  name,
			Score:  score,
			Weight: round4(available[name]),
		})
		breakdown.ModelWeights[name] = round4(available[name])
	}

	return &ensembleResult{
		Horizons:       ensembleHorizons,
		TargetProbs:    targetProbs,
		Terminal:       ensembleTerminal,
		ModelBreakdown: breakdown,
	}
}

// computeTargetProbs computes the probability of the terminal price
// exceeding each target multiplier at each horizon.
func computeTargetProbs(terminal map[int][]float64, basePrice int64, targetMultipliers []float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(targetMultipliers))
	for _, mult := range targetMultipliers {
		target := float64(basePrice) * mult
		probs := make(map[string]float64)
		for h, tp := range terminal {
			if len(tp) == 0 {
				continue
			}
			above := 0.0
			for _, t := range tp {
				if t > target {
					above++
				}
			}
			probs[strconv.Itoa(h)] = round4(above / float64(len(tp)))
		}
		out[formatMultiplier(mult)] = probs
	}
	return out
}

// formatMultiplier renders 1.1 as "1.1" and 1.5 as "1.5", the JSONB key
// format readers expect.
func formatMultiplier(mult float64) string {
	return fmt.Sprintf("%g", mult)
}
