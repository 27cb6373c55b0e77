package simulation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// computeHorizonStats derives percentile statistics from a terminal price
// distribution.
func computeHorizonStats(terminal []float64, basePrice int64, horizon int) HorizonStats {
	label, ok := horizonLabels[horizon]
	if !ok {
		label = fmt.Sprintf("%d일", horizon)
	}

	sorted := make([]float64, len(terminal))
	copy(sorted, terminal)
	sort.Float64s(sorted)

	base := float64(basePrice)
	mean := stat.Mean(terminal, nil)

	upside := 0.0
	for _, t := range terminal {
		if t > base {
			upside++
		}
	}

	p5 := percentile(sorted, 0.05)
	return HorizonStats{
		Label:             label,
		P5:                int64(p5),
		P25:               int64(percentile(sorted, 0.25)),
		P50:               int64(percentile(sorted, 0.50)),
		P75:               int64(percentile(sorted, 0.75)),
		P95:               int64(percentile(sorted, 0.95)),
		ExpectedReturnPct: round2((mean/base - 1) * 100),
		Var5PctPct:        round2((p5/base - 1) * 100),
		UpsideProb:        round4(upside / float64(len(terminal))),
	}
}

// percentile interpolates linearly between order statistics, matching the
// convention used throughout the horizon stats.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func clipTerminal(terminal []float64, basePrice int64) {
	lo := float64(basePrice) * 0.001
	hi := float64(basePrice) * 100
	for i, t := range terminal {
		if t < lo {
			terminal[i] = lo
		} else if t > hi {
			terminal[i] = hi
		}
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
