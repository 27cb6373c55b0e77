package analysis

import (
	"sort"

	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/modules/quant"
	"github.com/whaleback/whaleback/internal/modules/sectorflow"
	"github.com/whaleback/whaleback/internal/modules/trend"
)

// computeSectorMedians aggregates the fundamentals cross-section into
// per-sector PBR/PER medians. Only positive ratios participate; sectors
// without any usable ratio get no entry.
func computeSectorMedians(funds []market.Fundamental, sectorMap map[string]string) map[string]quant.SectorMedians {
	pbrs := make(map[string][]float64)
	pers := make(map[string][]float64)

	for _, f := range funds {
		sector := sectorMap[f.Ticker]
		if sector == "" {
			continue
		}
		if f.PBR != nil && *f.PBR > 0 {
			pbrs[sector] = append(pbrs[sector], *f.PBR)
		}
		if f.PER != nil && *f.PER > 0 {
			pers[sector] = append(pers[sector], *f.PER)
		}
	}

	medians := make(map[string]quant.SectorMedians)
	for sector, values := range pbrs {
		m := medians[sector]
		m.MedianPBR = midElement(values)
		medians[sector] = m
	}
	for sector, values := range pers {
		m := medians[sector]
		m.MedianPER = midElement(values)
		medians[sector] = m
	}
	return medians
}

// midElement picks the upper-middle element of the sorted values.
func midElement(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	v := sorted[len(sorted)/2]
	return &v
}

// fillRSPercentiles ranks every ticker's 20-day relative strength within
// the universe cross-section and writes the percentile back in place.
func fillRSPercentiles(snaps []*trend.Snapshot) {
	var all []float64
	for _, s := range snaps {
		if s.RSVsKospi20d != nil {
			all = append(all, *s.RSVsKospi20d)
		}
	}
	for _, s := range snaps {
		s.RSPercentile = trend.ComputeRSPercentile(s.RSVsKospi20d, all)
	}
}

// sectorFlowBonuses converts sector accumulation signals into per-ticker
// composite bonus points: 15 for strong accumulation, 5 for mild, with the
// cumulative bonus capped at 15.
func sectorFlowBonuses(flows []sectorflow.Flow, sectorMap map[string]string) map[string]float64 {
	const bonusCap = 15.0

	bonuses := make(map[string]float64)
	for _, f := range flows {
		var add float64
		switch f.Signal {
		case "strong_accumulation":
			add = 15.0
		case "mild_accumulation":
			add = 5.0
		default:
			continue
		}
		for ticker, sector := range sectorMap {
			if sector != f.Sector {
				continue
			}
			b := bonuses[ticker] + add
			if b > bonusCap {
				b = bonusCap
			}
			bonuses[ticker] = b
		}
	}
	return bonuses
}
