// Package trend implements the relative momentum axis: relative strength
// vs the benchmark index, cross-ticker RS percentiles, and sector rotation
// quadrants.
package trend

import (
	"math"
	"sort"
)

// RSPoint is one bar of the aligned relative-strength series.
type RSPoint struct {
	Date         string  `json:"date,omitempty"`
	StockIndexed float64 `json:"stock_indexed"`
	IndexIndexed float64 `json:"index_indexed"`
	RSRatio      float64 `json:"rs_ratio"`
}

// RSResult is the relative-strength outcome over one window.
type RSResult struct {
	CurrentRS   *float64  `json:"current_rs"`
	RSChangePct *float64  `json:"rs_change_pct"`
	Series      []RSPoint `json:"series"`
}

// ComputeRelativeStrength indexes both series to 100 at the first bar and
// returns rs_t = stock_indexed_t / index_indexed_t.
//
// Series arrive oldest first. Mismatched lengths are trimmed to the common
// tail; fewer than two bars yields a neutral result.
func ComputeRelativeStrength(stockPrices, indexPrices []float64, dates []string) RSResult {
	if len(stockPrices) == 0 || len(indexPrices) == 0 {
		return RSResult{Series: []RSPoint{}}
	}

	if len(stockPrices) != len(indexPrices) {
		minLen := len(stockPrices)
		if len(indexPrices) < minLen {
			minLen = len(indexPrices)
		}
		stockPrices = stockPrices[len(stockPrices)-minLen:]
		indexPrices = indexPrices[len(indexPrices)-minLen:]
		if len(dates) > minLen {
			dates = dates[len(dates)-minLen:]
		}
	}

	if len(stockPrices) < 2 {
		return RSResult{Series: []RSPoint{}}
	}

	stockBase := stockPrices[0]
	indexBase := indexPrices[0]
	if stockBase <= 0 || indexBase <= 0 {
		return RSResult{Series: []RSPoint{}}
	}

	series := make([]RSPoint, 0, len(stockPrices))
	for i := range stockPrices {
		stockIndexed := stockPrices[i] / stockBase * 100.0
		indexIndexed := indexPrices[i] / indexBase * 100.0
		var ratio float64
		if indexIndexed > 0 {
			ratio = round4(stockIndexed / indexIndexed)
		}
		p := RSPoint{
			StockIndexed: round2(stockIndexed),
			IndexIndexed: round2(indexIndexed),
			RSRatio:      ratio,
		}
		if i < len(dates) {
			p.Date = dates[i]
		}
		series = append(series, p)
	}

	currentRS := series[len(series)-1].RSRatio
	firstRS := series[0].RSRatio

	res := RSResult{CurrentRS: &currentRS, Series: series}
	if firstRS > 0 {
		change := round2((currentRS - firstRS) / firstRS * 100)
		res.RSChangePct = &change
	}
	return res
}

// ComputeRSPercentile ranks one RS value in the universe cross-section:
// floor(count_strictly_below / total * 100), capped at 100.
func ComputeRSPercentile(tickerRS *float64, allRS []float64) *int {
	if tickerRS == nil || len(allRS) == 0 {
		return nil
	}
	below := 0
	for _, v := range allRS {
		if v < *tickerRS {
			below++
		}
	}
	pct := int(math.Floor(float64(below) / float64(len(allRS)) * 100))
	if pct > 100 {
		pct = 100
	}
	return &pct
}

// SectorRotation holds one sector's rotation metrics.
type SectorRotation struct {
	Sector      string   `json:"sector"`
	AvgRS20d    *float64 `json:"avg_rs_20d"`
	AvgRSChange *float64 `json:"avg_rs_change"`
	StockCount  int      `json:"stock_count"`
	Quadrant    string   `json:"quadrant"`
}

// ClassifySectorRotation assigns each sector a rotation quadrant using the
// cross-sector medians of RS level and RS momentum as the boundaries.
func ClassifySectorRotation(sectors []SectorRotation) []SectorRotation {
	if len(sectors) == 0 {
		return nil
	}

	var rsValues, changeValues []float64
	for _, s := range sectors {
		if s.AvgRS20d != nil {
			rsValues = append(rsValues, *s.AvgRS20d)
		}
		if s.AvgRSChange != nil {
			changeValues = append(changeValues, *s.AvgRSChange)
		}
	}

	out := make([]SectorRotation, len(sectors))
	copy(out, sectors)

	if len(rsValues) == 0 || len(changeValues) == 0 {
		for i := range out {
			out[i].Quadrant = "neutral"
		}
		return out
	}

	rsMedian := median(rsValues)
	changeMedian := median(changeValues)

	for i := range out {
		rs, change := out[i].AvgRS20d, out[i].AvgRSChange
		switch {
		case rs == nil || change == nil:
			out[i].Quadrant = "neutral"
		case *rs >= rsMedian && *change >= changeMedian:
			out[i].Quadrant = "leading"
		case *rs >= rsMedian:
			out[i].Quadrant = "weakening"
		case *change < changeMedian:
			out[i].Quadrant = "lagging"
		default:
			out[i].Quadrant = "improving"
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
