// Package quant implements the valuation axis: RIM intrinsic value,
// the nine-criterion modified F-Score, and the investment grade ladder.
package quant

import "math"

// RIMResult is the residual-income-model valuation outcome.
type RIMResult struct {
	Computable     bool     `json:"computable"`
	RIMValue       *float64 `json:"rim_value"`
	RequiredReturn float64  `json:"required_return"`
	Reason         string   `json:"reason,omitempty"`
}

// ComputeRIM computes the residual income model intrinsic value.
//
// intrinsic = BPS + (ROE - r) * BPS / (r - g) with r = riskFree + erp.
// ROE arrives in percent (13.21 means 13.21%).
func ComputeRIM(bps, roePct *float64, riskFree, erp, growth float64) RIMResult {
	requiredReturn := riskFree + erp

	if bps == nil || roePct == nil {
		return RIMResult{Computable: false, RequiredReturn: requiredReturn, Reason: "missing_data"}
	}
	if *bps <= 0 {
		return RIMResult{Computable: false, RequiredReturn: requiredReturn, Reason: "negative_bps"}
	}

	roe := *roePct / 100.0

	var rim float64
	denominator := requiredReturn - growth
	if math.Abs(denominator) < 1e-10 {
		// No-growth perpetuity fallback; value is unbounded when ROE
		// exceeds the required return, cap at 10x book.
		if roe > requiredReturn {
			rim = *bps * 10
		} else {
			rim = *bps
		}
	} else {
		rim = *bps + (roe-requiredReturn)**bps/denominator
	}

	rim = math.Max(rim, 0)
	rim = round2(rim)
	return RIMResult{Computable: true, RIMValue: &rim, RequiredReturn: requiredReturn}
}

// SafetyMarginResult holds the margin between intrinsic value and price.
type SafetyMarginResult struct {
	SafetyMarginPct *float64 `json:"safety_margin_pct"`
	IsUndervalued   *bool    `json:"is_undervalued"`
}

// ComputeSafetyMargin computes (rim - price) / rim * 100.
// Positive means undervalued. Requires both inputs positive.
func ComputeSafetyMargin(rimValue *float64, currentPrice int64) SafetyMarginResult {
	if rimValue == nil || *rimValue <= 0 || currentPrice <= 0 {
		return SafetyMarginResult{}
	}
	margin := round2((*rimValue - float64(currentPrice)) / *rimValue * 100.0)
	undervalued := margin > 0
	return SafetyMarginResult{SafetyMarginPct: &margin, IsUndervalued: &undervalued}
}

// FScoreInputs holds one period's fundamentals for the F-Score.
// Nil fields mean the attribute is absent for that period.
type FScoreInputs struct {
	BPS *float64
	PER *float64
	PBR *float64
	EPS *float64
	Div *float64
	ROE *float64
}

// SectorMedians holds the sector cross-section medians for criteria 6 and 8.
type SectorMedians struct {
	MedianPBR *float64
	MedianPER *float64
}

// Criterion is one scored F-Score criterion.
type Criterion struct {
	Name  string   `json:"name"`
	Score int      `json:"score"`
	Value *float64 `json:"value"`
	Note  string   `json:"note,omitempty"`
}

// FScoreResult is the nine-criterion score with per-criterion detail.
type FScoreResult struct {
	TotalScore       int         `json:"total_score"`
	MaxScore         int         `json:"max_score"`
	Criteria         []Criterion `json:"criteria"`
	DataCompleteness float64     `json:"data_completeness"`
}

const fscoreCriteria = 9

// ComputeFScore evaluates the nine-criterion modified Piotroski score.
//
// Each criterion is scored 0 or 1; criteria whose inputs are missing score 0
// and carry a note. Data completeness is computable-count / 9.
func ComputeFScore(
	current *FScoreInputs,
	previous *FScoreInputs,
	medians *SectorMedians,
	volumeCurrent, volumePrevious *int64,
) FScoreResult {
	if current == nil {
		return FScoreResult{MaxScore: fscoreCriteria, Criteria: []Criterion{}}
	}

	criteria := make([]Criterion, 0, fscoreCriteria)
	computable := 0

	scorePositive := func(name string, v *float64) {
		if v != nil {
			computable++
			criteria = append(criteria, Criterion{Name: name, Score: boolScore(*v > 0), Value: v})
		} else {
			criteria = append(criteria, Criterion{Name: name, Note: "missing"})
		}
	}
	scoreIncreasing := func(name string, cur, prev *float64) {
		if cur != nil && prev != nil {
			computable++
			delta := *cur - *prev
			criteria = append(criteria, Criterion{Name: name, Score: boolScore(*cur > *prev), Value: &delta})
		} else {
			criteria = append(criteria, Criterion{Name: name, Note: "no_prior_period"})
		}
	}

	var prevBPS, prevEPS, prevROE *float64
	if previous != nil {
		prevBPS, prevEPS, prevROE = previous.BPS, previous.EPS, previous.ROE
	}

	scorePositive("positive_eps", current.EPS)
	scorePositive("positive_roe", current.ROE)
	scoreIncreasing("roe_increasing", current.ROE, prevROE)
	scoreIncreasing("eps_increasing", current.EPS, prevEPS)
	scoreIncreasing("bps_increasing", current.BPS, prevBPS)

	// Criterion 6: PBR below sector median, needs a positive PBR and a median.
	var medianPBR, medianPER *float64
	if medians != nil {
		medianPBR, medianPER = medians.MedianPBR, medians.MedianPER
	}
	if current.PBR != nil && medianPBR != nil && *current.PBR > 0 {
		computable++
		criteria = append(criteria, Criterion{Name: "pbr_below_sector", Score: boolScore(*current.PBR < *medianPBR), Value: current.PBR})
	} else {
		criteria = append(criteria, Criterion{Name: "pbr_below_sector", Value: current.PBR, Note: "no_sector_data"})
	}

	scorePositive("positive_dividend", current.Div)

	// Criterion 8: PER below sector median, both must be positive.
	if current.PER != nil && medianPER != nil && *current.PER > 0 && *medianPER > 0 {
		computable++
		criteria = append(criteria, Criterion{Name: "per_below_sector", Score: boolScore(*current.PER < *medianPER), Value: current.PER})
	} else {
		criteria = append(criteria, Criterion{Name: "per_below_sector", Value: current.PER, Note: "no_sector_data"})
	}

	// Criterion 9: volume increasing, needs a positive prior volume.
	if volumeCurrent != nil && volumePrevious != nil && *volumePrevious > 0 {
		computable++
		delta := float64(*volumeCurrent - *volumePrevious)
		criteria = append(criteria, Criterion{Name: "volume_increasing", Score: boolScore(*volumeCurrent > *volumePrevious), Value: &delta})
	} else {
		criteria = append(criteria, Criterion{Name: "volume_increasing", Note: "no_volume_data"})
	}

	total := 0
	for _, c := range criteria {
		total += c.Score
	}

	return FScoreResult{
		TotalScore:       total,
		MaxScore:         fscoreCriteria,
		Criteria:         criteria,
		DataCompleteness: round2(float64(computable) / float64(fscoreCriteria)),
	}
}

// ComputeGrade maps (fscore, safety margin, completeness) to the grade ladder.
// A missing margin counts as an arbitrarily bad one.
func ComputeGrade(fscore int, safetyMarginPct *float64, dataCompleteness float64) string {
	if dataCompleteness < 0.5 {
		return "F"
	}

	margin := -999.0
	if safetyMarginPct != nil {
		margin = *safetyMarginPct
	}

	switch {
	case fscore >= 8 && margin >= 30:
		return "A+"
	case fscore >= 7 && margin >= 20:
		return "A"
	case fscore >= 6 && margin >= 10:
		return "B+"
	case fscore >= 5 && margin >= 0:
		return "B"
	case fscore >= 4:
		return "C+"
	case fscore >= 3:
		return "C"
	default:
		return "D"
	}
}

func boolScore(b bool) int {
	if b {
		return 1
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
