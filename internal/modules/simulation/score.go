package simulation

import "math"

// Score weights: 6-month expected return, 3-month upside probability,
// 3-month 5% VaR.
const (
	weightMeanReturn6m = 0.40
	weightUpsideProb3m = 0.35
	weightNegVar3m     = 0.25
)

// ComputeScore derives a 0-100 simulation score from horizon statistics.
// Returns nil score and grade when the 63d or 126d horizons are missing.
func ComputeScore(horizons map[int]HorizonStats) (*float64, *string) {
	h126, ok126 := horizons[126]
	h63, ok63 := horizons[63]
	if !ok126 || !ok63 {
		return nil, nil
	}

	normReturn := sigmoid100(h126.ExpectedReturnPct, 0, 20)
	normUpside := h63.UpsideProb * 100
	normVar := sigmoid100(h63.Var5PctPct, -15, 10)

	score := round2(clip(
		weightMeanReturn6m*normReturn+weightUpsideProb3m*normUpside+weightNegVar3m*normVar,
		0, 100))

	var grade string
	switch {
	case score >= 70:
		grade = "positive"
	case score >= 50:
		grade = "neutral_positive"
	case score >= 30:
		grade = "neutral"
	default:
		grade = "negative"
	}
	return &score, &grade
}

// sigmoid100 maps a value to 0-100. The return axis centers at 0 with a
// 20-point scale; the VaR axis centers at -15 with a 10-point scale so a
// 15% three-month loss scores neutral.
func sigmoid100(value, center, scale float64) float64 {
	return 100.0 / (1.0 + math.Exp(-(value-center)/scale))
}
