// Package sentiment decomposes scored news into direction, intensity and
// confidence, and derives simulation parameter adjustments from the result.
package sentiment

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SourceWeights weight articles by outlet class.
var SourceWeights = map[string]float64{
	"financial": 1.5,
	"general":   1.0,
	"portal":    0.7,
}

// TypeWeights weight articles by content type.
var TypeWeights = map[string]float64{
	"disclosure": 2.0,
	"analyst":    1.8,
	"earnings":   1.5,
	"general":    1.0,
}

// BaseEnsembleWeights are the static simulation model weights used when no
// sentiment override applies.
var BaseEnsembleWeights = map[string]float64{
	"gbm":    0.25,
	"garch":  0.30,
	"heston": 0.20,
	"merton": 0.25,
}

// ScoredArticle is the minimal article view the kernel needs.
type ScoredArticle struct {
	SentimentRaw     float64
	PublishedAt      time.Time
	ImportanceWeight float64
	SourceType       string
	ArticleType      string
}

// Score is the three-dimensional sentiment decomposition.
type Score struct {
	Direction      float64 `json:"direction"`
	Intensity      float64 `json:"intensity"`
	Confidence     float64 `json:"confidence"`
	EffectiveScore float64 `json:"effective_score"`
	SentimentScore float64 `json:"sentiment_score"`
	Signal         string  `json:"signal"`
	ArticleCount   int     `json:"article_count"`
	Status         string  `json:"status"`
}

// Adjustments are the simulation parameter overrides derived from sentiment.
type Adjustments struct {
	DriftAdjDaily           float64            `json:"drift_adj_daily"`
	VolMultiplier           float64            `json:"vol_multiplier"`
	VarMultiplier           float64            `json:"var_multiplier"`
	ThetaMult               float64            `json:"theta_mult"`
	V0Mult                  float64            `json:"v0_mult"`
	RhoAdj                  float64            `json:"rho_adj"`
	LamMult                 float64            `json:"lam_mult"`
	MuJAdj                  float64            `json:"mu_j_adj"`
	SigJMult                float64            `json:"sig_j_mult"`
	EnsembleWeightOverrides map[string]float64 `json:"ensemble_weight_overrides,omitempty"`
}

// Params are the sentiment-to-simulation sensitivity knobs.
type Params struct {
	Alpha    float64 // annual drift sensitivity
	Beta     float64 // volatility sensitivity
	Delta    float64 // asymmetry factor for negative news
	GammaLam float64 // jump intensity sensitivity
	GammaMu  float64 // jump mean sensitivity
}

// DefaultParams returns the production sensitivities.
func DefaultParams() Params {
	return Params{Alpha: 0.08, Beta: 0.15, Delta: 0.50, GammaLam: 1.50, GammaMu: 0.03}
}

func neutralScore(articleCount int, status string) Score {
	return Score{
		SentimentScore: 50.0,
		Signal:         "neutral",
		ArticleCount:   articleCount,
		Status:         status,
	}
}

// NeutralAdjustments returns identity adjustments that leave every model
// parameter untouched.
func NeutralAdjustments() Adjustments {
	return Adjustments{
		VolMultiplier: 1.0,
		VarMultiplier: 1.0,
		ThetaMult:     1.0,
		V0Mult:        1.0,
		LamMult:       1.0,
		SigJMult:      1.0,
	}
}

// ClassifySignal maps an effective score to a signal label. Bands are
// +/-0.40 for the strong signals and +/-0.15 for the mild ones.
func ClassifySignal(effectiveScore float64) string {
	switch {
	case effectiveScore >= 0.4:
		return "strong_buy"
	case effectiveScore >= 0.15:
		return "buy"
	case effectiveScore >= -0.15:
		return "neutral"
	case effectiveScore >= -0.4:
		return "sell"
	default:
		return "strong_sell"
	}
}

// ComputeScore aggregates scored articles into a Score.
//
// Each article is weighted by exponential time decay against the newest
// article (halfLifeDays), its source class, its type, and its importance.
// Direction D is the clipped weighted mean; intensity I = |D| *
// sqrt(min(n,20)/20); confidence C = (1 - population std) * min(n,5)/5.
// The effective score is D*I*C and the 0-100 score is its linear rescale.
func ComputeScore(articles []ScoredArticle, halfLifeDays float64, minArticles int) Score {
	n := len(articles)
	if n == 0 {
		return neutralScore(0, "no_data")
	}

	status := "active"
	if n < minArticles {
		status = "insufficient"
	}

	lam := math.Ln2 / halfLifeDays

	newest := articles[0].PublishedAt
	for _, a := range articles[1:] {
		if a.PublishedAt.After(newest) {
			newest = a.PublishedAt
		}
	}

	sentiments := make([]float64, 0, n)
	weights := make([]float64, 0, n)
	totalWeight := 0.0
	for _, a := range articles {
		ageDays := newest.Sub(a.PublishedAt).Seconds() / (3600.0 * 24.0)
		if ageDays < 0 {
			ageDays = 0
		}
		decay := math.Exp(-lam * ageDays)

		srcW, ok := SourceWeights[a.SourceType]
		if !ok {
			srcW = 1.0
		}
		typeW, ok := TypeWeights[a.ArticleType]
		if !ok {
			typeW = 1.0
		}
		importance := a.ImportanceWeight
		if importance == 0 {
			importance = 1.0
		}

		w := decay * srcW * typeW * importance
		weights = append(weights, w)
		sentiments = append(sentiments, a.SentimentRaw)
		totalWeight += w
	}

	if totalWeight == 0 {
		return neutralScore(n, status)
	}

	weighted := 0.0
	for i := range sentiments {
		weighted += sentiments[i] * weights[i]
	}
	direction := clip(weighted/totalWeight, -1, 1)

	intensity := clip(math.Abs(direction)*math.Sqrt(math.Min(float64(n), 20)/20.0), 0, 1)

	sigma := 0.0
	if n > 1 {
		sigma = stat.PopStdDev(sentiments, nil)
	}
	confidence := clip((1.0-sigma)*math.Min(float64(n), 5)/5.0, 0, 1)

	effective := clip(direction*intensity*confidence, -1, 1)

	return Score{
		Direction:      direction,
		Intensity:      intensity,
		Confidence:     confidence,
		EffectiveScore: effective,
		SentimentScore: (effective + 1.0) / 2.0 * 100.0,
		Signal:         ClassifySignal(effective),
		ArticleCount:   n,
		Status:         status,
	}
}

// ComputeAdjustments derives simulation parameter overrides from a Score.
// No-data and insufficient scores map to the identity adjustments.
func ComputeAdjustments(score Score, p Params) Adjustments {
	if score.Status == "no_data" || score.Status == "insufficient" {
		return NeutralAdjustments()
	}

	s := score.EffectiveScore
	d := score.Direction
	i := score.Intensity
	c := score.Confidence

	driftCap := 0.10 / 252.0
	drift := clip(p.Alpha/252.0*s, -driftCap, driftCap)

	// Positive sentiment damps volatility, negative amplifies it with the
	// asymmetry factor applied.
	var volMult float64
	if d >= 0 {
		volMult = 1.0 - p.Beta*d*i*c
	} else {
		volMult = 1.0 + p.Beta*math.Abs(d)*(1.0+p.Delta)*i*c
	}
	volMult = clip(volMult, 0.70, 1.50)

	negS := math.Max(0, -s)

	return Adjustments{
		DriftAdjDaily:           drift,
		VolMultiplier:           volMult,
		VarMultiplier:           volMult * volMult,
		ThetaMult:               volMult * volMult,
		V0Mult:                  volMult * volMult,
		RhoAdj:                  -0.10 * negS,
		LamMult:                 clip(1.0+p.GammaLam*negS, 0.5, 3.0),
		MuJAdj:                  -p.GammaMu * negS,
		SigJMult:                clip(1.0+0.5*negS, 0.5, 2.0),
		EnsembleWeightOverrides: computeEnsembleWeights(s),
	}
}

// computeEnsembleWeights tilts the base model weights by a softmax over
// sentiment: GBM for positive news, GARCH and Merton for negative, Heston
// for either extreme.
func computeEnsembleWeights(s float64) map[string]float64 {
	phi := map[string]float64{
		"gbm":    1.0 * s,
		"garch":  0.8 * -s,
		"heston": 0.6 * math.Abs(s),
		"merton": 1.2 * math.Max(0, -s),
	}

	out := make(map[string]float64, len(BaseEnsembleWeights))
	total := 0.0
	for model, base := range BaseEnsembleWeights {
		w := base * math.Exp(phi[model])
		out[model] = w
		total += w
	}
	if total == 0 {
		for model, base := range BaseEnsembleWeights {
			out[model] = base
		}
		return out
	}
	for model := range out {
		out[model] /= total
	}
	return out
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
