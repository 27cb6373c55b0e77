// Package simulation runs the multi-model Monte Carlo forecast stage:
// GBM, GARCH, Heston and Merton path simulators pooled into a weighted
// ensemble with per-horizon statistics.
package simulation

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	tradingDaysPerYear = 252

	// Annual drift cap of +/-100%, applied to the daily arithmetic drift.
	maxDailyMu = 1.0 / tradingDaysPerYear
)

// DefaultHorizons are the forward horizons in trading days (1M/3M/6M/1Y).
var DefaultHorizons = []int{21, 63, 126, 252}

// DefaultTargetMultipliers are the price targets for probability analysis.
var DefaultTargetMultipliers = []float64{1.1, 1.2, 1.5}

var horizonLabels = map[int]string{
	21:  "1개월",
	63:  "3개월",
	126: "6개월",
	252: "1년",
}

// HorizonStats summarises the terminal price distribution at one horizon.
type HorizonStats struct {
	Label             string  `json:"label"`
	P5                int64   `json:"p5"`
	P25               int64   `json:"p25"`
	P50               int64   `json:"p50"`
	P75               int64   `json:"p75"`
	P95               int64   `json:"p95"`
	ExpectedReturnPct float64 `json:"expected_return_pct"`
	Var5PctPct        float64 `json:"var_5pct_pct"`
	UpsideProb        float64 `json:"upside_prob"`
}

// ModelResult is one simulator's output across all horizons.
type ModelResult struct {
	Model          string
	TerminalPrices map[int][]float64
	Horizons       map[int]HorizonStats
}

// ModelScore is one entry of the ensemble breakdown.
type ModelScore struct {
	Model  string   `json:"model"`
	Score  *float64 `json:"score"`
	Weight float64  `json:"weight"`
}

// ModelBreakdown records how the ensemble was assembled.
type ModelBreakdown struct {
	ModelScores    []ModelScore       `json:"model_scores"`
	ModelWeights   map[string]float64 `json:"model_weights"`
	EnsembleMethod string             `json:"ensemble_method"`
}

// Result is the combined simulation outcome for one ticker.
type Result struct {
	SimulationScore *float64
	SimulationGrade *string
	BasePrice       int64
	Mu              float64
	Sigma           float64
	NumSimulations  int
	InputDaysUsed   int
	Horizons        map[string]HorizonStats
	TargetProbs     map[string]map[string]float64
	ModelBreakdown  *ModelBreakdown
}

// Snapshot is one row of analysis_simulation_snapshot.
type Snapshot struct {
	TradeDate        time.Time       `db:"trade_date" json:"trade_date"`
	Ticker           string          `db:"ticker" json:"ticker"`
	SimulationScore  *float64        `db:"simulation_score" json:"simulation_score"`
	SimulationGrade  *string         `db:"simulation_grade" json:"simulation_grade"`
	BasePrice        *int64          `db:"base_price" json:"base_price"`
	Mu               *float64        `db:"mu" json:"mu"`
	Sigma            *float64        `db:"sigma" json:"sigma"`
	NumSimulations   *int            `db:"num_simulations" json:"num_simulations"`
	InputDaysUsed    *int            `db:"input_days_used" json:"input_days_used"`
	Horizons         types.JSONText  `db:"horizons" json:"horizons"`
	TargetProbs      types.JSONText  `db:"target_probs" json:"target_probs"`
	ModelBreakdown   *types.JSONText `db:"model_breakdown" json:"model_breakdown"`
	SentimentApplied *bool           `db:"sentiment_applied" json:"sentiment_applied"`
	ComputedAt       time.Time       `db:"computed_at" json:"computed_at"`
}
