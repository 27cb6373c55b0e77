package composite

import "time"

// Snapshot is one row of analysis_composite_snapshot.
type Snapshot struct {
	TradeDate         time.Time `db:"trade_date" json:"trade_date"`
	Ticker            string    `db:"ticker" json:"ticker"`
	CompositeScore    *float64  `db:"composite_score" json:"composite_score"`
	ValueScore        *float64  `db:"value_score" json:"value_score"`
	FlowScore         *float64  `db:"flow_score" json:"flow_score"`
	MomentumScore     *float64  `db:"momentum_score" json:"momentum_score"`
	ForecastScore     *float64  `db:"forecast_score" json:"forecast_score"`
	SentimentScore    *float64  `db:"sentiment_score" json:"sentiment_score"`
	Confidence        *float64  `db:"confidence" json:"confidence"`
	AxesAvailable     *int      `db:"axes_available" json:"axes_available"`
	ConfluenceTier    *int      `db:"confluence_tier" json:"confluence_tier"`
	ConfluencePattern *string   `db:"confluence_pattern" json:"confluence_pattern"`
	DivergenceType    *string   `db:"divergence_type" json:"divergence_type"`
	DivergenceLabel   *string   `db:"divergence_label" json:"divergence_label"`
	ActionLabel       *string   `db:"action_label" json:"action_label"`
	ActionDescription *string   `db:"action_description" json:"action_description"`
	ScoreTier         *string   `db:"score_tier" json:"score_tier"`
	ScoreLabel        *string   `db:"score_label" json:"score_label"`
	ScoreColor        *string   `db:"score_color" json:"score_color"`
	ComputedAt        time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot flattens score, confluence and tier into a snapshot row
func NewSnapshot(tradeDate time.Time, ticker string, score ScoreResult, conf ConfluenceResult, tier TierInfo) Snapshot {
	return Snapshot{
		TradeDate:         tradeDate,
		Ticker:            ticker,
		CompositeScore:    score.CompositeScore,
		ValueScore:        score.ValueScore,
		FlowScore:         score.FlowScore,
		MomentumScore:     score.MomentumScore,
		ForecastScore:     score.ForecastScore,
		SentimentScore:    score.SentimentScore,
		Confidence:        &score.Confidence,
		AxesAvailable:     &score.AxesAvailable,
		ConfluenceTier:    &conf.ConfluenceTier,
		ConfluencePattern: &conf.ConfluencePattern,
		DivergenceType:    conf.DivergenceType,
		DivergenceLabel:   conf.DivergenceLabel,
		ActionLabel:       &conf.ActionLabel,
		ActionDescription: &conf.ActionDescription,
		ScoreTier:         &tier.Tier,
		ScoreLabel:        &tier.Label,
		ScoreColor:        &tier.Color,
	}
}
