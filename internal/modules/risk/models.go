package risk

import "time"

// Snapshot is one row of analysis_risk_snapshot.
type Snapshot struct {
	TradeDate          time.Time `db:"trade_date" json:"trade_date"`
	Ticker             string    `db:"ticker" json:"ticker"`
	Volatility20d      *float64  `db:"volatility_20d" json:"volatility_20d"`
	Volatility60d      *float64  `db:"volatility_60d" json:"volatility_60d"`
	Volatility1y       *float64  `db:"volatility_1y" json:"volatility_1y"`
	RiskLevel          *string   `db:"risk_level" json:"risk_level"`
	Beta60d            *float64  `db:"beta_60d" json:"beta_60d"`
	Beta252d           *float64  `db:"beta_252d" json:"beta_252d"`
	BetaInterpretation *string   `db:"beta_interpretation" json:"beta_interpretation"`
	MDD60d             *float64  `db:"mdd_60d" json:"mdd_60d"`
	MDD1y              *float64  `db:"mdd_1y" json:"mdd_1y"`
	CurrentDrawdown    *float64  `db:"current_drawdown" json:"current_drawdown"`
	RecoveryLabel      *string   `db:"recovery_label" json:"recovery_label"`
	ComputedAt         time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot flattens the three kernel results into a snapshot row
func NewSnapshot(tradeDate time.Time, ticker string, vol VolatilityResult, beta BetaResult, dd DrawdownResult) Snapshot {
	return Snapshot{
		TradeDate:          tradeDate,
		Ticker:             ticker,
		Volatility20d:      vol.Volatility20d,
		Volatility60d:      vol.Volatility60d,
		Volatility1y:       vol.Volatility1y,
		RiskLevel:          &vol.RiskLevel,
		Beta60d:            beta.Beta60d,
		Beta252d:           beta.Beta252d,
		BetaInterpretation: &beta.Interpretation,
		MDD60d:             dd.MDD60d,
		MDD1y:              dd.MDD1y,
		CurrentDrawdown:    dd.CurrentDrawdown,
		RecoveryLabel:      &dd.RecoveryLabel,
	}
}
