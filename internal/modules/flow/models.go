package flow

import "time"

// Snapshot is one row of analysis_flow_snapshot.
type Snapshot struct {
	TradeDate         time.Time `db:"trade_date" json:"trade_date"`
	Ticker            string    `db:"ticker" json:"ticker"`
	RetailZ           *float64  `db:"retail_z" json:"retail_z"`
	RetailIntensity   *float64  `db:"retail_intensity" json:"retail_intensity"`
	RetailConsistency *float64  `db:"retail_consistency" json:"retail_consistency"`
	RetailSignal      *string   `db:"retail_signal" json:"retail_signal"`
	DivergenceScore   *float64  `db:"divergence_score" json:"divergence_score"`
	SmartRatio        *float64  `db:"smart_ratio" json:"smart_ratio"`
	DumbRatio         *float64  `db:"dumb_ratio" json:"dumb_ratio"`
	DivergenceSignal  *string   `db:"divergence_signal" json:"divergence_signal"`
	ShiftScore        *float64  `db:"shift_score" json:"shift_score"`
	ShiftSignal       *string   `db:"shift_signal" json:"shift_signal"`
	ComputedAt        time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot flattens the three kernel results into a snapshot row
func NewSnapshot(tradeDate time.Time, ticker string, retail RetailResult, divergence DivergenceResult, shift ShiftResult) Snapshot {
	return Snapshot{
		TradeDate:         tradeDate,
		Ticker:            ticker,
		RetailZ:           &retail.RetailZ,
		RetailIntensity:   &retail.RetailIntensity,
		RetailConsistency: &retail.RetailConsistency,
		RetailSignal:      &retail.Signal,
		DivergenceScore:   &divergence.DivergenceScore,
		SmartRatio:        &divergence.SmartRatio,
		DumbRatio:         &divergence.DumbRatio,
		DivergenceSignal:  &divergence.Signal,
		ShiftScore:        &shift.ShiftScore,
		ShiftSignal:       &shift.Signal,
	}
}
