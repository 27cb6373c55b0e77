package quant

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Snapshot is one row of analysis_quant_snapshot.
type Snapshot struct {
	TradeDate        time.Time      `db:"trade_date" json:"trade_date"`
	Ticker           string         `db:"ticker" json:"ticker"`
	RIMValue         *float64       `db:"rim_value" json:"rim_value"`
	SafetyMargin     *float64       `db:"safety_margin" json:"safety_margin"`
	FScore           *int           `db:"fscore" json:"fscore"`
	FScoreDetail     types.JSONText `db:"fscore_detail" json:"fscore_detail"`
	InvestmentGrade  *string        `db:"investment_grade" json:"investment_grade"`
	DataCompleteness *float64       `db:"data_completeness" json:"data_completeness"`
	ComputedAt       time.Time      `db:"computed_at" json:"computed_at"`
}
