package trend

import "time"

// Snapshot is one row of analysis_trend_snapshot.
// RSPercentile is filled by the cross-ticker pass after all tickers are done.
type Snapshot struct {
	TradeDate    time.Time `db:"trade_date" json:"trade_date"`
	Ticker       string    `db:"ticker" json:"ticker"`
	RSVsKospi20d *float64  `db:"rs_vs_kospi_20d" json:"rs_vs_kospi_20d"`
	RSVsKospi60d *float64  `db:"rs_vs_kospi_60d" json:"rs_vs_kospi_60d"`
	RSPercentile *int      `db:"rs_percentile" json:"rs_percentile"`
	Sector       *string   `db:"sector" json:"sector"`
	ComputedAt   time.Time `db:"computed_at" json:"computed_at"`
}
