package sectorflow

import "time"

// Snapshot is one row of analysis_sector_flow_snapshot.
type Snapshot struct {
	TradeDate    time.Time `db:"trade_date" json:"trade_date"`
	Sector       string    `db:"sector" json:"sector"`
	InvestorType string    `db:"investor_type" json:"investor_type"`
	NetPurchase  *int64    `db:"net_purchase" json:"net_purchase"`
	Intensity    *float64  `db:"intensity" json:"intensity"`
	Consistency  *float64  `db:"consistency" json:"consistency"`
	Signal       *string   `db:"signal" json:"signal"`
	Trend5d      *int64    `db:"trend_5d" json:"trend_5d"`
	Trend20d     *int64    `db:"trend_20d" json:"trend_20d"`
	StockCount   *int      `db:"stock_count" json:"stock_count"`
	ComputedAt   time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot converts a Flow into a snapshot row
func NewSnapshot(tradeDate time.Time, f Flow) Snapshot {
	return Snapshot{
		TradeDate:    tradeDate,
		Sector:       f.Sector,
		InvestorType: f.InvestorType,
		NetPurchase:  &f.NetPurchase,
		Intensity:    &f.Intensity,
		Consistency:  &f.Consistency,
		Signal:       &f.Signal,
		Trend5d:      &f.Trend5d,
		Trend20d:     &f.Trend20d,
		StockCount:   &f.StockCount,
	}
}
