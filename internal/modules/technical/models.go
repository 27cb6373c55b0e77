package technical

import "time"

// Snapshot is one row of analysis_technical_snapshot.
type Snapshot struct {
	TradeDate       time.Time `db:"trade_date" json:"trade_date"`
	Ticker          string    `db:"ticker" json:"ticker"`
	Disparity20d    *float64  `db:"disparity_20d" json:"disparity_20d"`
	Disparity60d    *float64  `db:"disparity_60d" json:"disparity_60d"`
	Disparity120d   *float64  `db:"disparity_120d" json:"disparity_120d"`
	DisparitySignal *string   `db:"disparity_signal" json:"disparity_signal"`
	BBUpper         *float64  `db:"bb_upper" json:"bb_upper"`
	BBCenter        *float64  `db:"bb_center" json:"bb_center"`
	BBLower         *float64  `db:"bb_lower" json:"bb_lower"`
	BBBandwidth     *float64  `db:"bb_bandwidth" json:"bb_bandwidth"`
	BBPercentB      *float64  `db:"bb_percent_b" json:"bb_percent_b"`
	BBSignal        *string   `db:"bb_signal" json:"bb_signal"`
	MACDValue       *float64  `db:"macd_value" json:"macd_value"`
	MACDSignalLine  *float64  `db:"macd_signal_line" json:"macd_signal_line"`
	MACDHistogram   *float64  `db:"macd_histogram" json:"macd_histogram"`
	MACDCrossover   *string   `db:"macd_crossover" json:"macd_crossover"`
	ComputedAt      time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot flattens the three indicator results into a snapshot row
func NewSnapshot(tradeDate time.Time, ticker string, disparity DisparityResult, bollinger BollingerResult, macd MACDResult) Snapshot {
	return Snapshot{
		TradeDate:       tradeDate,
		Ticker:          ticker,
		Disparity20d:    disparity.Disparity20d,
		Disparity60d:    disparity.Disparity60d,
		Disparity120d:   disparity.Disparity120d,
		DisparitySignal: &disparity.Signal,
		BBUpper:         bollinger.Upper,
		BBCenter:        bollinger.Center,
		BBLower:         bollinger.Lower,
		BBBandwidth:     bollinger.Bandwidth,
		BBPercentB:      bollinger.PercentB,
		BBSignal:        &bollinger.Signal,
		MACDValue:       macd.MACD,
		MACDSignalLine:  macd.SignalLine,
		MACDHistogram:   macd.Histogram,
		MACDCrossover:   &macd.Crossover,
	}
}
