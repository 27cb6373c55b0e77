// Package market provides read access to the collected market data:
// the stock universe, daily OHLCV bars, fundamentals, per-investor net
// flows, market indices, and sector membership.
package market

import "time"

// Stock is one row of the listed-stock universe.
type Stock struct {
	Ticker       string     `db:"ticker"`
	Name         string     `db:"name"`
	Market       string     `db:"market"`
	ListedDate   *time.Time `db:"listed_date"`
	DelistedDate *time.Time `db:"delisted_date"`
	IsActive     bool       `db:"is_active"`
}

// OhlcvBar is one daily price bar. Prices are integer won.
type OhlcvBar struct {
	TradeDate    time.Time `db:"trade_date"`
	Ticker       string    `db:"ticker"`
	Open         *int64    `db:"open"`
	High         *int64    `db:"high"`
	Low          *int64    `db:"low"`
	Close        int64     `db:"close"`
	Volume       int64     `db:"volume"`
	TradingValue *int64    `db:"trading_value"`
	ChangeRate   *float64  `db:"change_rate"`
}

// Fundamental is one daily fundamentals row. Any field may be absent.
type Fundamental struct {
	TradeDate time.Time `db:"trade_date"`
	Ticker    string    `db:"ticker"`
	BPS       *float64  `db:"bps"`
	PER       *float64  `db:"per"`
	PBR       *float64  `db:"pbr"`
	EPS       *float64  `db:"eps"`
	Div       *float64  `db:"div"`
	DPS       *float64  `db:"dps"`
	ROE       *float64  `db:"roe"`
}

// InvestorFlow is one daily per-investor-class net purchase row (won).
type InvestorFlow struct {
	TradeDate          time.Time `db:"trade_date"`
	Ticker             string    `db:"ticker"`
	InstitutionNet     *int64    `db:"institution_net"`
	ForeignNet         *int64    `db:"foreign_net"`
	IndividualNet      *int64    `db:"individual_net"`
	PensionNet         *int64    `db:"pension_net"`
	FinancialInvestNet *int64    `db:"financial_invest_net"`
	InsuranceNet       *int64    `db:"insurance_net"`
	TrustNet           *int64    `db:"trust_net"`
	PrivateEquityNet   *int64    `db:"private_equity_net"`
	BankNet            *int64    `db:"bank_net"`
	OtherFinancialNet  *int64    `db:"other_financial_net"`
	OtherCorpNet       *int64    `db:"other_corp_net"`
	OtherForeignNet    *int64    `db:"other_foreign_net"`
	TotalNet           *int64    `db:"total_net"`
}

// Net returns the named investor class net flow, or (0, false) when absent.
func (f *InvestorFlow) Net(class string) (int64, bool) {
	var v *int64
	switch class {
	case "institution_net":
		v = f.InstitutionNet
	case "foreign_net":
		v = f.ForeignNet
	case "individual_net":
		v = f.IndividualNet
	case "pension_net":
		v = f.PensionNet
	case "private_equity_net":
		v = f.PrivateEquityNet
	case "other_corp_net":
		v = f.OtherCorpNet
	case "total_net":
		v = f.TotalNet
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// IndexBar is one daily market-index bar.
type IndexBar struct {
	TradeDate  time.Time `db:"trade_date"`
	IndexCode  string    `db:"index_code"`
	IndexName  string    `db:"index_name"`
	Close      float64   `db:"close"`
	ChangeRate *float64  `db:"change_rate"`
}

// Market index codes used as benchmarks.
const (
	IndexKOSPI  = "1001"
	IndexKOSDAQ = "2001"
)
