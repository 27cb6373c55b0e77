package whale

import "time"

// Snapshot is one row of analysis_whale_snapshot.
type Snapshot struct {
	TradeDate                time.Time `db:"trade_date" json:"trade_date"`
	Ticker                   string    `db:"ticker" json:"ticker"`
	WhaleScore               *float64  `db:"whale_score" json:"whale_score"`
	InstitutionNet20d        *int64    `db:"institution_net_20d" json:"institution_net_20d"`
	ForeignNet20d            *int64    `db:"foreign_net_20d" json:"foreign_net_20d"`
	PensionNet20d            *int64    `db:"pension_net_20d" json:"pension_net_20d"`
	PrivateEquityNet20d      *int64    `db:"private_equity_net_20d" json:"private_equity_net_20d"`
	OtherCorpNet20d          *int64    `db:"other_corp_net_20d" json:"other_corp_net_20d"`
	InstitutionConsistency   *float64  `db:"institution_consistency" json:"institution_consistency"`
	ForeignConsistency       *float64  `db:"foreign_consistency" json:"foreign_consistency"`
	PensionConsistency       *float64  `db:"pension_consistency" json:"pension_consistency"`
	PrivateEquityConsistency *float64  `db:"private_equity_consistency" json:"private_equity_consistency"`
	OtherCorpConsistency     *float64  `db:"other_corp_consistency" json:"other_corp_consistency"`
	Signal                   *string   `db:"signal" json:"signal"`
	ComputedAt               time.Time `db:"computed_at" json:"computed_at"`
}

// NewSnapshot flattens a kernel result into a snapshot row
func NewSnapshot(tradeDate time.Time, ticker string, res Result) Snapshot {
	s := Snapshot{
		TradeDate:  tradeDate,
		Ticker:     ticker,
		WhaleScore: &res.WhaleScore,
		Signal:     &res.Signal,
	}
	if c, ok := res.Components["institution_net"]; ok {
		s.InstitutionNet20d, s.InstitutionConsistency = netAndConsistency(c)
	}
	if c, ok := res.Components["foreign_net"]; ok {
		s.ForeignNet20d, s.ForeignConsistency = netAndConsistency(c)
	}
	if c, ok := res.Components["pension_net"]; ok {
		s.PensionNet20d, s.PensionConsistency = netAndConsistency(c)
	}
	if c, ok := res.Components["private_equity_net"]; ok {
		s.PrivateEquityNet20d, s.PrivateEquityConsistency = netAndConsistency(c)
	}
	if c, ok := res.Components["other_corp_net"]; ok {
		s.OtherCorpNet20d, s.OtherCorpConsistency = netAndConsistency(c)
	}
	return s
}

func netAndConsistency(c Component) (*int64, *float64) {
	net := c.NetTotal
	consistency := c.Consistency
	return &net, &consistency
}
