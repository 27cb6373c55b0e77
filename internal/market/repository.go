package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const ohlcvColumns = `trade_date, ticker, open, high, low, close, volume, trading_value, change_rate`

const fundamentalColumns = `trade_date, ticker, bps, per, pbr, eps, div, dps, roe`

const investorColumns = `trade_date, ticker, institution_net, foreign_net, individual_net,
	pension_net, financial_invest_net, insurance_net, trust_net, private_equity_net,
	bank_net, other_financial_net, other_corp_net, other_foreign_net, total_net`

// Repository provides read-only access to the collected market data.
// The engine never writes through it.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a market data repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "market").Logger(),
	}
}

// ActiveStocks returns all active tickers with their display names
func (r *Repository) ActiveStocks(ctx context.Context) ([]Stock, error) {
	var stocks []Stock
	err := r.db.SelectContext(ctx, &stocks, `
		SELECT ticker, name, market, listed_date, delisted_date, is_active
		FROM stocks
		WHERE is_active = TRUE
		ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to load active stocks: %w", err)
	}
	return stocks, nil
}

// Stock returns a single stock row, or nil when unknown
func (r *Repository) Stock(ctx context.Context, ticker string) (*Stock, error) {
	var s Stock
	err := r.db.GetContext(ctx, &s, `
		SELECT ticker, name, market, listed_date, delisted_date, is_active
		FROM stocks WHERE ticker = $1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock %s: %w", ticker, err)
	}
	return &s, nil
}

// PriceHistory returns daily bars for one ticker in [from, to], oldest first
func (r *Repository) PriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]OhlcvBar, error) {
	var bars []OhlcvBar
	err := r.db.SelectContext(ctx, &bars, `
		SELECT `+ohlcvColumns+`
		FROM daily_ohlcv
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", ticker, err)
	}
	return bars, nil
}

// FundamentalAt returns the fundamentals row at exactly the given date, or nil
func (r *Repository) FundamentalAt(ctx context.Context, ticker string, date time.Time) (*Fundamental, error) {
	var f Fundamental
	err := r.db.GetContext(ctx, &f, `
		SELECT `+fundamentalColumns+`
		FROM fundamentals
		WHERE ticker = $1 AND trade_date = $2`, ticker, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fundamentals for %s at %s: %w", ticker, date.Format("2006-01-02"), err)
	}
	return &f, nil
}

// LatestFundamentalBefore returns the most recent fundamentals row at or
// before the given date, or nil when none exists
func (r *Repository) LatestFundamentalBefore(ctx context.Context, ticker string, date time.Time) (*Fundamental, error) {
	var f Fundamental
	err := r.db.GetContext(ctx, &f, `
		SELECT `+fundamentalColumns+`
		FROM fundamentals
		WHERE ticker = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT 1`, ticker, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prior fundamentals for %s: %w", ticker, err)
	}
	return &f, nil
}

// FundamentalCrossSection returns every ticker's fundamentals at the given date
func (r *Repository) FundamentalCrossSection(ctx context.Context, date time.Time) ([]Fundamental, error) {
	var rows []Fundamental
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+fundamentalColumns+`
		FROM fundamentals
		WHERE trade_date = $1`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load fundamental cross-section: %w", err)
	}
	return rows, nil
}

// InvestorHistory returns daily investor flows for one ticker in [from, to], oldest first
func (r *Repository) InvestorHistory(ctx context.Context, ticker string, from, to time.Time) ([]InvestorFlow, error) {
	var flows []InvestorFlow
	err := r.db.SelectContext(ctx, &flows, `
		SELECT `+investorColumns+`
		FROM investor_trading
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load investor history for %s: %w", ticker, err)
	}
	return flows, nil
}

// AvgTradingValue returns the average daily traded value for one ticker
// over [from, to]. Returns 0 when no rows carry a traded value.
func (r *Repository) AvgTradingValue(ctx context.Context, ticker string, from, to time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.GetContext(ctx, &avg, `
		SELECT AVG(trading_value)
		FROM daily_ohlcv
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		  AND trading_value IS NOT NULL`, ticker, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to load avg trading value for %s: %w", ticker, err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// IndexHistory returns daily index bars for one index code in [from, to], oldest first
func (r *Repository) IndexHistory(ctx context.Context, indexCode string, from, to time.Time) ([]IndexBar, error) {
	var bars []IndexBar
	err := r.db.SelectContext(ctx, &bars, `
		SELECT trade_date, index_code, index_name, close, change_rate
		FROM market_index
		WHERE index_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date`, indexCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load index history for %s: %w", indexCode, err)
	}
	return bars, nil
}

// SectorMap returns the full ticker to sector dictionary
func (r *Repository) SectorMap(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT ticker, sector FROM sector_mapping`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sector map: %w", err)
	}
	defer rows.Close()

	sectors := make(map[string]string)
	for rows.Next() {
		var ticker, sector string
		if err := rows.Scan(&ticker, &sector); err != nil {
			return nil, fmt.Errorf("failed to scan sector row: %w", err)
		}
		sectors[ticker] = sector
	}
	return sectors, rows.Err()
}

// LatestTradingDate returns the most recent date with OHLCV rows at or
// before the given date, or nil when the store is empty
func (r *Repository) LatestTradingDate(ctx context.Context, atOrBefore time.Time) (*time.Time, error) {
	var d sql.NullTime
	err := r.db.GetContext(ctx, &d, `
		SELECT MAX(trade_date) FROM daily_ohlcv WHERE trade_date <= $1`, atOrBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest trading date: %w", err)
	}
	if !d.Valid {
		return nil, nil
	}
	return &d.Time, nil
}
