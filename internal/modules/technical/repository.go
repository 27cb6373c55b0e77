package technical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/database"
)

const snapshotColumns = `trade_date, ticker, disparity_20d, disparity_60d, disparity_120d,
	disparity_signal, bb_upper, bb_center, bb_lower, bb_bandwidth, bb_percent_b,
	bb_signal, macd_value, macd_signal_line, macd_histogram, macd_crossover, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads technical snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a technical snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "technical").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_technical_snapshot
				(trade_date, ticker, disparity_20d, disparity_60d, disparity_120d,
				 disparity_signal, bb_upper, bb_center, bb_lower, bb_bandwidth,
				 bb_percent_b, bb_signal, macd_value, macd_signal_line,
				 macd_histogram, macd_crossover)
			VALUES
				(:trade_date, :ticker, :disparity_20d, :disparity_60d, :disparity_120d,
				 :disparity_signal, :bb_upper, :bb_center, :bb_lower, :bb_bandwidth,
				 :bb_percent_b, :bb_signal, :macd_value, :macd_signal_line,
				 :macd_histogram, :macd_crossover)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				disparity_20d = EXCLUDED.disparity_20d,
				disparity_60d = EXCLUDED.disparity_60d,
				disparity_120d = EXCLUDED.disparity_120d,
				disparity_signal = EXCLUDED.disparity_signal,
				bb_upper = EXCLUDED.bb_upper,
				bb_center = EXCLUDED.bb_center,
				bb_lower = EXCLUDED.bb_lower,
				bb_bandwidth = EXCLUDED.bb_bandwidth,
				bb_percent_b = EXCLUDED.bb_percent_b,
				bb_signal = EXCLUDED.bb_signal,
				macd_value = EXCLUDED.macd_value,
				macd_signal_line = EXCLUDED.macd_signal_line,
				macd_histogram = EXCLUDED.macd_histogram,
				macd_crossover = EXCLUDED.macd_crossover`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert technical batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// GetLatest returns the most recent snapshot for a ticker, or nil
func (r *Repository) GetLatest(ctx context.Context, ticker string) (*Snapshot, error) {
	var s Snapshot
	err := r.db.GetContext(ctx, &s, `
		SELECT `+snapshotColumns+`
		FROM analysis_technical_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load technical snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_technical_snapshot
		WHERE trade_date = $1
		ORDER BY ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list technical snapshots: %w", err)
	}
	return rows, nil
}
