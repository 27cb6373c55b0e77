package trend

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

const snapshotColumns = `trade_date, ticker, rs_vs_kospi_20d, rs_vs_kospi_60d,
	rs_percentile, sector, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads trend snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a trend snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trend").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_trend_snapshot
				(trade_date, ticker, rs_vs_kospi_20d, rs_vs_kospi_60d, rs_percentile, sector)
			VALUES
				(:trade_date, :ticker, :rs_vs_kospi_20d, :rs_vs_kospi_60d, :rs_percentile, :sector)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				rs_vs_kospi_20d = EXCLUDED.rs_vs_kospi_20d,
				rs_vs_kospi_60d = EXCLUDED.rs_vs_kospi_60d,
				rs_percentile = EXCLUDED.rs_percentile,
				sector = EXCLUDED.sector`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert trend batch: %w", err)
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
		FROM analysis_trend_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trend snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date ranked by percentile
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_trend_snapshot
		WHERE trade_date = $1
		ORDER BY rs_percentile DESC NULLS LAST`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list trend snapshots: %w", err)
	}
	return rows, nil
}
