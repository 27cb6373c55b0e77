package sectorflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/database"
)

const snapshotColumns = `trade_date, sector, investor_type, net_purchase, intensity,
	consistency, signal, trend_5d, trend_20d, stock_count, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads sector flow snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a sector flow snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "sectorflow").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the
// (trade_date, sector, investor_type) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_sector_flow_snapshot
				(trade_date, sector, investor_type, net_purchase, intensity,
				 consistency, signal, trend_5d, trend_20d, stock_count)
			VALUES
				(:trade_date, :sector, :investor_type, :net_purchase, :intensity,
				 :consistency, :signal, :trend_5d, :trend_20d, :stock_count)
			ON CONFLICT (trade_date, sector, investor_type) DO UPDATE SET
				net_purchase = EXCLUDED.net_purchase,
				intensity = EXCLUDED.intensity,
				consistency = EXCLUDED.consistency,
				signal = EXCLUDED.signal,
				trend_5d = EXCLUDED.trend_5d,
				trend_20d = EXCLUDED.trend_20d,
				stock_count = EXCLUDED.stock_count`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert sector flow batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// ListByDate returns all sector flows for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_sector_flow_snapshot
		WHERE trade_date = $1
		ORDER BY sector, investor_type`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list sector flow snapshots: %w", err)
	}
	return rows, nil
}

// ListBySector returns the flow history for one sector ordered newest first
func (r *Repository) ListBySector(ctx context.Context, sector string, limit int) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_sector_flow_snapshot
		WHERE sector = $1
		ORDER BY trade_date DESC, investor_type
		LIMIT $2`, sector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows for sector %s: %w", sector, err)
	}
	return rows, nil
}
