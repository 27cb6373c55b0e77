package flow

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

const snapshotColumns = `trade_date, ticker, retail_z, retail_intensity, retail_consistency,
	retail_signal, divergence_score, smart_ratio, dumb_ratio, divergence_signal,
	shift_score, shift_signal, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads flow snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a flow snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "flow").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_flow_snapshot
				(trade_date, ticker, retail_z, retail_intensity, retail_consistency,
				 retail_signal, divergence_score, smart_ratio, dumb_ratio,
				 divergence_signal, shift_score, shift_signal)
			VALUES
				(:trade_date, :ticker, :retail_z, :retail_intensity, :retail_consistency,
				 :retail_signal, :divergence_score, :smart_ratio, :dumb_ratio,
				 :divergence_signal, :shift_score, :shift_signal)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				retail_z = EXCLUDED.retail_z,
				retail_intensity = EXCLUDED.retail_intensity,
				retail_consistency = EXCLUDED.retail_consistency,
				retail_signal = EXCLUDED.retail_signal,
				divergence_score = EXCLUDED.divergence_score,
				smart_ratio = EXCLUDED.smart_ratio,
				dumb_ratio = EXCLUDED.dumb_ratio,
				divergence_signal = EXCLUDED.divergence_signal,
				shift_score = EXCLUDED.shift_score,
				shift_signal = EXCLUDED.shift_signal`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert flow batch: %w", err)
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
		FROM analysis_flow_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flow snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_flow_snapshot
		WHERE trade_date = $1
		ORDER BY ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list flow snapshots: %w", err)
	}
	return rows, nil
}
