package quant

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

const snapshotColumns = `trade_date, ticker, rim_value, safety_margin, fscore,
	fscore_detail, investment_grade, data_completeness, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads quant snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a quant snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "quant").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches, updating existing rows on
// the (trade_date, ticker) key. Returns the number of rows written.
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_quant_snapshot
				(trade_date, ticker, rim_value, safety_margin, fscore,
				 fscore_detail, investment_grade, data_completeness)
			VALUES
				(:trade_date, :ticker, :rim_value, :safety_margin, :fscore,
				 :fscore_detail, :investment_grade, :data_completeness)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				rim_value = EXCLUDED.rim_value,
				safety_margin = EXCLUDED.safety_margin,
				fscore = EXCLUDED.fscore,
				fscore_detail = EXCLUDED.fscore_detail,
				investment_grade = EXCLUDED.investment_grade,
				data_completeness = EXCLUDED.data_completeness`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert quant batch: %w", err)
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
		FROM analysis_quant_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quant snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_quant_snapshot
		WHERE trade_date = $1
		ORDER BY ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list quant snapshots: %w", err)
	}
	return rows, nil
}
