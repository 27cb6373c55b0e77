package whale

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

const snapshotColumns = `trade_date, ticker, whale_score,
	institution_net_20d, foreign_net_20d, pension_net_20d,
	private_equity_net_20d, other_corp_net_20d,
	institution_consistency, foreign_consistency, pension_consistency,
	private_equity_consistency, other_corp_consistency, signal, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads whale snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a whale snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "whale").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_whale_snapshot
				(trade_date, ticker, whale_score,
				 institution_net_20d, foreign_net_20d, pension_net_20d,
				 private_equity_net_20d, other_corp_net_20d,
				 institution_consistency, foreign_consistency, pension_consistency,
				 private_equity_consistency, other_corp_consistency, signal)
			VALUES
				(:trade_date, :ticker, :whale_score,
				 :institution_net_20d, :foreign_net_20d, :pension_net_20d,
				 :private_equity_net_20d, :other_corp_net_20d,
				 :institution_consistency, :foreign_consistency, :pension_consistency,
				 :private_equity_consistency, :other_corp_consistency, :signal)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				whale_score = EXCLUDED.whale_score,
				institution_net_20d = EXCLUDED.institution_net_20d,
				foreign_net_20d = EXCLUDED.foreign_net_20d,
				pension_net_20d = EXCLUDED.pension_net_20d,
				private_equity_net_20d = EXCLUDED.private_equity_net_20d,
				other_corp_net_20d = EXCLUDED.other_corp_net_20d,
				institution_consistency = EXCLUDED.institution_consistency,
				foreign_consistency = EXCLUDED.foreign_consistency,
				pension_consistency = EXCLUDED.pension_consistency,
				private_equity_consistency = EXCLUDED.private_equity_consistency,
				other_corp_consistency = EXCLUDED.other_corp_consistency,
				signal = EXCLUDED.signal`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert whale batch: %w", err)
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
		FROM analysis_whale_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load whale snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_whale_snapshot
		WHERE trade_date = $1
		ORDER BY whale_score DESC NULLS LAST`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list whale snapshots: %w", err)
	}
	return rows, nil
}
