package risk

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

const snapshotColumns = `trade_date, ticker, volatility_20d, volatility_60d, volatility_1y,
	risk_level, beta_60d, beta_252d, beta_interpretation, mdd_60d, mdd_1y,
	current_drawdown, recovery_label, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads risk snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a risk snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "risk").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_risk_snapshot
				(trade_date, ticker, volatility_20d, volatility_60d, volatility_1y,
				 risk_level, beta_60d, beta_252d, beta_interpretation, mdd_60d,
				 mdd_1y, current_drawdown, recovery_label)
			VALUES
				(:trade_date, :ticker, :volatility_20d, :volatility_60d, :volatility_1y,
				 :risk_level, :beta_60d, :beta_252d, :beta_interpretation, :mdd_60d,
				 :mdd_1y, :current_drawdown, :recovery_label)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				volatility_20d = EXCLUDED.volatility_20d,
				volatility_60d = EXCLUDED.volatility_60d,
				volatility_1y = EXCLUDED.volatility_1y,
				risk_level = EXCLUDED.risk_level,
				beta_60d = EXCLUDED.beta_60d,
				beta_252d = EXCLUDED.beta_252d,
				beta_interpretation = EXCLUDED.beta_interpretation,
				mdd_60d = EXCLUDED.mdd_60d,
				mdd_1y = EXCLUDED.mdd_1y,
				current_drawdown = EXCLUDED.current_drawdown,
				recovery_label = EXCLUDED.recovery_label`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert risk batch: %w", err)
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
		FROM analysis_risk_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load risk snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_risk_snapshot
		WHERE trade_date = $1
		ORDER BY ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk snapshots: %w", err)
	}
	return rows, nil
}
