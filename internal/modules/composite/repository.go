package composite

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

const snapshotColumns = `trade_date, ticker, composite_score, value_score, flow_score,
	momentum_score, forecast_score, sentiment_score, confidence, axes_available,
	confluence_tier, confluence_pattern, divergence_type, divergence_label,
	action_label, action_description, score_tier, score_label, score_color, computed_at`

const upsertBatchSize = 1000

// Repository persists and reads composite snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a composite snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "composite").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_composite_snapshot
				(trade_date, ticker, composite_score, value_score, flow_score,
				 momentum_score, forecast_score, sentiment_score, confidence,
				 axes_available, confluence_tier, confluence_pattern, divergence_type,
				 divergence_label, action_label, action_description, score_tier,
				 score_label, score_color)
			VALUES
				(:trade_date, :ticker, :composite_score, :value_score, :flow_score,
				 :momentum_score, :forecast_score, :sentiment_score, :confidence,
				 :axes_available, :confluence_tier, :confluence_pattern, :divergence_type,
				 :divergence_label, :action_label, :action_description, :score_tier,
				 :score_label, :score_color)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				composite_score = EXCLUDED.composite_score,
				value_score = EXCLUDED.value_score,
				flow_score = EXCLUDED.flow_score,
				momentum_score = EXCLUDED.momentum_score,
				forecast_score = EXCLUDED.forecast_score,
				sentiment_score = EXCLUDED.sentiment_score,
				confidence = EXCLUDED.confidence,
				axes_available = EXCLUDED.axes_available,
				confluence_tier = EXCLUDED.confluence_tier,
				confluence_pattern = EXCLUDED.confluence_pattern,
				divergence_type = EXCLUDED.divergence_type,
				divergence_label = EXCLUDED.divergence_label,
				action_label = EXCLUDED.action_label,
				action_description = EXCLUDED.action_description,
				score_tier = EXCLUDED.score_tier,
				score_label = EXCLUDED.score_label,
				score_color = EXCLUDED.score_color`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert composite batch: %w", err)
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
		FROM analysis_composite_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load composite snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date ranked by score
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_composite_snapshot
		WHERE trade_date = $1
		ORDER BY composite_score DESC NULLS LAST, ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list composite snapshots: %w", err)
	}
	return rows, nil
}

// TopByDate returns the N highest composite scores for one trade date
func (r *Repository) TopByDate(ctx context.Context, date time.Time, limit int) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_composite_snapshot
		WHERE trade_date = $1 AND composite_score IS NOT NULL
		ORDER BY composite_score DESC, ticker
		LIMIT $2`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top composite snapshots: %w", err)
	}
	return rows, nil
}
