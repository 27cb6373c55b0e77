package simulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/database"
)

const snapshotColumns = `trade_date, ticker, simulation_score, simulation_grade, base_price,
	mu, sigma, num_simulations, input_days_used, horizons, target_probs,
	model_breakdown, sentiment_applied, computed_at`

const upsertBatchSize = 500

// NewSnapshot converts a Result into a snapshot row, marshalling the
// nested horizon and probability maps into JSONB payloads.
func NewSnapshot(tradeDate time.Time, ticker string, res *Result, sentimentApplied bool) (Snapshot, error) {
	horizons, err := json.Marshal(res.Horizons)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal horizons: %w", err)
	}
	targetProbs, err := json.Marshal(res.TargetProbs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal target probs: %w", err)
	}

	var breakdown *types.JSONText
	if res.ModelBreakdown != nil {
		raw, err := json.Marshal(res.ModelBreakdown)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to marshal model breakdown: %w", err)
		}
		jt := types.JSONText(raw)
		breakdown = &jt
	}

	return Snapshot{
		TradeDate:        tradeDate,
		Ticker:           ticker,
		SimulationScore:  res.SimulationScore,
		SimulationGrade:  res.SimulationGrade,
		BasePrice:        &res.BasePrice,
		Mu:               &res.Mu,
		Sigma:            &res.Sigma,
		NumSimulations:   &res.NumSimulations,
		InputDaysUsed:    &res.InputDaysUsed,
		Horizons:         types.JSONText(horizons),
		TargetProbs:      types.JSONText(targetProbs),
		ModelBreakdown:   breakdown,
		SentimentApplied: &sentimentApplied,
	}, nil
}

// Repository persists and reads simulation snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a simulation snapshot repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "simulation").Logger(),
	}
}

// Upsert writes snapshots in fixed-size batches on the (trade_date, ticker) key
func (r *Repository) Upsert(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, upsertBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_simulation_snapshot
				(trade_date, ticker, simulation_score, simulation_grade, base_price,
				 mu, sigma, num_simulations, input_days_used, horizons,
				 target_probs, model_breakdown, sentiment_applied)
			VALUES
				(:trade_date, :ticker, :simulation_score, :simulation_grade, :base_price,
				 :mu, :sigma, :num_simulations, :input_days_used, :horizons,
				 :target_probs, :model_breakdown, :sentiment_applied)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				simulation_score = EXCLUDED.simulation_score,
				simulation_grade = EXCLUDED.simulation_grade,
				base_price = EXCLUDED.base_price,
				mu = EXCLUDED.mu,
				sigma = EXCLUDED.sigma,
				num_simulations = EXCLUDED.num_simulations,
				input_days_used = EXCLUDED.input_days_used,
				horizons = EXCLUDED.horizons,
				target_probs = EXCLUDED.target_probs,
				model_breakdown = EXCLUDED.model_breakdown,
				sentiment_applied = EXCLUDED.sentiment_applied`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert simulation batch: %w", err)
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
		FROM analysis_simulation_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load simulation snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListByDate returns all snapshots for one trade date
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_simulation_snapshot
		WHERE trade_date = $1
		ORDER BY simulation_score DESC NULLS LAST, ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulation snapshots: %w", err)
	}
	return rows, nil
}
