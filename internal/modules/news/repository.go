package news

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

const snapshotColumns = `trade_date, ticker, sentiment_score, direction, intensity,
	confidence, effective_score, sentiment_signal, article_count, status,
	source_breakdown, computed_at`

const articleColumns = `id, ticker, title, description, source_url, source_name,
	published_at, collected_at, sentiment_raw, sentiment_label,
	sentiment_confidence, scoring_method, article_type, source_type,
	importance_weight`

const (
	articleBatchSize  = 500
	snapshotBatchSize = 1000
)

// Repository persists news articles and per-ticker sentiment snapshots
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a news repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "news").Logger(),
	}
}

// UpsertArticles writes article rows idempotently on (ticker, source_url).
// Re-collected articles keep their identity; sentiment fields are refreshed.
func (r *Repository) UpsertArticles(ctx context.Context, rows []Article) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, articleBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO news_articles
				(ticker, title, description, source_url, source_name, published_at,
				 collected_at, sentiment_raw, sentiment_label, sentiment_confidence,
				 scoring_method, article_type, source_type, importance_weight)
			VALUES
				(:ticker, :title, :description, :source_url, :source_name, :published_at,
				 :collected_at, :sentiment_raw, :sentiment_label, :sentiment_confidence,
				 :scoring_method, :article_type, :source_type, :importance_weight)
			ON CONFLICT (ticker, source_url) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				collected_at = EXCLUDED.collected_at,
				sentiment_raw = EXCLUDED.sentiment_raw,
				sentiment_label = EXCLUDED.sentiment_label,
				sentiment_confidence = EXCLUDED.sentiment_confidence,
				scoring_method = EXCLUDED.scoring_method,
				article_type = EXCLUDED.article_type,
				source_type = EXCLUDED.source_type,
				importance_weight = EXCLUDED.importance_weight`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert article batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// UpsertSnapshots writes news snapshots in fixed-size batches
func (r *Repository) UpsertSnapshots(ctx context.Context, rows []Snapshot) (int, error) {
	written := 0
	for _, batch := range database.Chunk(rows, snapshotBatchSize) {
		_, err := r.db.NamedExecContext(ctx, `
			INSERT INTO analysis_news_snapshot
				(trade_date, ticker, sentiment_score, direction, intensity, confidence,
				 effective_score, sentiment_signal, article_count, status, source_breakdown)
			VALUES
				(:trade_date, :ticker, :sentiment_score, :direction, :intensity, :confidence,
				 :effective_score, :sentiment_signal, :article_count, :status, :source_breakdown)
			ON CONFLICT (trade_date, ticker) DO UPDATE SET
				sentiment_score = EXCLUDED.sentiment_score,
				direction = EXCLUDED.direction,
				intensity = EXCLUDED.intensity,
				confidence = EXCLUDED.confidence,
				effective_score = EXCLUDED.effective_score,
				sentiment_signal = EXCLUDED.sentiment_signal,
				article_count = EXCLUDED.article_count,
				status = EXCLUDED.status,
				source_breakdown = EXCLUDED.source_breakdown`, batch)
		if err != nil {
			return written, fmt.Errorf("failed to upsert news snapshot batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// GetLatestSnapshot returns the most recent snapshot for a ticker, or nil
func (r *Repository) GetLatestSnapshot(ctx context.Context, ticker string) (*Snapshot, error) {
	var s Snapshot
	err := r.db.GetContext(ctx, &s, `
		SELECT `+snapshotColumns+`
		FROM analysis_news_snapshot
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load news snapshot for %s: %w", ticker, err)
	}
	return &s, nil
}

// ListSnapshotsByDate returns all snapshots for one trade date
func (r *Repository) ListSnapshotsByDate(ctx context.Context, date time.Time) ([]Snapshot, error) {
	var rows []Snapshot
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+snapshotColumns+`
		FROM analysis_news_snapshot
		WHERE trade_date = $1
		ORDER BY effective_score DESC, ticker`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list news snapshots: %w", err)
	}
	return rows, nil
}

// ListArticles returns the most recent articles for a ticker
func (r *Repository) ListArticles(ctx context.Context, ticker string, limit int) ([]Article, error) {
	var rows []Article
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+articleColumns+`
		FROM news_articles
		WHERE ticker = $1
		ORDER BY published_at DESC
		LIMIT $2`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles for %s: %w", ticker, err)
	}
	return rows, nil
}
