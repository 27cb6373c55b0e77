// Package news implements article collection and the two-stage sentiment
// scoring pipeline: local classifier first, LLM escalation for low-confidence
// results.
package news

import (
	"encoding/json"
	"math"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx/types"

	"github.com/whaleback/whaleback/internal/modules/sentiment"
)

// Article is one row of news_articles. ID is assigned by the database.
type Article struct {
	ID          int64     `db:"id" json:"id"`
	Ticker      string    `db:"ticker" json:"ticker"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SourceURL   string    `db:"source_url" json:"source_url"`
	SourceName  string    `db:"source_name" json:"source_name"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`

	SentimentRaw        *float64 `db:"sentiment_raw" json:"sentiment_raw"`
	SentimentLabel      *string  `db:"sentiment_label" json:"sentiment_label"`
	SentimentConfidence *float64 `db:"sentiment_confidence" json:"sentiment_confidence"`
	ScoringMethod       *string  `db:"scoring_method" json:"scoring_method"`

	ArticleType      string  `db:"article_type" json:"article_type"`
	SourceType       string  `db:"source_type" json:"source_type"`
	ImportanceWeight float64 `db:"importance_weight" json:"importance_weight"`
}

// Text returns the classifier input, truncated to the model's window.
func (a Article) Text() string {
	text := a.Title
	if a.Description != "" {
		text += " " + a.Description
	}
	if len(text) > 512 {
		cut := 512
		// Back off to a rune boundary so a Korean character is never split.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// Scored reports whether the article already carries a sentiment verdict.
func (a Article) Scored() bool {
	return a.ScoringMethod != nil && *a.ScoringMethod != ""
}

// ToScored converts a scored article into the sentiment kernel's input form.
func (a Article) ToScored() sentiment.ScoredArticle {
	raw := 0.0
	if a.SentimentRaw != nil {
		raw = *a.SentimentRaw
	}
	return sentiment.ScoredArticle{
		SentimentRaw:     raw,
		PublishedAt:      a.PublishedAt,
		ImportanceWeight: a.ImportanceWeight,
		SourceType:       a.SourceType,
		ArticleType:      a.ArticleType,
	}
}

// Snapshot is one row of analysis_news_snapshot.
type Snapshot struct {
	TradeDate       time.Time       `db:"trade_date" json:"trade_date"`
	Ticker          string          `db:"ticker" json:"ticker"`
	SentimentScore  float64         `db:"sentiment_score" json:"sentiment_score"`
	Direction       float64         `db:"direction" json:"direction"`
	Intensity       float64         `db:"intensity" json:"intensity"`
	Confidence      float64         `db:"confidence" json:"confidence"`
	EffectiveScore  float64         `db:"effective_score" json:"effective_score"`
	SentimentSignal string          `db:"sentiment_signal" json:"sentiment_signal"`
	ArticleCount    int             `db:"article_count" json:"article_count"`
	Status          string          `db:"status" json:"status"`
	SourceBreakdown *types.JSONText `db:"source_breakdown" json:"source_breakdown"`
	ComputedAt      time.Time       `db:"computed_at" json:"computed_at"`
}

// NewSnapshot builds the per-ticker snapshot row from a sentiment score and
// the articles it was aggregated from. Callers skip no_data tickers.
func NewSnapshot(tradeDate time.Time, ticker string, score sentiment.Score, articles []Article) Snapshot {
	snap := Snapshot{
		TradeDate:       tradeDate,
		Ticker:          ticker,
		SentimentScore:  math.Round(score.SentimentScore*100) / 100,
		Direction:       math.Round(score.Direction*10000) / 10000,
		Intensity:       math.Round(score.Intensity*1000) / 1000,
		Confidence:      math.Round(score.Confidence*1000) / 1000,
		EffectiveScore:  math.Round(score.EffectiveScore*10000) / 10000,
		SentimentSignal: score.Signal,
		ArticleCount:    score.ArticleCount,
		Status:          score.Status,
	}

	if len(articles) > 0 {
		breakdown := make(map[string]int, len(articles))
		for _, a := range articles {
			name := a.SourceName
			if name == "" {
				name = "unknown"
			}
			breakdown[name]++
		}
		if raw, err := json.Marshal(breakdown); err == nil {
			jt := types.JSONText(raw)
			snap.SourceBreakdown = &jt
		}
	}

	return snap
}
