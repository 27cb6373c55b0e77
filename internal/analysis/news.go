package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/modules/news"
	"github.com/whaleback/whaleback/internal/modules/sentiment"
)

// newsOutcome carries the news phase results into simulation, composite,
// and persistence.
type newsOutcome struct {
	snapshots []news.Snapshot
	articles  []news.Article

	// Composite sentiment axis input; only tickers with active coverage.
	scores map[string]float64
	// Simulation parameter overrides; only tickers with active coverage.
	adjustments map[string]sentiment.Adjustments
}

// runNewsPhase collects, scores and aggregates news sentiment for every
// ticker. Disabled news analysis yields an empty outcome, which leaves the
// composite sentiment axis and the simulation parameters neutral.
func (e *Engine) runNewsPhase(ctx context.Context, log zerolog.Logger, targetDate time.Time, names map[string]string) *newsOutcome {
	out := &newsOutcome{
		scores:      make(map[string]float64),
		adjustments: make(map[string]sentiment.Adjustments),
	}
	if e.collector == nil {
		return out
	}

	params := sentiment.Params{
		Alpha:    e.cfg.News.SentimentAlpha,
		Beta:     e.cfg.News.SentimentBeta,
		Delta:    e.cfg.News.SentimentDelta,
		GammaLam: e.cfg.News.SentimentGammaLam,
		GammaMu:  e.cfg.News.SentimentGammaMu,
	}

	collected := e.collector.CollectAll(ctx, names)
	for ticker, articles := range collected {
		scored := e.scorer.ScoreArticles(ctx, articles)
		if len(scored) == 0 {
			continue
		}
		out.articles = append(out.articles, scored...)

		views := make([]sentiment.ScoredArticle, len(scored))
		for i, a := range scored {
			views[i] = a.ToScored()
		}
		score := sentiment.ComputeScore(views, e.cfg.News.HalfLifeDays, e.cfg.News.MinArticles)
		if score.Status != "no_data" {
			out.snapshots = append(out.snapshots, news.NewSnapshot(targetDate, ticker, score, scored))
		}
		if score.Status == "active" {
			out.scores[ticker] = score.SentimentScore
			out.adjustments[ticker] = sentiment.ComputeAdjustments(score, params)
		}
	}

	log.Info().
		Int("tickers", len(collected)).
		Int("articles", len(out.articles)).
		Int("active", len(out.scores)).
		Msg("news sentiment computed")
	return out
}
