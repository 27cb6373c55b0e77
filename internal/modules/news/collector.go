package news

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/clients/dart"
	"github.com/whaleback/whaleback/internal/clients/naver"
)

const (
	// Low concurrency plus spacing keeps the sustained request rate near
	// 7 req/s, under the news API quota.
	collectConcurrency = 3
	collectSpacing     = 150 * time.Millisecond
)

var ruleMethod = "rule"

// Collector fetches news and disclosures per ticker.
type Collector struct {
	naver        *naver.Client
	dart         *dart.Client
	lookbackDays int
	log          zerolog.Logger
}

// NewCollector creates a news collector.
func NewCollector(naverClient *naver.Client, dartClient *dart.Client, lookbackDays int, log zerolog.Logger) *Collector {
	return &Collector{
		naver:        naverClient,
		dart:         dartClient,
		lookbackDays: lookbackDays,
		log:          log.With().Str("component", "news_collector").Logger(),
	}
}

// CollectAll fetches articles for every ticker with bounded concurrency.
// Per-ticker failures are logged and skipped; the map only contains tickers
// that yielded at least one article.
func (c *Collector) CollectAll(ctx context.Context, tickerNames map[string]string) map[string][]Article {
	type result struct {
		ticker   string
		articles []Article
	}

	sem := make(chan struct{}, collectConcurrency)
	results := make(chan result, len(tickerNames))
	var wg sync.WaitGroup

	for ticker, name := range tickerNames {
		wg.Add(1)
		go func(ticker, name string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			articles, err := c.CollectForTicker(ctx, ticker, name)
			if err != nil {
				c.log.Warn().Err(err).Str("ticker", ticker).Msg("news collection failed")
			} else if len(articles) > 0 {
				results <- result{ticker: ticker, articles: articles}
			}

			select {
			case <-ctx.Done():
			case <-time.After(collectSpacing):
			}
		}(ticker, name)
	}

	wg.Wait()
	close(results)

	collected := make(map[string][]Article)
	total := 0
	for r := range results {
		collected[r.ticker] = r.articles
		total += len(r.articles)
	}

	c.log.Info().Int("tickers", len(collected)).Int("articles", total).Msg("news collected")
	return collected
}

// CollectForTicker fetches, normalises and deduplicates all articles for one
// ticker. Disclosures arrive pre-scored and bypass the classifier.
func (c *Collector) CollectForTicker(ctx context.Context, ticker, stockName string) ([]Article, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -c.lookbackDays)

	searchResults, err := c.naver.Search(ctx, stockName, 100)
	if err != nil {
		return nil, err
	}

	disclosures, err := c.dart.ListDisclosures(ctx, ticker, since, now)
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(searchResults)+len(disclosures))
	for _, r := range searchResults {
		if r.PublishedAt.Before(since) {
			continue
		}
		articles = append(articles, Article{
			Ticker:           ticker,
			Title:            r.Title,
			Description:      r.Description,
			SourceURL:        r.SourceURL,
			SourceName:       r.SourceName,
			PublishedAt:      r.PublishedAt,
			CollectedAt:      now,
			ArticleType:      r.ArticleType,
			SourceType:       r.SourceType,
			ImportanceWeight: r.ImportanceWeight,
		})
	}

	neutralRaw, neutralConf := 0.0, 1.0
	neutralLabel := "neutral"
	for _, d := range disclosures {
		articles = append(articles, Article{
			Ticker:           ticker,
			Title:            d.Title,
			Description:      d.Description,
			SourceURL:        d.SourceURL,
			SourceName:       d.SourceName,
			PublishedAt:      d.PublishedAt,
			CollectedAt:      now,
			ArticleType:      "disclosure",
			SourceType:       "financial",
			ImportanceWeight: d.ImportanceWeight,

			SentimentRaw:        &neutralRaw,
			SentimentLabel:      &neutralLabel,
			SentimentConfidence: &neutralConf,
			ScoringMethod:       &ruleMethod,
		})
	}

	return dedupeByURL(articles), nil
}

func dedupeByURL(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	unique := articles[:0]
	for _, a := range articles {
		if a.SourceURL != "" {
			if seen[a.SourceURL] {
				continue
			}
			seen[a.SourceURL] = true
		}
		unique = append(unique, a)
	}
	return unique
}
