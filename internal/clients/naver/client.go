// Package naver provides a client for the Naver news search API.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	searchURL  = "https://openapi.naver.com/v1/search/news.json"
	maxDisplay = 100
	maxRetries = 3
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Domains treated as dedicated financial press.
var financialDomains = []string{
	"hankyung.com", "mk.co.kr", "edaily.co.kr", "mt.co.kr",
	"sedaily.com", "fnnews.com", "thebell.co.kr", "businesspost.co.kr",
}

// Article is a normalised news search result.
type Article struct {
	Title            string
	Description      string
	SourceURL        string
	SourceName       string
	PublishedAt      time.Time
	SourceType       string
	ArticleType      string
	ImportanceWeight float64
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	OriginalLink string `json:"originallink"`
	PubDate      string `json:"pubDate"`
}

// Client calls the Naver news search API with shared rate limiting.
type Client struct {
	http         *http.Client
	limiter      *rate.Limiter
	clientID     string
	clientSecret string
	log          zerolog.Logger
}

// NewClient creates a Naver search client. The limiter is shared across all
// concurrent callers to stay under the API quota.
func NewClient(clientID, clientSecret string, log zerolog.Logger) *Client {
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(8), 1),
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          log.With().Str("client", "naver").Logger(),
	}
}

// Configured reports whether API credentials are set.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// Search fetches news articles for a stock name, newest first.
// HTTP 429 responses are retried with exponential backoff (1s, 2s, 4s).
func (c *Client) Search(ctx context.Context, stockName string, display int) ([]Article, error) {
	if !c.Configured() {
		c.log.Debug().Msg("naver credentials not configured, skipping")
		return nil, nil
	}
	if display <= 0 || display > maxDisplay {
		display = maxDisplay
	}

	q := url.Values{}
	q.Set("query", stockName)
	q.Set("display", strconv.Itoa(display))
	q.Set("sort", "date")
	reqURL := searchURL + "?" + q.Encode()

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build naver request: %w", err)
		}
		req.Header.Set("X-Naver-Client-Id", c.clientID)
		req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("naver request failed for %q: %w", stockName, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			wait := time.Duration(1<<attempt) * time.Second
			c.log.Debug().Str("query", stockName).Dur("wait", wait).Msg("naver rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("naver API returned status %d for %q", resp.StatusCode, stockName)
		}

		var body searchResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode naver response: %w", err)
		}

		articles := make([]Article, 0, len(body.Items))
		for _, item := range body.Items {
			publishedAt, err := parsePubDate(item.PubDate)
			if err != nil {
				continue
			}
			title := StripHTML(item.Title)
			description := StripHTML(item.Description)
			sourceURL := item.OriginalLink
			if sourceURL == "" {
				sourceURL = item.Link
			}
			articles = append(articles, Article{
				Title:            title,
				Description:      description,
				SourceURL:        sourceURL,
				SourceName:       extractDomain(sourceURL),
				PublishedAt:      publishedAt,
				SourceType:       ClassifySource(sourceURL),
				ArticleType:      ClassifyArticleType(title, description),
				ImportanceWeight: 1.0,
			})
		}

		c.log.Debug().Str("query", stockName).Int("count", len(articles)).Msg("naver search done")
		return articles, nil
	}

	return nil, fmt.Errorf("naver API exhausted retries for %q", stockName)
}

// StripHTML removes markup tags and decodes HTML entities.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(s, "")))
}

// ClassifySource buckets a source URL into financial, portal or general press.
func ClassifySource(sourceURL string) string {
	if sourceURL == "" {
		return "general"
	}
	lower := strings.ToLower(sourceURL)
	for _, domain := range financialDomains {
		if strings.Contains(lower, domain) {
			return "financial"
		}
	}
	if strings.Contains(lower, "blog") || strings.Contains(lower, "cafe") || strings.Contains(lower, "community") {
		return "portal"
	}
	return "general"
}

// ClassifyArticleType buckets an article by keywords in its title and description.
func ClassifyArticleType(title, description string) string {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, "실적", "영업이익", "매출", "순이익", "어닝", "분기"):
		return "earnings"
	case containsAny(text, "리포트", "목표가", "투자의견", "증권사", "애널리스트"):
		return "analyst"
	case containsAny(text, "공시", "보고서", "감사", "신고"):
		return "disclosure"
	default:
		return "general"
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// parsePubDate handles the RFC 2822 style dates Naver emits, e.g.
// "Thu, 20 Feb 2025 09:00:00 +0900", with an RFC 3339 fallback.
func parsePubDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty pubDate")
	}
	if t, err := mail.ParseDate(s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func extractDomain(sourceURL string) string {
	if sourceURL == "" {
		return "unknown"
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}
